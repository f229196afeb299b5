// Package languages keeps compiled highlight configurations addressable by
// language name, for both top-level requests and injection resolution.
package languages

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"go.treelight.dev/treelight"
)

// NewLanguage wraps a grammar's raw language pointer, e.g.
// tree_sitter_go.Language().
func NewLanguage(ptr unsafe.Pointer) *tree_sitter.Language {
	return tree_sitter.NewLanguage(ptr)
}

// Registry maps language names to compiled highlight configurations. It
// doubles as the injection callback: injected sub-languages resolve through
// the same names, and a name nobody registered degrades to plain text.
// Register everything during setup; after that a Registry is read-only and
// safe to share across goroutines.
type Registry struct {
	configs map[string]*treelight.Configuration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*treelight.Configuration)}
}

// Register compiles the queries for a language and adds it under name. Any
// of the query sources may be nil.
func (r *Registry) Register(name string, language *tree_sitter.Language, highlightsQuery, injectionQuery, localsQuery []byte) error {
	cfg, err := treelight.NewConfiguration(language, name, highlightsQuery, injectionQuery, localsQuery)
	if err != nil {
		return err
	}
	r.configs[name] = cfg
	return nil
}

// Alias makes a registered language reachable under a second name, e.g.
// "js" for "javascript". Unknown names are ignored.
func (r *Registry) Alias(alias, name string) {
	if cfg := r.configs[name]; cfg != nil {
		r.configs[alias] = cfg
	}
}

// Get returns the configuration for name, or nil when the language is
// unknown.
func (r *Registry) Get(name string) *treelight.Configuration {
	return r.configs[name]
}

// InjectionCallback adapts the registry for [treelight.Highlighter].
func (r *Registry) InjectionCallback() treelight.InjectionCallback {
	return r.Get
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.configs))
}

// Render highlights source as the named language and writes the framed
// HTML fragment. An unregistered language is not an error: the source
// renders as escaped plain text with line elements and no highlight spans.
func (r *Registry) Render(ctx context.Context, w io.Writer, name string, source []byte, attrs treelight.AttributeCallback) error {
	events := []treelight.Event{treelight.EventSource{StartByte: 0, EndByte: uint(len(source))}}
	if cfg := r.Get(name); cfg != nil {
		var err error
		events, err = treelight.New().Highlight(ctx, cfg, source, r.Get)
		if err != nil {
			return fmt.Errorf("highlighting %s: %w", name, err)
		}
	}
	return treelight.RenderDocument(w, events, source, name, attrs)
}
