// Package theme maps highlight scopes to rendering styles, loaded from
// TOML files keyed by scope name.
package theme

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"go.treelight.dev/treelight"
)

const defaultClassPrefix = "hl-"

// Style describes how one scope renders.
type Style struct {
	Color      string `toml:"color"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
	Italic     bool   `toml:"italic"`
	Underline  bool   `toml:"underline"`
	// Class overrides the class name derived from the scope.
	Class string `toml:"class"`
}

func (s Style) css() string {
	var b strings.Builder
	if s.Color != "" {
		fmt.Fprintf(&b, "color:%s;", s.Color)
	}
	if s.Background != "" {
		fmt.Fprintf(&b, "background-color:%s;", s.Background)
	}
	if s.Bold {
		b.WriteString("font-weight:bold;")
	}
	if s.Italic {
		b.WriteString("font-style:italic;")
	}
	if s.Underline {
		b.WriteString("text-decoration:underline;")
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Theme maps highlight scopes to styles. Scopes without an entry fall back
// to their nearest themed ancestor ("string.escape" to "string") and render
// unstyled when no ancestor matches. A Theme is immutable once built and
// safe for concurrent use.
type Theme struct {
	name        string
	inline      bool
	classPrefix string
	styles      map[treelight.Scope]Style
}

// themeFile is the TOML shape of a theme:
//
//	name = "dusk"
//	inline = false
//	class-prefix = "hl-"
//
//	[scopes.keyword]
//	color = "#a578ea"
//
//	[scopes."string.escape"]
//	color = "#d7ba7d"
type themeFile struct {
	Name        string           `toml:"name"`
	Inline      bool             `toml:"inline"`
	ClassPrefix string           `toml:"class-prefix"`
	Scopes      map[string]Style `toml:"scopes"`
}

// New builds a theme from scope-name keyed styles. Keys must be exact
// names from the highlight vocabulary; anything else is an error, matching
// the compile-time rejection of unknown names in queries.
func New(name string, styles map[string]Style) (*Theme, error) {
	t := &Theme{
		name:        name,
		classPrefix: defaultClassPrefix,
		styles:      make(map[treelight.Scope]Style, len(styles)),
	}
	for key, style := range styles {
		scope, ok := treelight.ScopeByName(key)
		if !ok {
			return nil, fmt.Errorf("theme %q: unknown scope name %q", name, key)
		}
		t.styles[scope] = style
	}
	return t, nil
}

// Parse reads a TOML theme.
func Parse(r io.Reader) (*Theme, error) {
	var f themeFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding theme: %w", err)
	}

	t, err := New(f.Name, f.Scopes)
	if err != nil {
		return nil, err
	}
	t.inline = f.Inline
	if f.ClassPrefix != "" {
		t.classPrefix = f.ClassPrefix
	}
	return t, nil
}

// Load reads a TOML theme file.
func Load(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening theme: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Default returns the built-in dark palette.
func Default() *Theme {
	t, err := New("default", map[string]Style{
		"attribute":             {Color: "#d19a66"},
		"boolean":               {Color: "#d19a66"},
		"comment":               {Color: "#8a8a8a", Italic: true},
		"constant":              {Color: "#d19a66"},
		"error":                 {Color: "#f44747"},
		"function":              {Color: "#73fbf1"},
		"keyword":               {Color: "#a578ea"},
		"number":                {Color: "#d19a66"},
		"operator":              {Color: "#c8ccd4"},
		"property":              {Color: "#e06c75"},
		"punctuation.bracket":   {Color: "#abb2bf"},
		"punctuation.delimiter": {Color: "#abb2bf"},
		"string":                {Color: "#b8e466"},
		"string.escape":         {Color: "#d7ba7d"},
		"tag":                   {Color: "#e06c75"},
		"text.uri":              {Color: "#61afef", Underline: true},
		"type":                  {Color: "#e5c07b"},
		"variable":              {Color: "#fefef8"},
	})
	if err != nil {
		// The palette only uses vocabulary names.
		panic(err)
	}
	return t
}

// Name returns the theme's name.
func (t *Theme) Name() string {
	return t.name
}

// Resolve returns the style for scope, walking ancestor scopes until a
// themed one is found.
func (t *Theme) Resolve(scope treelight.Scope) (treelight.Scope, Style, bool) {
	for {
		if style, ok := t.styles[scope]; ok {
			return scope, style, true
		}
		parent, ok := scope.Parent()
		if !ok {
			return 0, Style{}, false
		}
		scope = parent
	}
}

// Attributes implements [treelight.AttributeCallback]: it yields a class
// attribute (paired with the stylesheet from WriteCSS), or an inline style
// attribute for themes with inline = true. Unthemed scopes yield nothing.
func (t *Theme) Attributes(scope treelight.Scope) []byte {
	resolved, style, ok := t.Resolve(scope)
	if !ok {
		return nil
	}
	if t.inline {
		css := style.css()
		if css == "" {
			return nil
		}
		return []byte(`style="` + css + `"`)
	}
	return []byte(`class="` + t.class(resolved, style) + `"`)
}

func (t *Theme) class(scope treelight.Scope, style Style) string {
	if style.Class != "" {
		return style.Class
	}
	return t.classPrefix + strings.ReplaceAll(scope.Name(), ".", "-")
}

// WriteCSS emits one rule per themed scope, in vocabulary order so the
// output is reproducible.
func (t *Theme) WriteCSS(w io.Writer) error {
	for _, scope := range slices.Sorted(maps.Keys(t.styles)) {
		style := t.styles[scope]
		css := style.css()
		if css == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, ".%s{%s}\n", t.class(scope, style), css); err != nil {
			return err
		}
	}
	return nil
}
