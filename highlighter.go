package treelight

import (
	"context"
	"fmt"
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// InjectionCallback resolves an injected language name to its compiled
// configuration. Returning nil leaves the injected range unhighlighted;
// unknown languages are degradation, not an error.
type InjectionCallback func(languageName string) *Configuration

// Highlighter runs highlighting requests. It owns a parser and a pool of
// query cursors reused across layers and requests, so it is not safe for
// concurrent use; give each goroutine its own Highlighter. Configurations,
// themes and registries are read-only and freely shareable.
type Highlighter struct {
	parser  *tree_sitter.Parser
	cursors []*tree_sitter.QueryCursor
}

// New creates a Highlighter.
func New() *Highlighter {
	return &Highlighter{parser: tree_sitter.NewParser()}
}

func (h *Highlighter) pushCursor(cursor *tree_sitter.QueryCursor) {
	h.cursors = append(h.cursors, cursor)
}

func (h *Highlighter) popCursor() *tree_sitter.QueryCursor {
	if len(h.cursors) == 0 {
		return tree_sitter.NewQueryCursor()
	}

	cursor := h.cursors[len(h.cursors)-1]
	h.cursors = h.cursors[:len(h.cursors)-1]
	return cursor
}

// Highlight parses source with cfg's grammar, resolves every query capture
// including recursive language injections, and returns the flat event
// stream. The stream's source events exactly cover the input and its spans
// are well-nested. The source is expected to be UTF-8 encoded.
func (h *Highlighter) Highlight(ctx context.Context, cfg *Configuration, source []byte, injectionFn InjectionCallback) ([]Event, error) {
	captures, err := h.Captures(ctx, cfg, source, injectionFn)
	if err != nil {
		return nil, err
	}
	return BuildEvents(captures, uint(len(source))), nil
}

// layer is one (language, ranges) parse of the document: the root document
// at depth 0 and one layer per resolved injection below it.
type layer struct {
	config *Configuration
	parent string // language name of the injecting layer
	depth  uint
	ranges []tree_sitter.Range
}

var fullDocument = []tree_sitter.Range{{
	StartByte:  0,
	EndByte:    ^uint(0),
	StartPoint: tree_sitter.NewPoint(0, 0),
	EndPoint:   tree_sitter.NewPoint(^uint(0), ^uint(0)),
}}

// Captures returns the raw capture multiset for source, before span
// resolution. Most callers want [Highlighter.Highlight]; the split exists
// so the capture set and the builder can be exercised independently.
func (h *Highlighter) Captures(ctx context.Context, cfg *Configuration, source []byte, injectionFn InjectionCallback) ([]Capture, error) {
	var captures []Capture
	queue := []layer{{config: cfg, ranges: fullDocument}}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		l := queue[0]
		queue = queue[1:]

		next, err := h.captureLayer(l, source, injectionFn, &captures)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}
	return captures, nil
}

type localDef struct {
	name  string
	rng   tree_sitter.Range
	scope *Scope
}

// localScope is one frame of the request-local side-table tracking lexical
// scopes for the local.* queries.
type localScope struct {
	inherits bool
	rng      tree_sitter.Range
	defs     []localDef
}

type injection struct {
	languageName    string
	nodes           []tree_sitter.Node
	includeChildren bool
}

// resolveInjection turns a detected injection into a child layer, or
// nothing when the language is unknown or the ranges collapse.
func resolveInjection(l layer, inj injection, injectionFn InjectionCallback) []layer {
	if inj.languageName == "" || len(inj.nodes) == 0 || injectionFn == nil {
		return nil
	}
	config := injectionFn(inj.languageName)
	if config == nil {
		// Unknown language: the range stays plain text.
		return nil
	}
	ranges := intersectRanges(l.ranges, inj.nodes, inj.includeChildren)
	if len(ranges) == 0 {
		return nil
	}
	return []layer{{
		config: config,
		parent: l.config.languageName,
		depth:  l.depth + 1,
		ranges: ranges,
	}}
}

// captureLayer parses one layer, appends its highlight captures to out, and
// returns the child layers spawned by its injections.
func (h *Highlighter) captureLayer(l layer, source []byte, injectionFn InjectionCallback, out *[]Capture) ([]layer, error) {
	if err := h.parser.SetIncludedRanges(l.ranges); err != nil {
		// Degenerate injection ranges; skip the layer rather than fail the
		// whole request.
		return nil, nil
	}
	if err := h.parser.SetLanguage(l.config.language); err != nil {
		return nil, fmt.Errorf("error setting language: %w", err)
	}
	tree := h.parser.ParseWith(func(i int, p tree_sitter.Point) []byte {
		return source[i:]
	}, nil)

	cursor := h.popCursor()
	defer h.pushCursor(cursor)

	var next []layer

	// Combined injections parse all content nodes of one pattern as a
	// single child document.
	if l.config.combinedInjectionsQuery != nil {
		injections := make([]injection, l.config.combinedInjectionsQuery.PatternCount())
		matches := cursor.Matches(l.config.combinedInjectionsQuery, tree.RootNode(), source)
		for {
			match := matches.Next()
			if match == nil {
				break
			}
			languageName, contentNode, includeChildren := injectionForMatch(l.config, l.parent, l.config.combinedInjectionsQuery, *match, source)
			if languageName != "" {
				injections[match.PatternIndex].languageName = languageName
			}
			if contentNode != nil {
				injections[match.PatternIndex].nodes = append(injections[match.PatternIndex].nodes, *contentNode)
			}
			injections[match.PatternIndex].includeChildren = includeChildren
		}
		for _, inj := range injections {
			next = append(next, resolveInjection(l, inj, injectionFn)...)
		}
	}

	caps := &captureStream{captures: cursor.Captures(l.config.query, tree.RootNode(), source)}

	// Sentinel frame covering the whole document; real frames from
	// local.scope captures stack above it.
	scopeStack := []*localScope{{
		rng: tree_sitter.Range{
			EndByte:  ^uint(0),
			EndPoint: tree_sitter.NewPoint(^uint(0), ^uint(0)),
		},
	}}

	for {
		match, captureIndex, ok := caps.next()
		if !ok {
			break
		}
		capture := match.Captures[captureIndex]
		rng := capture.Node.Range()

		// Injection patterns come first in the merged query.
		if match.PatternIndex < l.config.localsPatternIndex {
			languageName, contentNode, includeChildren := injectionForMatch(l.config, l.parent, l.config.query, match, source)

			// Remove the match so none of its other captures linger in the
			// capture stream.
			match.Remove()

			if contentNode != nil {
				next = append(next, resolveInjection(l, injection{
					languageName:    languageName,
					nodes:           []tree_sitter.Node{*contentNode},
					includeChildren: includeChildren,
				}, injectionFn)...)
			}
			continue
		}

		// Drop local scopes that ended before this capture starts.
		for rng.StartByte > scopeStack[len(scopeStack)-1].rng.EndByte {
			scopeStack = scopeStack[:len(scopeStack)-1]
		}

		// Locals patterns populate the scope stack side-table; a resolved
		// reference pins the capture to its definition's scope.
		var (
			refScope   *Scope
			currentDef *localDef
		)
		for match.PatternIndex < l.config.highlightsPatternIndex {
			index := uint(capture.Index)
			switch {
			case l.config.localScopeCaptureIndex != nil && index == *l.config.localScopeCaptureIndex:
				currentDef = nil
				frame := &localScope{inherits: true, rng: rng}
				for _, prop := range l.config.query.PropertySettings(match.PatternIndex) {
					if prop.Key == captureLocalScopeInherits {
						frame.inherits = prop.Value != nil && *prop.Value == "true"
					}
				}
				scopeStack = append(scopeStack, frame)

			case l.config.localDefCaptureIndex != nil && index == *l.config.localDefCaptureIndex:
				refScope = nil
				top := scopeStack[len(scopeStack)-1]
				if int(rng.EndByte) <= len(source) {
					top.defs = append(top.defs, localDef{
						name: string(source[rng.StartByte:rng.EndByte]),
						rng:  rng,
					})
					currentDef = &top.defs[len(top.defs)-1]
				}

			case l.config.localRefCaptureIndex != nil && index == *l.config.localRefCaptureIndex && currentDef == nil:
				if int(rng.EndByte) <= len(source) {
					name := string(source[rng.StartByte:rng.EndByte])
				lookup:
					for _, frame := range slices.Backward(scopeStack) {
						for _, def := range slices.Backward(frame.defs) {
							if def.name == name && rng.StartByte >= def.rng.EndByte {
								refScope = def.scope
								break lookup
							}
						}
						if !frame.inherits {
							break
						}
					}
				}
			}

			// Further patterns may match the same node, including the
			// highlight pattern this local should style with.
			nextMatch, nextIndex, ok := caps.peek()
			if !ok || !nextMatch.Captures[nextIndex].Node.Equals(capture.Node) {
				break
			}
			capture = nextMatch.Captures[nextIndex]
			match, _, _ = caps.next()
		}
		if match.PatternIndex < l.config.highlightsPatternIndex {
			// Locals-only node, nothing to style.
			continue
		}

		// Later-declared highlight patterns for the same node override
		// earlier ones, except patterns disabled for resolved locals via
		// (#is-not? local).
		for {
			nextMatch, nextIndex, ok := caps.peek()
			if !ok || !nextMatch.Captures[nextIndex].Node.Equals(capture.Node) {
				break
			}
			followingMatch, _, _ := caps.next()
			if (currentDef != nil || refScope != nil) && l.config.nonLocalVariablePatterns[followingMatch.PatternIndex] {
				continue
			}
			match.Remove()
			capture = nextMatch.Captures[nextIndex]
			match = followingMatch
		}

		scope := l.config.scopes[capture.Index]
		if currentDef != nil {
			// Definitions remember their scope so later references inherit
			// it.
			currentDef.scope = scope
		}
		if refScope != nil {
			scope = refScope
		}
		if scope != nil && rng.EndByte > rng.StartByte {
			*out = append(*out, Capture{
				StartByte: rng.StartByte,
				EndByte:   rng.EndByte,
				Scope:     *scope,
				Pattern:   match.PatternIndex,
				Depth:     l.depth,
			})
		}
	}

	return next, nil
}

// injectionForMatch extracts the injected language and content node from an
// injection query match, consulting the pattern's property settings for
// literal (#set! injection.language), self and parent fallbacks.
func injectionForMatch(config *Configuration, parentName string, query *tree_sitter.Query, match tree_sitter.QueryMatch, source []byte) (string, *tree_sitter.Node, bool) {
	if config.injectionContentCaptureIndex == nil {
		return "", nil, false
	}

	var (
		languageName    string
		contentNode     *tree_sitter.Node
		includeChildren bool
	)

	for _, capture := range match.Captures {
		index := uint(capture.Index)
		switch {
		case config.injectionLanguageCaptureIndex != nil && index == *config.injectionLanguageCaptureIndex:
			languageName = capture.Node.Utf8Text(source)
		case index == *config.injectionContentCaptureIndex:
			contentNode = &capture.Node
		}
	}

	for _, property := range query.PropertySettings(match.PatternIndex) {
		switch property.Key {
		case captureInjectionLanguage:
			if languageName == "" && property.Value != nil {
				languageName = *property.Value
			}
		case captureInjectionSelf:
			if languageName == "" {
				languageName = config.languageName
			}
		case captureInjectionParent:
			if languageName == "" {
				languageName = parentName
			}
		case captureInjectionIncludeChildren:
			includeChildren = true
		}
	}

	return languageName, contentNode, includeChildren
}

// captureStream adds one-step lookahead to a capture cursor so that every
// pattern matching the same node can be consumed as a batch. Captures are
// cloned on the way out; the cursor reuses its match buffers.
type captureStream struct {
	captures tree_sitter.QueryCaptures
	match    tree_sitter.QueryMatch
	index    uint
	ok       bool
	buffered bool
}

func (s *captureStream) pull() (tree_sitter.QueryMatch, uint, bool) {
	match, index := s.captures.Next()
	if match == nil {
		return tree_sitter.QueryMatch{}, 0, false
	}
	match.Captures = slices.Clone(match.Captures)
	return *match, index, true
}

func (s *captureStream) next() (tree_sitter.QueryMatch, uint, bool) {
	if s.buffered {
		s.buffered = false
		return s.match, s.index, s.ok
	}
	return s.pull()
}

func (s *captureStream) peek() (tree_sitter.QueryMatch, uint, bool) {
	if !s.buffered {
		s.match, s.index, s.ok = s.pull()
		s.buffered = true
	}
	return s.match, s.index, s.ok
}

// intersectRanges computes the ranges to include when parsing an injection.
// This takes into account three things:
//   - parentRanges: the ranges must all fall within the current layer's
//     ranges.
//   - nodes: every injection takes place within a set of nodes, whose
//     ranges bound the injection.
//   - includesChildren: for some injections the content nodes' children are
//     excluded so that only the content nodes' own text is reparsed; for
//     others the nodes' entire ranges are reparsed, children included.
func intersectRanges(parentRanges []tree_sitter.Range, nodes []tree_sitter.Node, includesChildren bool) []tree_sitter.Range {
	cursor := nodes[0].Walk()
	defer cursor.Close()

	result := []tree_sitter.Range{}

	if len(parentRanges) == 0 {
		panic("layers are always constructed with non-empty ranges")
	}

	parentRange := parentRanges[0]
	parentRanges = parentRanges[1:]

	for _, node := range nodes {
		precedingRange := tree_sitter.Range{
			EndByte:  node.StartByte(),
			EndPoint: node.StartPosition(),
		}
		followingRange := tree_sitter.Range{
			StartByte:  node.EndByte(),
			StartPoint: node.EndPosition(),
			EndByte:    ^uint(0),
			EndPoint:   tree_sitter.NewPoint(^uint(0), ^uint(0)),
		}

		excludedRanges := []tree_sitter.Range{}
		for _, child := range node.Children(cursor) {
			if !includesChildren {
				excludedRanges = append(excludedRanges, child.Range())
			}
		}
		excludedRanges = append(excludedRanges, followingRange)

		for _, excludedRange := range excludedRanges {
			r := tree_sitter.Range{
				StartByte:  precedingRange.EndByte,
				StartPoint: precedingRange.EndPoint,
				EndByte:    excludedRange.StartByte,
				EndPoint:   excludedRange.StartPoint,
			}
			precedingRange = excludedRange

			if r.EndByte < parentRange.StartByte {
				continue
			}

			for parentRange.StartByte <= r.EndByte {
				if parentRange.EndByte > r.StartByte {
					if r.StartByte < parentRange.StartByte {
						r.StartByte = parentRange.StartByte
						r.StartPoint = parentRange.StartPoint
					}

					if parentRange.EndByte < r.EndByte {
						if r.StartByte < parentRange.EndByte {
							result = append(result, tree_sitter.Range{
								StartByte:  r.StartByte,
								StartPoint: r.StartPoint,
								EndByte:    parentRange.EndByte,
								EndPoint:   precedingRange.EndPoint,
							})
						}
						r.StartByte = parentRange.EndByte
						r.StartPoint = parentRange.EndPoint
					} else {
						if r.StartByte < r.EndByte {
							result = append(result, r)
						}
						break
					}
				}

				if len(parentRanges) > 0 {
					parentRange = parentRanges[0]
					parentRanges = parentRanges[1:]
				} else {
					return result
				}
			}
		}
	}

	return result
}
