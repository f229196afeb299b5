package treelight

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectScopes(events []Event) map[Scope]bool {
	scopes := make(map[Scope]bool)
	for _, event := range events {
		if e, ok := event.(EventHighlightStart); ok {
			scopes[e.Scope] = true
		}
	}
	return scopes
}

// checkWellFormed asserts the stream invariants: source events tile the
// input and highlight events are balanced.
func checkWellFormed(t *testing.T, events []Event, sourceLen uint) {
	t.Helper()

	var offset uint
	depth := 0
	for _, event := range events {
		switch e := event.(type) {
		case EventSource:
			require.Equal(t, offset, e.StartByte)
			require.Greater(t, e.EndByte, e.StartByte)
			offset = e.EndByte
		case EventHighlightStart:
			depth++
		case EventHighlightEnd:
			depth--
			require.GreaterOrEqual(t, depth, 0)
		}
	}
	require.Equal(t, sourceLen, offset)
	require.Zero(t, depth)
}

func TestHighlight_CoversSource(t *testing.T) {
	source, err := os.ReadFile("testdata/go/source.go")
	require.NoError(t, err)

	cfg := goConfig(t)
	events, err := New().Highlight(context.Background(), cfg, source, nil)
	require.NoError(t, err)

	checkWellFormed(t, events, uint(len(source)))

	scopes := collectScopes(events)
	assert.True(t, scopes[ScopeKeyword], "expected a keyword capture")
	assert.True(t, scopes[ScopeString], "expected a string capture")
	assert.True(t, scopes[ScopeFunction], "expected a function capture")
	assert.True(t, scopes[ScopeFunctionCall], "expected a function.call capture")
	assert.True(t, scopes[ScopeNumber], "expected a number capture")
}

func TestHighlight_LaterPatternOverridesEarlier(t *testing.T) {
	// (identifier) @variable declares before the function.call pattern, so
	// call sites must come out as function.call, never as variable+call.
	source := []byte("package p\n\nfunc f() { g() }\n")

	cfg := goConfig(t)
	events, err := New().Highlight(context.Background(), cfg, source, nil)
	require.NoError(t, err)

	var spans []string
	var stack []Scope
	for _, event := range events {
		switch e := event.(type) {
		case EventHighlightStart:
			stack = append(stack, e.Scope)
		case EventHighlightEnd:
			stack = stack[:len(stack)-1]
		case EventSource:
			if len(stack) > 0 && string(source[e.StartByte:e.EndByte]) == "g" {
				spans = append(spans, stack[len(stack)-1].Name())
			}
		}
	}
	assert.Equal(t, []string{"function.call"}, spans)
}

func TestHighlight_Idempotent(t *testing.T) {
	source, err := os.ReadFile("testdata/go/source.go")
	require.NoError(t, err)

	cfg := goConfig(t)
	h := New()

	first, err := h.Highlight(context.Background(), cfg, source, nil)
	require.NoError(t, err)
	second, err := h.Highlight(context.Background(), cfg, source, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var html1, html2 bytes.Buffer
	require.NoError(t, Render(&html1, first, source, classAttrs))
	require.NoError(t, Render(&html2, second, source, classAttrs))
	assert.Equal(t, html1.String(), html2.String())
}

func TestHighlight_ContextCancellation(t *testing.T) {
	source := []byte("package main\n")
	cfg := goConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Highlight(ctx, cfg, source, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHighlight_LocalReferencesInheritDefinitionScope(t *testing.T) {
	highlights := []byte(`(call_expression function: (identifier) @function.call)
(parameter_declaration (identifier) @parameter)`)
	locals := []byte(`(function_declaration) @local.scope
(parameter_declaration (identifier) @local.definition)
(identifier) @local.reference`)

	cfg, err := NewConfiguration(goLanguage(), "go", highlights, nil, locals)
	require.NoError(t, err)

	// f's parameter g is referenced in call position; the local definition
	// must win over the function.call pattern.
	source := []byte("package p\n\nfunc f(g func()) { g() }\n")
	events, err := New().Highlight(context.Background(), cfg, source, nil)
	require.NoError(t, err)

	checkWellFormed(t, events, uint(len(source)))

	var gScopes []string
	var stack []Scope
	for _, event := range events {
		switch e := event.(type) {
		case EventHighlightStart:
			stack = append(stack, e.Scope)
		case EventHighlightEnd:
			stack = stack[:len(stack)-1]
		case EventSource:
			if len(stack) > 0 && string(source[e.StartByte:e.EndByte]) == "g" {
				gScopes = append(gScopes, stack[len(stack)-1].Name())
			}
		}
	}
	assert.Equal(t, []string{"parameter", "parameter"}, gScopes)
}
