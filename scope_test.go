package treelight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeByName(t *testing.T) {
	s, ok := ScopeByName("function.call")
	require.True(t, ok)
	assert.Equal(t, ScopeFunctionCall, s)
	assert.Equal(t, "function.call", s.Name())

	_, ok = ScopeByName("function.method.call")
	assert.False(t, ok, "ScopeByName must not strip segments")

	_, ok = ScopeByName("bogus")
	assert.False(t, ok)
}

func TestScopeParent(t *testing.T) {
	tests := []struct {
		scope  Scope
		parent Scope
		ok     bool
	}{
		{ScopeFunctionCall, ScopeFunction, true},
		{ScopeStringEscape, ScopeString, true},
		{ScopeTextEnvironmentName, ScopeTextEnvironment, true},
		{ScopeTextEnvironment, ScopeText, true},
		{ScopeFunction, 0, false},
		{ScopeNone, 0, false},
	}

	for _, test := range tests {
		parent, ok := test.scope.Parent()
		require.Equal(t, test.ok, ok, "parent of %s", test.scope)
		if ok {
			assert.Equal(t, test.parent, parent, "parent of %s", test.scope)
		}
	}
}

func TestResolveScopeName(t *testing.T) {
	s, ok := resolveScopeName("function.method.call")
	require.True(t, ok)
	assert.Equal(t, ScopeFunction, s, "unknown tail segments strip down to the vocabulary")

	s, ok = resolveScopeName("string.escape")
	require.True(t, ok)
	assert.Equal(t, ScopeStringEscape, s)

	_, ok = resolveScopeName("totally.unknown")
	assert.False(t, ok)
}

func TestScopeNamesClosedVocabulary(t *testing.T) {
	names := ScopeNames()
	require.Len(t, names, NumScopes)
	assert.Equal(t, "annotation", names[0])
	assert.Equal(t, "variable.builtin", names[len(names)-1])

	// Every name round-trips through the index.
	for i, name := range names {
		s, ok := ScopeByName(name)
		require.True(t, ok, name)
		assert.Equal(t, Scope(i), s, name)
	}
}

func TestScopeNameOutOfRange(t *testing.T) {
	assert.Equal(t, "", Scope(-1).Name())
	assert.Equal(t, "", Scope(NumScopes).Name())
}
