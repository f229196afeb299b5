package treelight

import "strings"

// Scope is one entry of the closed highlight vocabulary. The vocabulary is
// a versioned contract shared with themes and queries: query capture names
// must resolve into it (see [NewConfiguration]) and theme files may only
// style names from it. Names are dot-segmented, ordered general to
// specific, so "function.call" is a specialization of "function".
type Scope int

const (
	ScopeAnnotation Scope = iota
	ScopeAttribute
	ScopeBoolean
	ScopeCharacter
	ScopeCharacterSpecial
	ScopeComment
	ScopeConditional
	ScopeConstant
	ScopeConstantBuiltin
	ScopeConstantMacro
	ScopeConstructor
	ScopeDebug
	ScopeDefine
	ScopeError
	ScopeException
	ScopeField
	ScopeFloat
	ScopeFunction
	ScopeFunctionCall
	ScopeFunctionBuiltin
	ScopeFunctionMacro
	ScopeInclude
	ScopeKeyword
	ScopeKeywordFunction
	ScopeKeywordOperator
	ScopeKeywordReturn
	ScopeLabel
	ScopeMethod
	ScopeMethodCall
	ScopeNamespace
	ScopeNone
	ScopeNumber
	ScopeOperator
	ScopeParameter
	ScopeParameterReference
	ScopePreproc
	ScopeProperty
	ScopePunctuationDelimiter
	ScopePunctuationBracket
	ScopePunctuationSpecial
	ScopeRepeat
	ScopeStorageClass
	ScopeString
	ScopeStringRegex
	ScopeStringEscape
	ScopeStringSpecial
	ScopeSymbol
	ScopeTag
	ScopeTagAttribute
	ScopeTagDelimiter
	ScopeText
	ScopeTextStrong
	ScopeTextEmphasis
	ScopeTextUnderline
	ScopeTextStrike
	ScopeTextTitle
	ScopeTextLiteral
	ScopeTextURI
	ScopeTextMath
	ScopeTextReference
	ScopeTextEnvironment
	ScopeTextEnvironmentName
	ScopeTextNote
	ScopeTextWarning
	ScopeTextDanger
	ScopeTodo
	ScopeType
	ScopeTypeBuiltin
	ScopeTypeQualifier
	ScopeTypeDefinition
	ScopeVariable
	ScopeVariableBuiltin
)

// scopeNames is ordered by declaration. The order is part of the contract:
// it drives stylesheet output and equal-range tie-breaks must reproduce
// across runs.
var scopeNames = [...]string{
	"annotation",
	"attribute",
	"boolean",
	"character",
	"character.special",
	"comment",
	"conditional",
	"constant",
	"constant.builtin",
	"constant.macro",
	"constructor",
	"debug",
	"define",
	"error",
	"exception",
	"field",
	"float",
	"function",
	"function.call",
	"function.builtin",
	"function.macro",
	"include",
	"keyword",
	"keyword.function",
	"keyword.operator",
	"keyword.return",
	"label",
	"method",
	"method.call",
	"namespace",
	"none",
	"number",
	"operator",
	"parameter",
	"parameter.reference",
	"preproc",
	"property",
	"punctuation.delimiter",
	"punctuation.bracket",
	"punctuation.special",
	"repeat",
	"storageclass",
	"string",
	"string.regex",
	"string.escape",
	"string.special",
	"symbol",
	"tag",
	"tag.attribute",
	"tag.delimiter",
	"text",
	"text.strong",
	"text.emphasis",
	"text.underline",
	"text.strike",
	"text.title",
	"text.literal",
	"text.uri",
	"text.math",
	"text.reference",
	"text.environment",
	"text.environment.name",
	"text.note",
	"text.warning",
	"text.danger",
	"todo",
	"type",
	"type.builtin",
	"type.qualifier",
	"type.definition",
	"variable",
	"variable.builtin",
}

// NumScopes is the size of the vocabulary.
const NumScopes = len(scopeNames)

var scopeIndex = func() map[string]Scope {
	index := make(map[string]Scope, len(scopeNames))
	for i, name := range scopeNames {
		index[name] = Scope(i)
	}
	return index
}()

// ScopeByName returns the scope with exactly the given name.
func ScopeByName(name string) (Scope, bool) {
	s, ok := scopeIndex[name]
	return s, ok
}

// ScopeNames returns the vocabulary in declaration order.
func ScopeNames() []string {
	names := make([]string, len(scopeNames))
	copy(names, scopeNames[:])
	return names
}

// Name returns the dot-segmented highlight name, or "" for an out-of-range
// scope.
func (s Scope) Name() string {
	if s < 0 || int(s) >= len(scopeNames) {
		return ""
	}
	return scopeNames[s]
}

func (s Scope) String() string {
	return s.Name()
}

// Parent returns the nearest more general scope, stripping trailing dot
// segments until another vocabulary name is found: "function.call" yields
// "function". Top-level scopes have no parent.
func (s Scope) Parent() (Scope, bool) {
	name := s.Name()
	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return 0, false
		}
		name = name[:i]
		if p, ok := scopeIndex[name]; ok {
			return p, true
		}
	}
}

// resolveScopeName maps a query capture name onto the vocabulary, stripping
// trailing dot segments until a known name is found. "function.method.call"
// is not in the vocabulary and resolves to "function", preserving drop-in
// compatibility with nvim-treesitter style queries.
func resolveScopeName(name string) (Scope, bool) {
	for {
		if s, ok := scopeIndex[name]; ok {
			return s, true
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return 0, false
		}
		name = name[:i]
	}
}
