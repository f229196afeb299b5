package treelight

import (
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	captureInjectionContent         = "injection.content"
	captureInjectionCombined        = "injection.combined"
	captureInjectionLanguage        = "injection.language"
	captureInjectionSelf            = "injection.self"
	captureInjectionParent          = "injection.parent"
	captureInjectionIncludeChildren = "injection.include-children"
	captureLocal                    = "local"
	captureLocalScope               = "local.scope"
	captureLocalScopeInherits       = "local.scope-inherits"
	captureLocalDef                 = "local.definition"
	captureLocalDefValue            = "local.definition-value"
	captureLocalRef                 = "local.reference"
)

// Configuration holds a compiled language: its grammar plus the injection,
// locals and highlights queries merged into a single tree-sitter query.
// A Configuration is immutable after [NewConfiguration] and may be shared
// across concurrent highlighting requests.
type Configuration struct {
	language                *tree_sitter.Language
	languageName            string
	query                   *tree_sitter.Query
	combinedInjectionsQuery *tree_sitter.Query
	localsPatternIndex      uint
	highlightsPatternIndex  uint
	// scopes maps capture indexes to vocabulary scopes; nil entries are
	// internal captures (injection.*, local.*, _-prefixed helpers).
	scopes                   []*Scope
	nonLocalVariablePatterns []bool

	injectionContentCaptureIndex  *uint
	injectionLanguageCaptureIndex *uint
	localScopeCaptureIndex        *uint
	localDefCaptureIndex          *uint
	localDefValueCaptureIndex     *uint
	localRefCaptureIndex          *uint
}

// LanguageName returns the name the configuration was compiled under.
func (c *Configuration) LanguageName() string {
	return c.languageName
}

// NewConfiguration compiles the highlight, injection and locals queries for
// a language. Any of the query sources may be nil. Capture names are
// resolved against the scope vocabulary with dot-segment stripping; a name
// whose root never reaches the vocabulary is a [QueryCompileError], as is a
// syntactically malformed pattern.
func NewConfiguration(language *tree_sitter.Language, languageName string, highlightsQuery, injectionQuery, localsQuery []byte) (*Configuration, error) {
	// Concatenate the three sources into one query so a single cursor walk
	// yields all captures; pattern offsets recover which band a pattern
	// belongs to.
	querySource := slices.Clone(injectionQuery)
	localsQueryOffset := uint(len(querySource))
	querySource = append(querySource, localsQuery...)
	highlightsQueryOffset := uint(len(querySource))
	querySource = append(querySource, highlightsQuery...)

	query, err := tree_sitter.NewQuery(language, string(querySource))
	if err != nil {
		return nil, &QueryCompileError{Language: languageName, Err: err}
	}

	localsPatternIndex, highlightsPatternIndex := uint(0), uint(0)
	for i := range query.PatternCount() {
		patternOffset := query.StartByteForPattern(i)
		if patternOffset < highlightsQueryOffset {
			highlightsPatternIndex++
		}
		if patternOffset < localsQueryOffset {
			localsPatternIndex++
		}
	}

	// Injection patterns marked (#set! injection.combined) are pulled out
	// into a separate query so all their content nodes can be parsed as one
	// document.
	var combinedInjectionsQuery *tree_sitter.Query
	if len(injectionQuery) > 0 {
		combined, err := tree_sitter.NewQuery(language, string(injectionQuery))
		if err != nil {
			return nil, &QueryCompileError{Language: languageName, Err: err}
		}
		var hasCombinedQueries bool
		for i := range localsPatternIndex {
			settings := combined.PropertySettings(i)
			if slices.ContainsFunc(settings, func(setting tree_sitter.QueryProperty) bool {
				return setting.Key == captureInjectionCombined
			}) {
				hasCombinedQueries = true
				query.DisablePattern(i)
			} else {
				combined.DisablePattern(i)
			}
		}
		if hasCombinedQueries {
			combinedInjectionsQuery = combined
		}
	}

	nonLocalVariablePatterns := make([]bool, query.PatternCount())
	for i := range query.PatternCount() {
		predicates := query.PropertyPredicates(i)
		nonLocalVariablePatterns[i] = slices.ContainsFunc(predicates, func(predicate tree_sitter.PropertyPredicate) bool {
			return !predicate.Positive && predicate.Property.Key == captureLocal
		})
	}

	cfg := &Configuration{
		language:                 language,
		languageName:             languageName,
		query:                    query,
		combinedInjectionsQuery:  combinedInjectionsQuery,
		localsPatternIndex:       localsPatternIndex,
		highlightsPatternIndex:   highlightsPatternIndex,
		nonLocalVariablePatterns: nonLocalVariablePatterns,
	}

	cfg.scopes = make([]*Scope, len(query.CaptureNames()))
	for i, captureName := range query.CaptureNames() {
		ui := uint(i)
		switch captureName {
		case captureInjectionContent:
			cfg.injectionContentCaptureIndex = &ui
		case captureInjectionLanguage:
			cfg.injectionLanguageCaptureIndex = &ui
		case captureLocalScope:
			cfg.localScopeCaptureIndex = &ui
		case captureLocalDef:
			cfg.localDefCaptureIndex = &ui
		case captureLocalDefValue:
			cfg.localDefValueCaptureIndex = &ui
		case captureLocalRef:
			cfg.localRefCaptureIndex = &ui
		default:
			// Predicate helper captures (@_foo) and the remaining local.* /
			// injection.* names are consumed internally and never style
			// anything.
			if strings.HasPrefix(captureName, "_") ||
				strings.HasPrefix(captureName, captureLocal+".") ||
				strings.HasPrefix(captureName, "injection.") {
				continue
			}
			scope, ok := resolveScopeName(captureName)
			if !ok {
				return nil, &QueryCompileError{Language: languageName, Capture: captureName}
			}
			cfg.scopes[i] = &scope
		}
	}

	return cfg, nil
}
