/*
Package treelight turns tree-sitter parse trees into highlighted HTML.

The engine resolves the capture stream of s-expression highlight queries
into a flat, well-nested span stream and renders it with a pluggable theme.
Captures are matched against a closed vocabulary of highlight scopes (see
[Scope]); language injections such as script elements inside markup are
resolved recursively through an [InjectionCallback].

# Usage

Compile a [Configuration] per language from its grammar and query sources,
then run requests through a [Highlighter]:

	language := tree_sitter.NewLanguage(tree_sitter_go.Language())

	cfg, err := treelight.NewConfiguration(language, "go", highlightsQuery, nil, nil)
	if err != nil {
		log.Fatal(err)
	}

	highlighter := treelight.New()
	events, err := highlighter.Highlight(context.Background(), cfg, source, nil)
	if err != nil {
		log.Fatal(err)
	}

	err = treelight.Render(os.Stdout, events, source, theme.Default().Attributes)

A Configuration is immutable and safe to share; a Highlighter is not, so
concurrent requests each need their own. The theme and languages
subpackages provide TOML theme loading and a language registry that doubles
as the injection callback.
*/
package treelight
