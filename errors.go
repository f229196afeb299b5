package treelight

import "fmt"

// QueryCompileError reports a query that failed to compile, either because
// a pattern is malformed or because a capture name does not resolve into
// the highlight vocabulary. It is returned by [NewConfiguration] before any
// matching begins; a configuration that compiled does not fail later for
// query reasons.
type QueryCompileError struct {
	Language string
	Capture  string // offending capture name, if any
	Err      error  // underlying query parse error, if any
}

func (e *QueryCompileError) Error() string {
	if e.Capture != "" {
		return fmt.Sprintf("%s: capture %q is not in the highlight vocabulary", e.Language, e.Capture)
	}
	return fmt.Sprintf("%s: error creating query: %v", e.Language, e.Err)
}

func (e *QueryCompileError) Unwrap() error {
	return e.Err
}
