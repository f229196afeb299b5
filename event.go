package treelight

// Event is one element of the flat highlight stream produced by
// [BuildEvents]. Possible implementations are:
// - [EventSource]
// - [EventHighlightStart]
// - [EventHighlightEnd]
//
// Concatenating the ranges of all source events in a stream reproduces the
// input exactly, and start/end events are balanced and well-nested.
type Event interface {
	highlightEvent()
}

// EventSource emits the raw source bytes in [StartByte, EndByte).
type EventSource struct {
	StartByte uint
	EndByte   uint
}

func (EventSource) highlightEvent() {}

// EventHighlightStart opens a highlight span.
type EventHighlightStart struct {
	// Scope is the highlight scope of the span.
	Scope Scope
}

func (EventHighlightStart) highlightEvent() {}

// EventHighlightEnd closes the most recently opened highlight span.
type EventHighlightEnd struct{}

func (EventHighlightEnd) highlightEvent() {}
