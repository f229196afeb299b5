package treelight

import (
	"cmp"
	"slices"
)

// Capture is a single raw query match: a byte range bound to one scope.
// Captures from different patterns may overlap arbitrarily; [BuildEvents]
// resolves them into well-nested spans. Pattern is the index of the query
// pattern that produced the capture and Depth the injection layer depth;
// both serve only as ordering tie-breaks.
type Capture struct {
	StartByte uint
	EndByte   uint
	Scope     Scope
	Pattern   uint
	Depth     uint
}

// compareCaptures orders captures so that sweeping them left to right
// yields well-nested spans: earlier starts first, then longer ranges, then
// deeper injection layers, then earlier-declared patterns. For captures
// with identical ranges the earlier one becomes the outer span.
func compareCaptures(a, b Capture) int {
	if c := cmp.Compare(a.StartByte, b.StartByte); c != 0 {
		return c
	}
	if c := cmp.Compare(b.EndByte, a.EndByte); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Depth, a.Depth); c != 0 {
		return c
	}
	return cmp.Compare(a.Pattern, b.Pattern)
}

// BuildEvents resolves an unordered set of possibly overlapping captures
// into a flat event stream whose source events exactly cover [0, sourceLen)
// with no gaps or duplication. Any two spans in the result are disjoint or
// strictly nested. A capture that partially overlaps an open span is
// truncated at that span's end instead of being rejected; zero-width
// captures are dropped. The input slice is not modified.
func BuildEvents(captures []Capture, sourceLen uint) []Event {
	sorted := make([]Capture, 0, len(captures))
	for _, c := range captures {
		if c.EndByte <= c.StartByte || c.StartByte >= sourceLen {
			continue
		}
		if c.EndByte > sourceLen {
			c.EndByte = sourceLen
		}
		sorted = append(sorted, c)
	}
	slices.SortStableFunc(sorted, compareCaptures)

	var (
		events []Event
		open   []uint // end offsets of open spans, innermost last
		offset uint
	)
	emitSource := func(end uint) {
		if offset < end {
			events = append(events, EventSource{StartByte: offset, EndByte: end})
			offset = end
		}
	}

	for _, c := range sorted {
		// Close every open span that ends at or before this capture.
		for len(open) > 0 && open[len(open)-1] <= c.StartByte {
			emitSource(open[len(open)-1])
			open = open[:len(open)-1]
			events = append(events, EventHighlightEnd{})
		}

		// A capture reaching past the innermost open span would partially
		// overlap it; cut the capture at the span boundary.
		if len(open) > 0 && c.EndByte > open[len(open)-1] {
			c.EndByte = open[len(open)-1]
		}

		emitSource(c.StartByte)
		events = append(events, EventHighlightStart{Scope: c.Scope})
		open = append(open, c.EndByte)
	}

	for len(open) > 0 {
		emitSource(open[len(open)-1])
		open = open[:len(open)-1]
		events = append(events, EventHighlightEnd{})
	}
	emitSource(sourceLen)

	return events
}
