package treelight

import (
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	escapeAmpersand   = []byte("&amp;")
	escapeSingle      = []byte("&#39;")
	escapeLessThan    = []byte("&lt;")
	escapeGreaterThan = []byte("&gt;")
	escapeDouble      = []byte("&#34;")

	lineOpenTag  = []byte(`<span class="line">`)
	spanCloseTag = []byte("</span>")
)

// AttributeCallback returns the attributes for a highlight span's opening
// tag, e.g. `class="hl-keyword"` or an inline style. A nil callback or an
// empty return produces a bare <span>.
type AttributeCallback func(s Scope) []byte

// Render writes the event stream as an HTML fragment: entity-escaped
// source text interleaved with <span> highlight tags, every logical line
// wrapped in <span class="line">. Highlight tags are closed before each
// newline and reopened on the next line so spans never cross line
// elements. The events must come from [BuildEvents] over the same source.
// A write error aborts rendering; output already on the sink is undefined.
func Render(w io.Writer, events []Event, source []byte, attrs AttributeCallback) error {
	r := htmlWriter{w: w, attrs: attrs}
	for _, event := range events {
		var err error
		switch e := event.(type) {
		case EventHighlightStart:
			err = r.startHighlight(e.Scope)
		case EventHighlightEnd:
			err = r.endHighlight()
		case EventSource:
			err = r.text(source[e.StartByte:e.EndByte])
		}
		if err != nil {
			return fmt.Errorf("error while rendering: %w", err)
		}
	}
	if err := r.finish(); err != nil {
		return fmt.Errorf("error while rendering: %w", err)
	}
	return nil
}

// RenderDocument wraps Render's fragment in the <pre><code> frame used for
// standalone embedding, recording the language on the pre element.
func RenderDocument(w io.Writer, events []Event, source []byte, languageName string, attrs AttributeCallback) error {
	if _, err := fmt.Fprintf(w, `<pre class="language-%s"><code>`, languageName); err != nil {
		return err
	}
	if err := Render(w, events, source, attrs); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</code></pre>")
	return err
}

// htmlWriter tracks renderer state for one request: the stack of open
// scopes and whether a line element is open.
type htmlWriter struct {
	w      io.Writer
	attrs  AttributeCallback
	open   []Scope
	inLine bool
}

// ensureLine opens the line element and reopens any highlight spans carried
// over from the previous line.
func (r *htmlWriter) ensureLine() error {
	if r.inLine {
		return nil
	}
	if _, err := r.w.Write(lineOpenTag); err != nil {
		return err
	}
	r.inLine = true
	for _, s := range r.open {
		if err := r.openTag(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *htmlWriter) openTag(s Scope) error {
	if _, err := io.WriteString(r.w, "<span"); err != nil {
		return err
	}

	var attributes []byte
	if r.attrs != nil {
		attributes = r.attrs(s)
	}
	if len(attributes) > 0 {
		if _, err := io.WriteString(r.w, " "); err != nil {
			return err
		}
		if _, err := r.w.Write(attributes); err != nil {
			return err
		}
	}

	_, err := io.WriteString(r.w, ">")
	return err
}

func (r *htmlWriter) startHighlight(s Scope) error {
	if err := r.ensureLine(); err != nil {
		return err
	}
	r.open = append(r.open, s)
	return r.openTag(s)
}

func (r *htmlWriter) endHighlight() error {
	r.open = r.open[:len(r.open)-1]
	if !r.inLine {
		// The tag was closed at the newline and never reopened.
		return nil
	}
	_, err := r.w.Write(spanCloseTag)
	return err
}

func (r *htmlWriter) text(text []byte) error {
	for len(text) > 0 {
		c, size := utf8.DecodeRune(text)
		text = text[size:]

		if (c == utf8.RuneError && size == 1) || c == '\r' {
			continue
		}

		if c == '\n' {
			if err := r.ensureLine(); err != nil {
				return err
			}
			for range r.open {
				if _, err := r.w.Write(spanCloseTag); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(r.w, "\n"); err != nil {
				return err
			}
			if _, err := r.w.Write(spanCloseTag); err != nil {
				return err
			}
			r.inLine = false
			continue
		}

		if err := r.ensureLine(); err != nil {
			return err
		}

		var b []byte
		switch c {
		case '&':
			b = escapeAmpersand
		case '\'':
			b = escapeSingle
		case '<':
			b = escapeLessThan
		case '>':
			b = escapeGreaterThan
		case '"':
			b = escapeDouble
		default:
			var buf [utf8.UTFMax]byte
			b = buf[:utf8.EncodeRune(buf[:], c)]
		}
		if _, err := r.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// finish closes the trailing line element when the source does not end with
// a newline.
func (r *htmlWriter) finish() error {
	if !r.inLine {
		return nil
	}
	for range r.open {
		if _, err := r.w.Write(spanCloseTag); err != nil {
			return err
		}
	}
	r.inLine = false
	_, err := r.w.Write(spanCloseTag)
	return err
}
