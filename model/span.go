package model

import "strings"

// StyleFlags describes the typographic style of a span.
type StyleFlags struct {
	Bold      bool
	Italic    bool
	Mono      bool
	SmallCaps bool
}

// Span is the atomic text unit entering the pipeline. Spans are created
// once by the ingestion collaborator and never change; the only stage
// permitted to replace span text is line repair, which produces new spans.
type Span struct {
	// Text is the verbatim text content.
	Text string

	// BBox is the span's bounding box on its page.
	BBox BBox

	// FontName is the source font name (e.g. "Times-Bold").
	FontName string

	// FontSize is the font size in layout units.
	FontSize float64

	// Style holds the decoded style flags.
	Style StyleFlags

	// Page is the 1-based page number.
	Page int

	// OrderIndex is the global reading-order index. It is assigned once
	// at ingestion, strictly increasing across the whole document, and
	// never reassigned.
	OrderIndex int

	// LineID optionally groups spans that the producer already knows to
	// be on the same visual line. Zero means unset.
	LineID int
}

// IsBlank reports whether the span carries no visible text.
func (s Span) IsBlank() bool {
	return strings.TrimSpace(s.Text) == ""
}

// SpansInOrder reports whether the given spans have strictly increasing
// order indices. Every stage output must satisfy this invariant.
func SpansInOrder(spans []Span) bool {
	for i := 1; i < len(spans); i++ {
		if spans[i].OrderIndex <= spans[i-1].OrderIndex {
			return false
		}
	}
	return true
}

// SpanText joins span texts with single spaces, collapsing blanks.
func SpanText(spans []Span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		t := strings.TrimSpace(s.Text)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
