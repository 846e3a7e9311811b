// Package ingest produces the span stream the pipeline consumes. Each
// loader converts one source format (PDF, HTML, DOCX) into page-positioned
// spans with strictly increasing order indices, page geometry, and figure
// regions, normalized to a top-left origin with Y increasing downward.
package ingest

import (
	"fmt"
	"strings"

	"github.com/tsawler/docforge/model"
)

// Result is the ingestion output handed to the pipeline.
type Result struct {
	// Title is the best available document title, may be empty.
	Title string

	// Spans is the ordered span stream, order indices strictly increasing.
	Spans []model.Span

	// Pages is the page geometry for every page spans appear on.
	Pages []model.PageGeometry

	// Figures are the detected image regions in appearance order.
	Figures []*model.Figure
}

// accumulator assigns strictly increasing order indices as spans arrive.
type accumulator struct {
	spans []model.Span
	next  int
}

func (a *accumulator) add(s model.Span) {
	if strings.TrimSpace(s.Text) == "" {
		return
	}
	s.OrderIndex = a.next
	a.next++
	a.spans = append(a.spans, s)
}

// figureID formats the stable id for the n-th figure (1-based).
func figureID(n int) string {
	return fmt.Sprintf("fig-%03d", n)
}

// styleFromFontName infers style flags from a font name.
func styleFromFontName(name string) model.StyleFlags {
	lower := strings.ToLower(name)
	return model.StyleFlags{
		Bold:   strings.Contains(lower, "bold"),
		Italic: strings.Contains(lower, "italic") || strings.Contains(lower, "oblique"),
		Mono:   strings.Contains(lower, "mono") || strings.Contains(lower, "courier"),
	}
}
