package docforge

import (
	"strings"
	"testing"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
	"github.com/tsawler/docforge/render"
)

func span(text string, page int, y, size float64, order int) model.Span {
	return model.Span{
		Text:       text,
		BBox:       model.NewBBox(50, y, float64(len(text))*size*0.5, size*1.2),
		FontName:   "Times-Roman",
		FontSize:   size,
		Page:       page,
		OrderIndex: order,
	}
}

func boldSpan(text string, page int, y, size float64, order int) model.Span {
	s := span(text, page, y, size, order)
	s.FontName = "Times-Bold"
	s.Style.Bold = true
	return s
}

// fixture builds a two-page document with a repeated header, a hyphen
// break, a cross-reference, a figure with a pattern caption, and a
// bottom-band footnote.
func fixture() Input {
	return Input{
		Title: "Sample Book",
		Spans: []model.Span{
			span("ACME Corp Confidential", 1, 20, 9, 0),
			boldSpan("Chapter 1 Introduction", 1, 150, 24, 1),
			span("A practical over-", 1, 200, 10, 2),
			span("view of the system.", 1, 214, 10, 3),
			span("Details follow in Chapter 2 shortly.", 1, 240, 10, 4),
			span("ACME Corp Confidential", 2, 20, 9, 5),
			boldSpan("Chapter 2 Methods", 2, 150, 24, 6),
			span("Methods are described here.", 2, 200, 10, 7),
			span("Figure 1: System overview", 2, 430, 9, 8),
			span("1. Data tables available on request.", 2, 690, 9, 9),
		},
		Pages: []model.PageGeometry{
			{Page: 1, Width: 612, Height: 792},
			{Page: 2, Width: 612, Height: 792},
		},
		Figures: []*model.Figure{
			{ID: "fig-001", Page: 2, BBox: model.NewBBox(50, 300, 200, 120)},
		},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	res, err := New().Run(fixture())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tree := res.Tree

	if len(tree.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(tree.Sections))
	}
	ch1, ch2 := tree.Sections[0], tree.Sections[1]
	if ch1.Title != "Chapter 1 Introduction" || ch2.Title != "Chapter 2 Methods" {
		t.Errorf("titles = %q, %q", ch1.Title, ch2.Title)
	}
	if ch1.Meta.ChapterNumber != 1 || ch2.Meta.ChapterNumber != 2 {
		t.Errorf("chapter numbers = %d, %d", ch1.Meta.ChapterNumber, ch2.Meta.ChapterNumber)
	}
	if ch1.Slug != "000-chapter-1-introduction" || ch2.Slug != "001-chapter-2-methods" {
		t.Errorf("slugs = %q, %q", ch1.Slug, ch2.Slug)
	}

	// The repeated header is removed; everything else is retained.
	if len(res.Removed) != 2 {
		t.Fatalf("removed = %d spans, want 2", len(res.Removed))
	}
	for _, s := range res.Removed {
		if s.Text != "ACME Corp Confidential" {
			t.Errorf("removed span %q", s.Text)
		}
	}

	// Hyphenation repair rejoined the wrapped word.
	if len(ch1.Blocks) == 0 || !containsText(ch1.Blocks, "overview") {
		t.Error("hyphen-broken word not repaired")
	}

	fig := tree.FigureByID("fig-001")
	if fig == nil {
		t.Fatal("figure missing from registry")
	}
	if fig.Caption != "System overview" || fig.CaptionSource != model.CaptionSourcePattern {
		t.Errorf("caption = %q source %q", fig.Caption, fig.CaptionSource)
	}
	if fig.Slug != "fig-001" {
		t.Errorf("figure slug = %q", fig.Slug)
	}

	var chapterRef *model.CrossReference
	for i := range tree.CrossRefs {
		if tree.CrossRefs[i].TargetKey == "chapter:2" {
			chapterRef = &tree.CrossRefs[i]
		}
	}
	if chapterRef == nil {
		t.Fatal("chapter reference not recorded")
	}
	if !chapterRef.Resolved || chapterRef.TargetSlug != "001-chapter-2-methods" {
		t.Errorf("chapter ref = %+v", chapterRef)
	}

	if len(tree.Footnotes) != 1 {
		t.Fatalf("footnotes = %d, want 1", len(tree.Footnotes))
	}
	if fn := tree.Footnotes[0]; fn.Marker != "1" || fn.Linked {
		t.Errorf("footnote = %+v", fn)
	}

	if res.Manifest["structural_hash"] != res.StructuralHash {
		t.Error("manifest hash differs from result hash")
	}
	if len(res.StructuralHash) != len("sha256:")+64 {
		t.Errorf("structural hash = %q", res.StructuralHash)
	}
}

func containsText(blocks []*model.Block, substr string) bool {
	for _, b := range blocks {
		if strings.Contains(b.Text(), substr) {
			return true
		}
	}
	return false
}

func TestPipelineDeterminism(t *testing.T) {
	first, err := New().Run(fixture())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := New().Run(fixture())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.StructuralHash != second.StructuralHash {
		t.Errorf("structural hashes differ: %s vs %s",
			first.StructuralHash, second.StructuralHash)
	}
	if first.SemanticHash != second.SemanticHash {
		t.Errorf("semantic hashes differ: %s vs %s",
			first.SemanticHash, second.SemanticHash)
	}

	a, b := first.Tree.PreOrder(), second.Tree.PreOrder()
	if len(a) != len(b) {
		t.Fatalf("section counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Slug != b[i].Slug {
			t.Errorf("slug %d differs: %q vs %q", i, a[i].Slug, b[i].Slug)
		}
	}
}

func TestPipelineInvalidOptionsIsConfigError(t *testing.T) {
	opts := DefaultOptions()
	opts.Captions.Weights.Pattern = 0.9

	_, err := NewWithOptions(opts, nil).Run(fixture())
	if err == nil {
		t.Fatal("expected weight validation error")
	}
	if fault.CategoryOf(err) != fault.Config {
		t.Errorf("category = %v, want Config", fault.CategoryOf(err))
	}
}

func TestPipelineRenderedCorpusVerifies(t *testing.T) {
	p := New()
	res, err := p.Run(fixture())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := p.Render(res.Tree)
	for _, name := range []string{"index.md", "000-chapter-1-introduction.md", "001-chapter-2-methods.md"} {
		if _, ok := files[name]; !ok {
			t.Errorf("file %s missing", name)
		}
	}
	if err := render.Verify(files); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
