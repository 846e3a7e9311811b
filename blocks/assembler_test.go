package blocks

import (
	"testing"

	"github.com/tsawler/docforge/model"
)

func makeSpan(text string, x, y float64, page, order int) model.Span {
	return spanAt(text, x, y, 200, 10, "Times-Roman", model.StyleFlags{}, page, order)
}

func spanAt(text string, x, y, w, size float64, font string, style model.StyleFlags, page, order int) model.Span {
	return model.Span{
		Text:       text,
		BBox:       model.NewBBox(x, y, w, size*1.2),
		FontName:   font,
		FontSize:   size,
		Style:      style,
		Page:       page,
		OrderIndex: order,
	}
}

func makePages(n int) []model.PageGeometry {
	pages := make([]model.PageGeometry, n)
	for i := range pages {
		pages[i] = model.PageGeometry{Page: i + 1, Width: 600, Height: 800}
	}
	return pages
}

func blockTypes(blocks []*model.Block) []model.BlockType {
	types := make([]model.BlockType, len(blocks))
	for i, b := range blocks {
		types[i] = b.Type
	}
	return types
}

func TestParagraphSplitOnGap(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("first paragraph line one", 50, 100, 1, 0),
		makeSpan("first paragraph line two", 50, 114, 1, 1),
		makeSpan("second paragraph starts here", 50, 160, 1, 2),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks (%v), want 2 paragraphs", len(blocks), blockTypes(blocks))
	}
	for _, b := range blocks {
		if b.Type != model.BlockParagraph {
			t.Errorf("block type = %v, want Paragraph", b.Type)
		}
	}
	if got := blocks[0].Text(); got != "first paragraph line one first paragraph line two" {
		t.Errorf("paragraph text = %q", got)
	}
}

func TestListNesting(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("body text before the list", 50, 80, 1, 0),
		makeSpan("• first item", 50, 120, 1, 1),
		makeSpan("• second item", 50, 134, 1, 2),
		makeSpan("1. nested ordered item", 70, 148, 1, 3),
		makeSpan("• third item", 50, 162, 1, 4),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks (%v), want paragraph + list", len(blocks), blockTypes(blocks))
	}
	list := blocks[1]
	if list.Type != model.BlockList {
		t.Fatalf("second block type = %v, want List", list.Type)
	}
	if len(list.Items) != 3 {
		t.Fatalf("got %d top-level items, want 3", len(list.Items))
	}
	second := list.Items[1]
	if len(second.Items) != 1 || second.Items[0].Type != model.BlockList {
		t.Fatalf("second item should hold one nested list, got %+v", second.Items)
	}
	nested := second.Items[0]
	if ordered, _ := nested.Meta[model.MetaListOrdered].(bool); !ordered {
		t.Error("nested list should be ordered")
	}
	if len(nested.Items) != 1 || nested.Items[0].Text() != "1. nested ordered item" {
		t.Errorf("nested items = %+v", nested.Items)
	}
}

func TestListItemContinuationLine(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("• an item whose text wraps", 50, 100, 1, 0),
		makeSpan("onto a second line", 52, 114, 1, 1),
		makeSpan("• next item", 50, 128, 1, 2),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 1 || blocks[0].Type != model.BlockList {
		t.Fatalf("got %v, want a single List", blockTypes(blocks))
	}
	items := blocks[0].Items
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if got := items[0].Text(); got != "• an item whose text wraps onto a second line" {
		t.Errorf("wrapped item text = %q", got)
	}
}

func TestCodeBlockFromMonospacedRun(t *testing.T) {
	a := NewAssembler()

	mono := model.StyleFlags{Mono: true}
	spans := []model.Span{
		makeSpan("introductory paragraph text", 50, 80, 1, 0),
		spanAt("func main() {", 50, 120, 200, 10, "Courier", mono, 1, 1),
		spanAt("fmt.Println(42)", 70, 134, 200, 10, "Courier", mono, 1, 2),
		spanAt("}", 50, 148, 200, 10, "Courier", mono, 1, 3),
		makeSpan("closing paragraph text", 50, 190, 1, 4),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks (%v), want para/code/para", len(blocks), blockTypes(blocks))
	}
	code := blocks[1]
	if code.Type != model.BlockCode {
		t.Fatalf("middle block type = %v, want CodeBlock", code.Type)
	}
	lines, ok := code.Meta[model.MetaCodeLines].([]string)
	if !ok || len(lines) != 3 {
		t.Fatalf("code lines = %v", code.Meta[model.MetaCodeLines])
	}
	// Second line sits 20 points right of the block edge: four spaces at
	// half the 10pt font size.
	if lines[1] != "    fmt.Println(42)" {
		t.Errorf("indented line = %q", lines[1])
	}
	if lang, _ := code.Meta[model.MetaCodeLanguage].(string); lang != "go" {
		t.Errorf("language = %q, want go", lang)
	}
}

func TestShortMonospacedRunStaysParagraph(t *testing.T) {
	a := NewAssembler()

	mono := model.StyleFlags{Mono: true}
	spans := []model.Span{
		spanAt("ls -la", 50, 100, 60, 10, "Courier", mono, 1, 0),
		spanAt("cd /tmp", 50, 114, 60, 10, "Courier", mono, 1, 1),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	for _, b := range blocks {
		if b.Type == model.BlockCode {
			t.Fatal("two-line run promoted to CodeBlock below the minimum")
		}
	}
}

func TestTableDetection(t *testing.T) {
	a := NewAssembler()

	var spans []model.Span
	order := 0
	for row := 0; row < 3; row++ {
		y := 100 + float64(row)*14
		spans = append(spans, spanAt("name", 50, y, 60, 10, "Times-Roman", model.StyleFlags{}, 1, order))
		order++
		spans = append(spans, spanAt("value", 200, y, 60, 10, "Times-Roman", model.StyleFlags{}, 1, order))
		order++
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 1 || blocks[0].Type != model.BlockTable {
		t.Fatalf("got %v, want a single Table", blockTypes(blocks))
	}
	table := blocks[0]
	grid, ok := table.Meta[model.MetaTableRows].([][]string)
	if !ok || len(grid) != 3 || len(grid[0]) != 2 {
		t.Fatalf("grid = %v", table.Meta[model.MetaTableRows])
	}
	conf, _ := table.Meta[model.MetaTableConfidence].(float64)
	if conf != 1.0 {
		t.Errorf("confidence = %v, want 1.0", conf)
	}
}

func TestTableInconsistentRowsCapConfidence(t *testing.T) {
	a := NewAssembler()

	var spans []model.Span
	order := 0
	addRow := func(y float64, cells int) {
		xs := []float64{50, 200, 350}
		for i := 0; i < cells; i++ {
			spans = append(spans, spanAt("cell", xs[i], y, 60, 10, "Times-Roman", model.StyleFlags{}, 1, order))
			order++
		}
	}
	addRow(100, 2)
	addRow(114, 2)
	addRow(128, 2)
	addRow(142, 3)
	addRow(156, 3)

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 1 || blocks[0].Type != model.BlockTable {
		t.Fatalf("got %v, want a single Table", blockTypes(blocks))
	}
	conf, _ := blocks[0].Meta[model.MetaTableConfidence].(float64)
	if conf >= 0.5 {
		t.Errorf("confidence = %v, want < 0.5 for 40%% inconsistent rows", conf)
	}
}

func TestCalloutLabel(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("Warning: do not feed the parser after midnight.", 50, 100, 1, 0),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 1 || blocks[0].Type != model.BlockCallout {
		t.Fatalf("got %v, want a single Callout", blockTypes(blocks))
	}
	if label, _ := blocks[0].Meta[model.MetaLabel].(string); label != "Warning" {
		t.Errorf("label = %q, want Warning", label)
	}
}

func TestHeadingCandidateNeedsSecondSignal(t *testing.T) {
	a := NewAssembler()

	bold := model.StyleFlags{Bold: true}
	spans := []model.Span{
		makeSpan("this body paragraph establishes the running text size", 50, 80, 1, 0),
		spanAt("Chapter 1 Getting Started", 50, 120, 300, 18, "Times-Bold", bold, 1, 1),
		makeSpan("more body text follows the chapter heading here", 50, 160, 1, 2),
		spanAt("just big text without any weight", 50, 200, 300, 18, "Times-Roman", model.StyleFlags{}, 1, 3),
		makeSpan("and a final body paragraph to close the page", 50, 240, 1, 4),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 5 {
		t.Fatalf("got %d blocks (%v)", len(blocks), blockTypes(blocks))
	}
	if blocks[1].Type != model.BlockHeadingCandidate {
		t.Errorf("bold oversized line type = %v, want HeadingCandidate", blocks[1].Type)
	}
	if blocks[3].Type != model.BlockParagraph {
		t.Errorf("size-only line type = %v, want Paragraph (no second signal)", blocks[3].Type)
	}
}

func TestFootnoteBandDetection(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("body paragraph above the footnote band", 50, 400, 1, 0),
		makeSpan("1. See the appendix for details.", 50, 750, 1, 1),
		makeSpan("It spans two lines.", 50, 764, 1, 2),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks (%v)", len(blocks), blockTypes(blocks))
	}
	fn := blocks[1]
	if fn.Type != model.BlockFootnotePlaceholder {
		t.Fatalf("bottom-band block type = %v, want FootnotePlaceholder", fn.Type)
	}
	if num, _ := fn.Meta[model.MetaFootnoteNumber].(string); num != "1" {
		t.Errorf("footnote number = %q, want 1", num)
	}
}

func TestFigurePlaceholderPosition(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("text above the figure", 50, 100, 1, 0),
		makeSpan("text below the figure", 50, 300, 1, 1),
	}
	figures := []*model.Figure{
		{ID: "fig-001", Page: 1, BBox: model.NewBBox(100, 150, 300, 100)},
	}

	blocks := a.Assemble(spans, makePages(1), figures)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks (%v)", len(blocks), blockTypes(blocks))
	}
	if blocks[1].Type != model.BlockFigurePlaceholder {
		t.Fatalf("middle block type = %v, want FigurePlaceholder", blocks[1].Type)
	}
	if id, _ := blocks[1].Meta[model.MetaFigureID].(string); id != "fig-001" {
		t.Errorf("figure id = %q", id)
	}
}

func TestSpanOrderPreservedAcrossBlocks(t *testing.T) {
	a := NewAssembler()

	spans := []model.Span{
		makeSpan("alpha", 50, 100, 1, 0),
		makeSpan("beta", 50, 160, 1, 1),
		makeSpan("• gamma", 50, 220, 1, 2),
		makeSpan("delta", 50, 280, 1, 3),
	}

	blocks := a.Assemble(spans, makePages(1), nil)
	last := -1
	var walk func(b *model.Block)
	walk = func(b *model.Block) {
		for _, s := range b.Spans {
			if s.OrderIndex <= last {
				t.Fatalf("order index %d out of sequence", s.OrderIndex)
			}
			last = s.OrderIndex
		}
		for _, item := range b.Items {
			walk(item)
		}
	}
	for _, b := range blocks {
		walk(b)
	}
	if last != 3 {
		t.Errorf("final order index = %d, want 3 (span dropped)", last)
	}
}
