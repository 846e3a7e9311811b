// Package blocks groups the repaired span stream into typed content blocks:
// paragraphs, lists, code blocks, tables, callouts, footnote and figure
// placeholders, and heading candidates. Assembly never reorders or drops a
// retained span.
package blocks

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/tsawler/docforge/model"
)

// Config holds configuration for block assembly.
type Config struct {
	// LineTolerance is the maximum Y-center difference for two spans to
	// share a visual line.
	// Default: 3 points
	LineTolerance float64

	// ParagraphGap is the vertical gap that starts a new block.
	// Default: 9 points
	ParagraphGap float64

	// ListIndentTolerance is the indentation delta that keeps a list
	// item at the same nesting level.
	// Default: 6 points
	ListIndentTolerance float64

	// CodeMinLines is the minimum number of consecutive code-looking
	// lines to form a code block.
	// Default: 3
	CodeMinLines int

	// CodeIndentThreshold is the uniform leading indent (relative to the
	// body left margin) that marks a line as code.
	// Default: 18 points
	CodeIndentThreshold float64

	// InlineCodeMaxRunes is the maximum length of a monospaced span
	// tagged as inline code inside a paragraph.
	// Default: 40
	InlineCodeMaxRunes int

	// CalloutLabels are the leading label tokens that turn a paragraph
	// into a callout.
	// Default: Note, Tip, Warning
	CalloutLabels []string

	// TableMinRows is the minimum number of consecutive multi-column
	// lines to attempt table detection.
	// Default: 2
	TableMinRows int

	// TableCellGap is the minimum horizontal gap separating two cells on
	// the same line.
	// Default: 12 points
	TableCellGap float64

	// TableColumnTolerance is the X alignment tolerance for bucketing
	// cells into columns.
	// Default: 10 points
	TableColumnTolerance float64

	// HeadingMaxRunes is the maximum title length for heading candidacy.
	// Default: 180
	HeadingMaxRunes int

	// HeadingSizeRatio is the minimum dominant-size ratio over the body
	// font for heading candidacy when the block is not a strict local
	// maximum.
	// Default: 1.05
	HeadingSizeRatio float64

	// FootnoteBandRatio is the fraction of the page height from the
	// bottom searched for footnote text blocks.
	// Default: 0.15
	FootnoteBandRatio float64
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		LineTolerance:        3.0,
		ParagraphGap:         9.0,
		ListIndentTolerance:  6.0,
		CodeMinLines:         3,
		CodeIndentThreshold:  18.0,
		InlineCodeMaxRunes:   40,
		CalloutLabels:        []string{"Note", "Tip", "Warning"},
		TableMinRows:         2,
		TableCellGap:         12.0,
		TableColumnTolerance: 10.0,
		HeadingMaxRunes:      180,
		HeadingSizeRatio:     1.05,
		FootnoteBandRatio:    0.15,
	}
}

// Assembler groups spans into typed blocks.
type Assembler struct {
	config Config
	log    *slog.Logger
}

// NewAssembler creates an assembler with default configuration.
func NewAssembler() *Assembler {
	return NewAssemblerWithConfig(DefaultConfig(), nil)
}

// NewAssemblerWithConfig creates an assembler with custom configuration.
func NewAssemblerWithConfig(config Config, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{config: config, log: log}
}

// line is a visual line of spans, the unit the assembler reasons over.
type line struct {
	spans    []model.Span
	page     int
	bbox     model.BBox
	text     string
	indent   float64
	fontSize float64
	mono     bool
	blank    bool
	kind     lineKind
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineNormal
	lineListItem
	lineCode
	lineTableRow
	lineFootnote
)

// Assemble groups spans into ordered blocks. Figures (supplied by the
// ingestion collaborator) become FigurePlaceholder blocks positioned by
// page and vertical position. Page geometry locates footnote bands.
func (a *Assembler) Assemble(spans []model.Span, pages []model.PageGeometry, figures []*model.Figure) []*model.Block {
	lines := a.buildLines(spans)
	a.classifyLines(lines, pages)

	blocks := a.groupLines(lines)
	blocks = a.insertFigurePlaceholders(blocks, figures)

	a.tagCallouts(blocks)
	a.tagInlineCode(blocks)
	a.tagHeadingCandidates(blocks)

	return blocks
}

// buildLines groups consecutive spans into visual lines by page and
// Y-center proximity, preserving order.
func (a *Assembler) buildLines(spans []model.Span) []*line {
	var lines []*line
	var cur *line

	for _, s := range spans {
		if cur != nil && s.Page == cur.page && sameLine(cur.spans[len(cur.spans)-1], s, a.config.LineTolerance) {
			cur.spans = append(cur.spans, s)
			cur.bbox = cur.bbox.Union(s.BBox)
			continue
		}
		if cur != nil {
			lines = append(lines, cur)
		}
		cur = &line{spans: []model.Span{s}, page: s.Page, bbox: s.BBox}
	}
	if cur != nil {
		lines = append(lines, cur)
	}

	for _, ln := range lines {
		finishLine(ln)
	}
	return lines
}

func sameLine(prev, next model.Span, tolerance float64) bool {
	if prev.LineID != 0 && prev.LineID == next.LineID {
		return true
	}
	return math.Abs(prev.BBox.Center().Y-next.BBox.Center().Y) <= tolerance
}

func finishLine(ln *line) {
	ln.indent = ln.spans[0].BBox.X
	for _, s := range ln.spans {
		if s.BBox.X < ln.indent {
			ln.indent = s.BBox.X
		}
	}
	ln.text = model.SpanText(ln.spans)
	ln.blank = strings.TrimSpace(ln.text) == ""
	ln.mono = !ln.blank && allMono(ln.spans)
	ln.fontSize = dominantSize(ln.spans)
}

func allMono(spans []model.Span) bool {
	seen := false
	for _, s := range spans {
		if s.IsBlank() {
			continue
		}
		seen = true
		if !isMonoSpan(s) {
			return false
		}
	}
	return seen
}

func isMonoSpan(s model.Span) bool {
	if s.Style.Mono {
		return true
	}
	name := strings.ToLower(s.FontName)
	return strings.Contains(name, "mono") ||
		strings.Contains(name, "courier") ||
		strings.Contains(name, "consolas")
}

func dominantSize(spans []model.Span) float64 {
	weights := make(map[float64]int)
	for _, s := range spans {
		weights[s.FontSize] += len([]rune(s.Text))
	}
	var best float64
	bestWeight := -1
	for size, w := range weights {
		if w > bestWeight || (w == bestWeight && size > best) {
			best = size
			bestWeight = w
		}
	}
	return best
}

// classifyLines assigns a preliminary kind to every line.
func (a *Assembler) classifyLines(lines []*line, pages []model.PageGeometry) {
	geometry := make(map[int]model.PageGeometry, len(pages))
	for _, p := range pages {
		geometry[p.Page] = p
	}
	leftMargin := bodyLeftMargin(lines)

	prevKind := lineBlank
	for _, ln := range lines {
		switch {
		case ln.blank:
			ln.kind = lineBlank
		case a.isFootnoteLine(ln, geometry, prevKind):
			ln.kind = lineFootnote
		case parseListMarker(ln.text) != nil:
			ln.kind = lineListItem
		case ln.mono || ln.indent-leftMargin >= a.config.CodeIndentThreshold:
			ln.kind = lineCode
		case a.isTableRow(ln):
			ln.kind = lineTableRow
		default:
			ln.kind = lineNormal
		}
		prevKind = ln.kind
	}
}

// bodyLeftMargin estimates the body text left margin as the most common
// line indent (bucketed to whole points).
func bodyLeftMargin(lines []*line) float64 {
	counts := make(map[int]int)
	for _, ln := range lines {
		if ln.blank {
			continue
		}
		counts[int(ln.indent)]++
	}
	best, bestCount := 0, -1
	for indent, count := range counts {
		if count > bestCount || (count == bestCount && indent < best) {
			best = indent
			bestCount = count
		}
	}
	return float64(best)
}

// isFootnoteLine reports whether a line opens a footnote (a numbered line
// in the bottom band) or continues one (any band line directly after a
// footnote line).
func (a *Assembler) isFootnoteLine(ln *line, geometry map[int]model.PageGeometry, prevKind lineKind) bool {
	geo, ok := geometry[ln.page]
	if !ok || geo.Height <= 0 {
		return false
	}
	bandTop := geo.Height * (1 - a.config.FootnoteBandRatio)
	if ln.bbox.Top() < bandTop {
		return false
	}
	return footnoteStartRe.MatchString(ln.text) || prevKind == lineFootnote
}

// groupLines runs the grouping state machine over classified lines.
func (a *Assembler) groupLines(lines []*line) []*model.Block {
	var blocks []*model.Block
	var para []*line

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		blocks = append(blocks, newBlockFromLines(model.BlockParagraph, para))
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		ln := lines[i]

		switch ln.kind {
		case lineBlank:
			flushPara()
			blocks = append(blocks, newBlockFromLines(model.BlockEmptyLine, []*line{ln}))

		case lineFootnote:
			flushPara()
			group := []*line{ln}
			for i+1 < len(lines) && lines[i+1].kind == lineFootnote && lines[i+1].page == ln.page {
				i++
				group = append(group, lines[i])
			}
			b := newBlockFromLines(model.BlockFootnotePlaceholder, group)
			if m := footnoteStartRe.FindStringSubmatch(ln.text); m != nil {
				b.Meta[model.MetaFootnoteNumber] = m[1]
			}
			blocks = append(blocks, b)

		case lineListItem:
			flushPara()
			listBlock, consumed := a.assembleList(lines[i:])
			blocks = append(blocks, listBlock)
			i += consumed - 1

		case lineCode:
			run := codeRunLength(lines[i:])
			if run >= a.config.CodeMinLines {
				flushPara()
				blocks = append(blocks, a.assembleCode(lines[i:i+run]))
				i += run - 1
				continue
			}
			// Short run: treat as ordinary paragraph text.
			para = a.appendParaLine(&blocks, para, ln)

		case lineTableRow:
			run := tableRunLength(lines[i:])
			if run >= a.config.TableMinRows {
				flushPara()
				blocks = append(blocks, a.assembleTable(lines[i:i+run]))
				i += run - 1
				continue
			}
			para = a.appendParaLine(&blocks, para, ln)

		default:
			para = a.appendParaLine(&blocks, para, ln)
		}
	}
	flushPara()

	return blocks
}

// appendParaLine continues the open paragraph or starts a new one when the
// vertical gap is large enough, flushing the previous accumulation.
func (a *Assembler) appendParaLine(blocks *[]*model.Block, para []*line, ln *line) []*line {
	if len(para) > 0 {
		prev := para[len(para)-1]
		if prev.page != ln.page || prev.bbox.VerticalGap(ln.bbox) > a.config.ParagraphGap {
			*blocks = append(*blocks, newBlockFromLines(model.BlockParagraph, para))
			para = nil
		}
	}
	return append(para, ln)
}

func codeRunLength(lines []*line) int {
	n := 0
	for _, ln := range lines {
		if ln.kind != lineCode {
			break
		}
		n++
	}
	return n
}

func tableRunLength(lines []*line) int {
	n := 0
	for _, ln := range lines {
		if ln.kind != lineTableRow {
			break
		}
		n++
	}
	return n
}

func newBlockFromLines(t model.BlockType, lines []*line) *model.Block {
	b := model.NewBlock(t)
	for _, ln := range lines {
		for _, s := range ln.spans {
			_ = b.AppendSpan(s)
		}
	}
	return b
}

// insertFigurePlaceholders merges FigurePlaceholder blocks into the block
// sequence, ordered by page then vertical position.
func (a *Assembler) insertFigurePlaceholders(blocks []*model.Block, figures []*model.Figure) []*model.Block {
	if len(figures) == 0 {
		return blocks
	}

	ordered := make([]*model.Figure, len(figures))
	copy(ordered, figures)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Page != ordered[j].Page {
			return ordered[i].Page < ordered[j].Page
		}
		return ordered[i].BBox.Top() < ordered[j].BBox.Top()
	})

	out := make([]*model.Block, 0, len(blocks)+len(ordered))
	fi := 0
	for _, b := range blocks {
		page, _ := b.PageSpan()
		for fi < len(ordered) && beforeBlock(ordered[fi], page, b) {
			out = append(out, placeholderFor(ordered[fi]))
			fi++
		}
		out = append(out, b)
	}
	for ; fi < len(ordered); fi++ {
		out = append(out, placeholderFor(ordered[fi]))
	}
	return out
}

func beforeBlock(f *model.Figure, page int, b *model.Block) bool {
	if page == 0 {
		return false
	}
	if f.Page != page {
		return f.Page < page
	}
	return f.BBox.Top() < b.BBox().Top()
}

func placeholderFor(f *model.Figure) *model.Block {
	b := model.NewBlock(model.BlockFigurePlaceholder)
	b.Meta[model.MetaFigureID] = f.ID
	b.Meta[model.MetaFigureBBox] = f.BBox
	return b
}
