package model

import (
	"errors"
	"strings"
)

// BlockType represents the type of a content block.
type BlockType int

const (
	BlockUnknown BlockType = iota
	BlockParagraph
	BlockList
	BlockListItem
	BlockCallout
	BlockCode
	BlockTable
	BlockFigurePlaceholder
	BlockFootnotePlaceholder
	BlockHeadingCandidate
	BlockEmptyLine
	BlockRawNoise
)

// String returns a string representation of the block type.
func (bt BlockType) String() string {
	switch bt {
	case BlockParagraph:
		return "Paragraph"
	case BlockList:
		return "List"
	case BlockListItem:
		return "ListItem"
	case BlockCallout:
		return "Callout"
	case BlockCode:
		return "CodeBlock"
	case BlockTable:
		return "Table"
	case BlockFigurePlaceholder:
		return "FigurePlaceholder"
	case BlockFootnotePlaceholder:
		return "FootnotePlaceholder"
	case BlockHeadingCandidate:
		return "HeadingCandidate"
	case BlockEmptyLine:
		return "EmptyLine"
	case BlockRawNoise:
		return "RawNoise"
	default:
		return "Unknown"
	}
}

// Well-known Meta keys for type-specific block fields.
const (
	MetaListLevel          = "list_level"
	MetaListMarker         = "list_marker"
	MetaListOrdered        = "list_ordered"
	MetaCodeLanguage       = "code_language"
	MetaCodeLines          = "code_lines"
	MetaTableConfidence    = "table_confidence"
	MetaTableRows          = "table_rows"
	MetaFigureBBox         = "figure_bbox"
	MetaFigureID           = "figure_id"
	MetaLabel              = "label"
	MetaFontSize           = "font_size"
	MetaInlineCode         = "inline_code"
	MetaDemotedFromHeading = "demoted_from_heading"
	MetaFootnoteNumber     = "footnote_number"
	MetaHeadingTier        = "heading_tier"
)

// ErrBlockFrozen is returned when mutating a frozen block.
var ErrBlockFrozen = errors.New("model: block is frozen")

// Block is a grouped, typed unit of content built from one or more spans.
// A block is mutable while under construction and frozen once a section
// has accepted it as a child.
type Block struct {
	// Type is the block type.
	Type BlockType

	// Spans are the ordered spans making up this block.
	Spans []Span

	// Items holds child blocks for container blocks (a List holds its
	// ListItem blocks). Nil for non-container blocks.
	Items []*Block

	// Meta holds type-specific fields keyed by the Meta* constants.
	Meta map[string]any

	frozen bool
}

// NewBlock creates an unfrozen block of the given type.
func NewBlock(t BlockType, spans ...Span) *Block {
	return &Block{
		Type:  t,
		Spans: spans,
		Meta:  make(map[string]any),
	}
}

// AppendSpan adds a span to the block. Fails on frozen blocks.
func (b *Block) AppendSpan(s Span) error {
	if b.frozen {
		return ErrBlockFrozen
	}
	b.Spans = append(b.Spans, s)
	return nil
}

// AppendItem adds a child block to a container block. Fails when frozen.
func (b *Block) AppendItem(item *Block) error {
	if b.frozen {
		return ErrBlockFrozen
	}
	b.Items = append(b.Items, item)
	return nil
}

// Freeze marks the block immutable. Child blocks are frozen too.
// Meta annotation remains allowed after freezing; span mutation does not.
func (b *Block) Freeze() {
	b.frozen = true
	for _, item := range b.Items {
		item.Freeze()
	}
}

// Frozen reports whether the block has been frozen.
func (b *Block) Frozen() bool {
	return b.frozen
}

// BBox returns the union of all span bounding boxes, including child items.
func (b *Block) BBox() BBox {
	var box BBox
	first := true
	for _, s := range b.allSpans() {
		if first {
			box = s.BBox
			first = false
			continue
		}
		box = box.Union(s.BBox)
	}
	return box
}

// PageSpan returns the first and last page covered by the block.
func (b *Block) PageSpan() (first, last int) {
	for _, s := range b.allSpans() {
		if first == 0 || s.Page < first {
			first = s.Page
		}
		if s.Page > last {
			last = s.Page
		}
	}
	return first, last
}

// FirstOrderIndex returns the smallest span order index in the block, or -1
// for a block with no spans.
func (b *Block) FirstOrderIndex() int {
	idx := -1
	for _, s := range b.allSpans() {
		if idx == -1 || s.OrderIndex < idx {
			idx = s.OrderIndex
		}
	}
	return idx
}

// Text returns the block's assembled text content.
func (b *Block) Text() string {
	if len(b.Items) > 0 {
		parts := make([]string, 0, len(b.Items))
		for _, item := range b.Items {
			t := item.Text()
			if t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}
	return SpanText(b.Spans)
}

// DominantFontSize returns the font size covering the most text runes in
// the block, breaking ties toward the larger size.
func (b *Block) DominantFontSize() float64 {
	weights := make(map[float64]int)
	for _, s := range b.allSpans() {
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

// IsContent reports whether the block counts as real content for orphan
// heading demotion: anything that is not a heading, empty line, or noise.
func (b *Block) IsContent() bool {
	switch b.Type {
	case BlockHeadingCandidate, BlockEmptyLine, BlockRawNoise:
		return false
	}
	return strings.TrimSpace(b.Text()) != "" || b.Type == BlockFigurePlaceholder
}

func (b *Block) allSpans() []Span {
	if len(b.Items) == 0 {
		return b.Spans
	}
	spans := make([]Span, 0, len(b.Spans))
	spans = append(spans, b.Spans...)
	for _, item := range b.Items {
		spans = append(spans, item.allSpans()...)
	}
	return spans
}
