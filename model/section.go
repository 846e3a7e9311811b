package model

// SectionMeta holds numbering and classification metadata attached to a
// section during post-processing. Zero values mean "not present".
type SectionMeta struct {
	// Ordinal is the promotion-time sequence number (0-based, document
	// order). It survives orphan demotion, so gaps in the surviving
	// ordinals are expected and stable; slug prefixes derive from it.
	Ordinal int

	// ChapterNumber is the internally assigned global chapter number
	// (never reset). Zero means the section is not a chapter.
	ChapterNumber int

	// SectionPath is the dotted numbering path (e.g. 3.2.1 -> [3,2,1]).
	// Nil when the title carries no dotted number.
	SectionPath []int

	// AppendixLetter is the honored appendix letter ("A".."Z").
	AppendixLetter string

	// PartOrder is the 1-based order of a "Part" heading. Zero if none.
	PartOrder int

	// EmptySection marks a section with no content blocks of its own
	// that survived demotion because it has children.
	EmptySection bool
}

// SectionNode is a heading-delimited region of the document. The title is
// verbatim and never mutated; slugs are assigned only in post-processing.
type SectionNode struct {
	// Title is the verbatim heading text.
	Title string

	// Level is the 1-based logical depth (not Markdown depth).
	Level int

	// Slug is the deterministic slug, empty until post-processing.
	Slug string

	// Heading is the source heading block the section was promoted from.
	// Demotion rebuilds a paragraph from it.
	Heading *Block

	// Blocks are the content blocks owned directly by this section.
	Blocks []*Block

	// Children are the subsections, in document order.
	Children []*SectionNode

	// PageFirst and PageLast delimit the pages this section covers.
	PageFirst int
	PageLast  int

	// Meta holds numbering and classification metadata.
	Meta SectionMeta
}

// AddBlock appends a content block and freezes it: acceptance by a section
// is the point at which a block stops being mutable.
func (n *SectionNode) AddBlock(b *Block) {
	b.Freeze()
	n.Blocks = append(n.Blocks, b)
	if first, last := b.PageSpan(); first > 0 {
		if n.PageFirst == 0 || first < n.PageFirst {
			n.PageFirst = first
		}
		if last > n.PageLast {
			n.PageLast = last
		}
	}
}

// AddChild appends a child section.
func (n *SectionNode) AddChild(child *SectionNode) {
	n.Children = append(n.Children, child)
}

// HasContent reports whether the section directly owns at least one
// non-heading, non-empty block.
func (n *SectionNode) HasContent() bool {
	for _, b := range n.Blocks {
		if b.IsContent() {
			return true
		}
	}
	return false
}

// FirstOrderIndex returns the smallest span order index in the section's
// heading and own blocks, or -1 when the section has none.
func (n *SectionNode) FirstOrderIndex() int {
	idx := -1
	if n.Heading != nil {
		if hi := n.Heading.FirstOrderIndex(); hi >= 0 {
			idx = hi
		}
	}
	for _, b := range n.Blocks {
		if bi := b.FirstOrderIndex(); bi >= 0 && (idx == -1 || bi < idx) {
			idx = bi
		}
	}
	return idx
}

// PreOrder returns the node and all descendants, parents strictly before
// children.
func (n *SectionNode) PreOrder() []*SectionNode {
	out := []*SectionNode{n}
	for _, c := range n.Children {
		out = append(out, c.PreOrder()...)
	}
	return out
}
