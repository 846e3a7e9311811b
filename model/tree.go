package model

// SlugKind tags an entry in the global slug index.
type SlugKind int

const (
	SlugSection SlugKind = iota
	SlugFigure
)

// String returns a string representation of the slug kind.
func (k SlugKind) String() string {
	if k == SlugFigure {
		return "figure"
	}
	return "section"
}

// DocumentTree is the final immutable document model: the section hierarchy
// plus the deterministic registries built during post-processing.
type DocumentTree struct {
	// Title is the document title supplied by the ingestion collaborator.
	Title string

	// Preamble holds blocks that precede the first promoted heading,
	// including root-level demoted orphans with no preceding section.
	Preamble []*Block

	// Sections are the top-level sections in document order.
	Sections []*SectionNode

	// Figures is the figure registry, ordered by ID.
	Figures []*Figure

	// Footnotes is the footnote registry, ordered by ID.
	Footnotes []*Footnote

	// CrossRefs is the resolved cross-reference list in scan order.
	CrossRefs []CrossReference

	// Slugs is the global slug index; uniqueness spans sections and
	// figures.
	Slugs map[string]SlugKind
}

// PreOrder returns every section in pre-order traversal: a parent is
// visited strictly before its children, and span order indices are
// monotonically non-decreasing across the walk.
func (t *DocumentTree) PreOrder() []*SectionNode {
	var out []*SectionNode
	for _, s := range t.Sections {
		out = append(out, s.PreOrder()...)
	}
	return out
}

// SectionCount returns the total number of sections in the tree.
func (t *DocumentTree) SectionCount() int {
	return len(t.PreOrder())
}

// PageSpan returns the first and last page covered by the tree.
func (t *DocumentTree) PageSpan() (first, last int) {
	for _, s := range t.PreOrder() {
		if s.PageFirst > 0 && (first == 0 || s.PageFirst < first) {
			first = s.PageFirst
		}
		if s.PageLast > last {
			last = s.PageLast
		}
	}
	return first, last
}

// SectionByChapter returns the section carrying the given chapter number.
func (t *DocumentTree) SectionByChapter(n int) *SectionNode {
	for _, s := range t.PreOrder() {
		if s.Meta.ChapterNumber == n {
			return s
		}
	}
	return nil
}

// SectionByPath returns the section whose dotted numbering path matches.
func (t *DocumentTree) SectionByPath(path []int) *SectionNode {
	for _, s := range t.PreOrder() {
		if equalPath(s.Meta.SectionPath, path) {
			return s
		}
	}
	return nil
}

// SectionByAppendix returns the section honored as appendix letter.
func (t *DocumentTree) SectionByAppendix(letter string) *SectionNode {
	for _, s := range t.PreOrder() {
		if s.Meta.AppendixLetter == letter {
			return s
		}
	}
	return nil
}

// FigureByID returns the figure with the given ID, or nil.
func (t *DocumentTree) FigureByID(id string) *Figure {
	for _, f := range t.Figures {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func equalPath(a, b []int) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
