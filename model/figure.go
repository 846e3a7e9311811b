package model

// CaptionSource identifies how a figure caption was chosen.
const (
	CaptionSourcePattern   = "pattern"
	CaptionSourceProximity = "proximity"
	CaptionSourceNone      = "none"
)

// Figure is a logical handle for an image region. The image file path is an
// export-time concern and deliberately absent from the core model.
type Figure struct {
	// ID is stable and monotonic by appearance order ("fig-001", ...).
	ID string

	// CaptionRaw is the unmodified text of the bound caption candidate.
	CaptionRaw string

	// Caption is the normalized caption text.
	Caption string

	// CaptionSource is one of the CaptionSource* constants.
	CaptionSource string

	// CaptionConfidence is the binding score in [0,1], rounded to three
	// decimals.
	CaptionConfidence float64

	// BBox is the image region on its page.
	BBox BBox

	// Page is the 1-based page number.
	Page int

	// Slug is the deterministic figure slug, assigned in post-processing.
	Slug string
}

// Footnote pairs a superscript marker with bottom-of-page footnote text.
// Unmatched footnote text is retained with Linked=false.
type Footnote struct {
	// ID is stable and monotonic by appearance order ("fn-001", ...).
	ID string

	// Marker is the marker text (typically a small integer).
	Marker string

	// Text is the footnote body text without the leading marker.
	Text string

	// Page is the page the footnote text appears on.
	Page int

	// SectionSlug is the slug of the section owning the marker, when
	// linked.
	SectionSlug string

	// Linked reports whether a marker was paired with this footnote.
	Linked bool
}

// CrossReference records one resolved or unresolved textual reference.
type CrossReference struct {
	// SectionSlug is the slug of the section the reference occurs in.
	SectionSlug string

	// BlockIndex is the index of the block within that section.
	BlockIndex int

	// Start and End are byte offsets of the match in the block text.
	Start int
	End   int

	// Kind is the reference kind: chapter, section, figure, or appendix.
	Kind string

	// Matched is the verbatim matched text.
	Matched string

	// TargetKey is the normalized lookup key (e.g. "chapter:3").
	TargetKey string

	// TargetSlug is the resolved target slug; empty when unresolved.
	TargetSlug string

	// Resolved reports whether the target was found in a registry.
	Resolved bool
}
