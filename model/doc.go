// Package model defines the shared data model for the document structure
// synthesis pipeline: spans (atomic positioned text), blocks (typed content
// units), section nodes (the heading hierarchy), figures, footnotes,
// cross-references, and the final document tree with its registries.
//
// Spans are immutable after ingestion. Blocks are mutable while under
// construction and frozen when a section accepts them. Sections are only
// refined (slugs, numbering metadata) during post-processing, never
// restructured after the one-pass orphan demotion.
package model
