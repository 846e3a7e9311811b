// Package docforge assembles page-positioned text spans into a structured
// document tree and renders it as a Markdown corpus with a deterministic
// manifest.
//
// Basic usage:
//
//	res, err := ingest.LoadPDF("book.pdf")
//	if err != nil {
//	    // handle error
//	}
//	out, err := docforge.New().Run(docforge.Input{
//	    Title:   res.Title,
//	    Spans:   res.Spans,
//	    Pages:   res.Pages,
//	    Figures: res.Figures,
//	})
//
// The stage order is fixed: noise classification, hyphenation repair, block
// assembly, heading promotion, orphan demotion, numbering, appendix
// detection, slug assignment, caption binding, cross-reference resolution,
// footnote binding, and finally hashing. Identical input and options always
// produce identical output, including both hashes.
package docforge

import (
	"log/slog"

	"github.com/tsawler/docforge/blocks"
	"github.com/tsawler/docforge/headings"
	"github.com/tsawler/docforge/manifest"
	"github.com/tsawler/docforge/model"
	"github.com/tsawler/docforge/noise"
	"github.com/tsawler/docforge/postprocess"
	"github.com/tsawler/docforge/render"
	"github.com/tsawler/docforge/repair"
)

// Version is reported in the manifest's generated_with field.
const Version = "0.1.0"

// Input is the ingested material the pipeline consumes, normally produced
// by one of the ingest loaders.
type Input struct {
	// Title is the document title, may be empty.
	Title string

	// Spans is the ordered span stream with strictly increasing order
	// indices.
	Spans []model.Span

	// Pages is the page geometry for the pages spans appear on.
	Pages []model.PageGeometry

	// Figures are the detected image regions in appearance order.
	Figures []*model.Figure
}

// Result is the pipeline output.
type Result struct {
	// Tree is the finished document tree with all registries populated.
	Tree *model.DocumentTree

	// Removed are the spans classified as noise, retained for auditing.
	Removed []model.Span

	// Manifest is the structured summary of the conversion.
	Manifest map[string]any

	// StructuralHash covers the section skeleton, figures, and footnotes.
	StructuralHash string

	// SemanticHash additionally covers cross-references and the
	// unresolved-reference policy.
	SemanticHash string
}

// Pipeline runs the full conversion in the pinned stage order.
type Pipeline struct {
	options Options
	log     *slog.Logger
}

// New creates a pipeline with default options.
func New() *Pipeline {
	return NewWithOptions(DefaultOptions(), nil)
}

// NewWithOptions creates a pipeline with custom options. The options are
// validated on Run, not here.
func NewWithOptions(options Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{options: options, log: log}
}

// Run executes every stage against the input and returns the finished
// tree, manifest, and hashes. The first classified error aborts the run.
func (p *Pipeline) Run(in Input) (*Result, error) {
	if err := p.options.Validate(); err != nil {
		return nil, err
	}

	classified, err := noise.NewClassifier(p.options.Noise, p.log).Classify(in.Spans, in.Pages)
	if err != nil {
		return nil, err
	}

	spans := repair.NewRepairer(p.options.Repair, p.log).Repair(classified.Retained)

	assembled := blocks.NewAssemblerWithConfig(p.options.Blocks, p.log).
		Assemble(spans, in.Pages, in.Figures)
	pageFirst := headings.PageFirstOrder(assembled)

	tree := headings.NewPromoterWithConfig(p.options.Headings, p.log).
		Promote(in.Title, assembled)
	tree.Figures = in.Figures

	headings.DemoteOrphans(tree, p.log)
	if err := headings.NumberSections(tree, p.options.Headings, p.log); err != nil {
		return nil, err
	}
	if err := headings.DetectAppendices(tree, p.options.Headings, pageFirst, p.log); err != nil {
		return nil, err
	}

	if err := postprocess.AssignSlugs(tree, p.options.Slugs, p.log); err != nil {
		return nil, err
	}
	postprocess.NewBinder(p.options.Captions, p.log).Bind(tree)

	resolver, err := postprocess.NewResolver(p.options.XRefs, p.log)
	if err != nil {
		return nil, err
	}
	resolver.Resolve(tree)
	postprocess.BindFootnotes(tree, p.log)

	structural, err := manifest.StructuralHash(tree)
	if err != nil {
		return nil, err
	}
	semantic, err := manifest.SemanticHash(tree, string(p.options.XRefs.Policy))
	if err != nil {
		return nil, err
	}
	man, err := manifest.Build(tree, string(p.options.XRefs.Policy), "docforge "+Version)
	if err != nil {
		return nil, err
	}

	return &Result{
		Tree:           tree,
		Removed:        classified.Removed,
		Manifest:       man,
		StructuralHash: structural,
		SemanticHash:   semantic,
	}, nil
}

// Render serializes the tree using the pipeline's render options, with the
// unresolved-reference policy taken from the cross-reference options.
func (p *Pipeline) Render(tree *model.DocumentTree) map[string][]byte {
	config := p.options.Render
	config.Policy = p.options.XRefs.Policy
	return render.NewRendererWithConfig(config, p.log).Render(tree)
}
