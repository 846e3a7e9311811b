package docforge

import (
	"github.com/tsawler/docforge/blocks"
	"github.com/tsawler/docforge/headings"
	"github.com/tsawler/docforge/noise"
	"github.com/tsawler/docforge/postprocess"
	"github.com/tsawler/docforge/render"
	"github.com/tsawler/docforge/repair"
)

// Options aggregates the per-stage configuration. Zero values are not
// usable; start from DefaultOptions and override fields.
type Options struct {
	// Noise configures header, footer, and page-number removal.
	Noise noise.Config

	// Repair configures hyphenation repair.
	Repair repair.Config

	// Blocks configures line grouping and block assembly.
	Blocks blocks.Config

	// Headings configures tier clustering, numbering, strict mode, and
	// appendix detection.
	Headings headings.Config

	// Slugs configures slug generation and collision handling.
	Slugs postprocess.SlugConfig

	// Captions configures figure caption binding.
	Captions postprocess.CaptionConfig

	// XRefs configures cross-reference patterns and the unresolved policy.
	XRefs postprocess.XRefConfig

	// Render configures Markdown output.
	Render render.Config
}

// DefaultOptions returns the default configuration for every stage.
func DefaultOptions() Options {
	return Options{
		Noise:    noise.DefaultConfig(),
		Repair:   repair.DefaultConfig(),
		Blocks:   blocks.DefaultConfig(),
		Headings: headings.DefaultConfig(),
		Slugs:    postprocess.DefaultSlugConfig(),
		Captions: postprocess.DefaultCaptionConfig(),
		XRefs:    postprocess.DefaultXRefConfig(),
		Render:   render.DefaultConfig(),
	}
}

// Validate checks every stage configuration up front, compiling the noise
// patterns in place. All validation failures are CONFIG errors, raised
// before a single span is processed.
func (o *Options) Validate() error {
	if err := o.Noise.Compile(); err != nil {
		return err
	}
	if err := o.Captions.Validate(); err != nil {
		return err
	}
	if err := o.XRefs.Validate(); err != nil {
		return err
	}
	if _, err := headings.CompileAppendixPatterns(o.Headings.AppendixPatterns); err != nil {
		return err
	}
	return nil
}
