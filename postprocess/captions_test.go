package postprocess

import (
	"testing"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

func captionTree(figure *model.Figure, blocks ...*model.Block) *model.DocumentTree {
	sec := section("Chapter 1 Figures", 0)
	for _, b := range blocks {
		sec.AddBlock(b)
	}
	return &model.DocumentTree{
		Sections: []*model.SectionNode{sec},
		Figures:  []*model.Figure{figure},
	}
}

func TestCaptionWeightValidation(t *testing.T) {
	cfg := DefaultCaptionConfig()
	cfg.Weights.Pattern = 0.9

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted weights summing past 1")
	}
	fe, ok := err.(*fault.Error)
	if !ok {
		t.Fatalf("error type %T, want *fault.Error", err)
	}
	if fe.Category != fault.Config || fe.Code != fault.CodeConfigWeightSum {
		t.Errorf("error = %v, want CONFIG/%s", fe, fault.CodeConfigWeightSum)
	}
}

func TestPatternCaptionBelowWins(t *testing.T) {
	fig := &model.Figure{ID: "fig-001", Page: 1, BBox: model.NewBBox(100, 100, 300, 150)}
	caption := textBlock("Figure 1: Overview of the pipeline", 100, 260, 9, 1, 1)
	body := textBlock("this nearby paragraph is ordinary body text", 100, 300, 10, 1, 2)

	tree := captionTree(fig, caption, body)
	NewBinder(DefaultCaptionConfig(), nil).Bind(tree)

	if fig.Caption != "Overview of the pipeline" {
		t.Errorf("caption = %q", fig.Caption)
	}
	if fig.CaptionRaw != "Figure 1: Overview of the pipeline" {
		t.Errorf("raw caption = %q", fig.CaptionRaw)
	}
	if fig.CaptionSource != model.CaptionSourcePattern {
		t.Errorf("source = %q, want pattern", fig.CaptionSource)
	}
	if fig.CaptionConfidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", fig.CaptionConfidence)
	}
}

func TestCaptionTieBreaksOnSmallerGap(t *testing.T) {
	// Zero distance and font weights force an exact score tie between the
	// two below-figure candidates; the closer one must win.
	cfg := DefaultCaptionConfig()
	cfg.Weights = CaptionWeights{Pattern: 0.5, Position: 0.5, Distance: 0, Font: 0}

	fig := &model.Figure{ID: "fig-001", Page: 1, BBox: model.NewBBox(100, 100, 300, 150)}
	near := textBlock("Figure 1: ten points away", 100, 260, 10, 1, 1)
	far := textBlock("Figure 2: twenty points away", 100, 270, 10, 1, 2)

	tree := captionTree(fig, near, far)
	NewBinder(cfg, nil).Bind(tree)

	if fig.Caption != "ten points away" {
		t.Errorf("caption = %q, want the 10pt candidate", fig.Caption)
	}
}

func TestNoCandidateMeansEmptyCaption(t *testing.T) {
	fig := &model.Figure{ID: "fig-001", Page: 3, BBox: model.NewBBox(100, 100, 300, 150)}
	elsewhere := textBlock("Figure 9: caption on another page", 100, 260, 10, 1, 1)

	tree := captionTree(fig, elsewhere)
	NewBinder(DefaultCaptionConfig(), nil).Bind(tree)

	if fig.Caption != "" || fig.CaptionConfidence != 0 {
		t.Errorf("caption = %q confidence = %v, want empty at 0", fig.Caption, fig.CaptionConfidence)
	}
	if fig.CaptionSource != model.CaptionSourceNone {
		t.Errorf("source = %q, want none", fig.CaptionSource)
	}
}

func TestStackedFiguresShareCaption(t *testing.T) {
	figA := &model.Figure{ID: "fig-001", Page: 1, BBox: model.NewBBox(100, 50, 300, 100)}
	figB := &model.Figure{ID: "fig-002", Page: 1, BBox: model.NewBBox(100, 152, 300, 100)}
	caption := textBlock("Figure 1: shared caption below the stack", 100, 262, 10, 1, 1)

	sec := section("Chapter 1 Figures", 0)
	sec.AddBlock(caption)
	tree := &model.DocumentTree{
		Sections: []*model.SectionNode{sec},
		Figures:  []*model.Figure{figA, figB},
	}
	NewBinder(DefaultCaptionConfig(), nil).Bind(tree)

	if figA.Caption != figB.Caption || figA.Caption == "" {
		t.Errorf("captions = %q / %q, want both bound to the shared text", figA.Caption, figB.Caption)
	}
}

func TestProximityCaptionWithoutPattern(t *testing.T) {
	fig := &model.Figure{ID: "fig-001", Page: 1, BBox: model.NewBBox(100, 100, 300, 150)}
	caption := textBlock("a plain descriptive line under the image", 100, 255, 8, 1, 1)
	body := textBlock("longer ordinary body paragraph establishing the page font", 100, 400, 10, 1, 2)

	tree := captionTree(fig, caption, body)
	NewBinder(DefaultCaptionConfig(), nil).Bind(tree)

	if fig.Caption != "a plain descriptive line under the image" {
		t.Errorf("caption = %q", fig.Caption)
	}
	if fig.CaptionSource != model.CaptionSourceProximity {
		t.Errorf("source = %q, want proximity", fig.CaptionSource)
	}
}
