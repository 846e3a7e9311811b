package postprocess

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// captionPatternRe matches an explicit caption lead-in.
var captionPatternRe = regexp.MustCompile(`^(Figure|Fig\.)\s*\d*[.:]?\s*`)

// Candidate position priorities, used both for scoring and tie-breaking.
const (
	positionBelow   = 1.0
	positionOverlap = 0.6
	positionAbove   = 0.3
)

// CaptionWeights are the four scoring component weights. They must sum to
// 1 within 1e-6.
type CaptionWeights struct {
	Pattern  float64
	Position float64
	Distance float64
	Font     float64
}

// CaptionConfig holds configuration for caption binding.
type CaptionConfig struct {
	// MaxDistance is the vertical search distance in points.
	// Default: 150
	MaxDistance float64

	// Weights blend the four candidate-score components.
	// Default: pattern 0.4, position 0.3, distance 0.2, font 0.1
	Weights CaptionWeights

	// StackedGapThreshold is the gap difference under which two stacked
	// figures may legitimately bind the same caption.
	// Default: 5 points
	StackedGapThreshold float64
}

// DefaultCaptionConfig returns sensible default configuration.
func DefaultCaptionConfig() CaptionConfig {
	return CaptionConfig{
		MaxDistance: 150,
		Weights: CaptionWeights{
			Pattern:  0.4,
			Position: 0.3,
			Distance: 0.2,
			Font:     0.1,
		},
		StackedGapThreshold: 5,
	}
}

// Validate rejects a weight vector that does not sum to 1 within 1e-6.
func (c CaptionConfig) Validate() error {
	sum := c.Weights.Pattern + c.Weights.Position + c.Weights.Distance + c.Weights.Font
	if math.Abs(sum-1) > 1e-6 {
		return fault.ConfigErr(fault.CodeConfigWeightSum,
			"caption weights must sum to 1",
			map[string]any{"sum": sum})
	}
	if c.MaxDistance <= 0 {
		return fault.ConfigErr(fault.CodeConfigInvalidValue,
			"caption max distance must be positive",
			map[string]any{"max_distance": c.MaxDistance})
	}
	return nil
}

// candidate is one scored caption candidate for a figure.
type candidate struct {
	block    *model.Block
	text     string
	norm     string
	pattern  float64
	position float64
	gap      float64
	score    float64
}

// Binder resolves figure captions.
type Binder struct {
	config CaptionConfig
	log    *slog.Logger
}

// NewBinder creates a caption binder. The config must already be validated.
func NewBinder(config CaptionConfig, log *slog.Logger) *Binder {
	if log == nil {
		log = slog.Default()
	}
	return &Binder{config: config, log: log}
}

// Bind scores same-page textual blocks within the search distance of each
// figure and binds the best one as its caption. Confidence is the rounded
// weighted score; a figure with no candidate gets an empty caption at
// confidence zero. Stacked figures may share a caption; the duplicate
// binding is logged, never rejected.
func (b *Binder) Bind(tree *model.DocumentTree) {
	blocks := collectTextualBlocks(tree)
	bodySize := modalFontSize(blocks)

	bound := make(map[*model.Block]string)
	for _, f := range tree.Figures {
		best := b.bestCandidate(f, blocks, bodySize)
		if best == nil {
			f.Caption = ""
			f.CaptionRaw = ""
			f.CaptionConfidence = 0
			f.CaptionSource = model.CaptionSourceNone
			continue
		}

		f.CaptionRaw = best.text
		f.Caption = strings.TrimSpace(captionPatternRe.ReplaceAllString(best.text, ""))
		f.CaptionConfidence = math.Round(best.score*1000) / 1000
		if best.pattern > 0 {
			f.CaptionSource = model.CaptionSourcePattern
		} else {
			f.CaptionSource = model.CaptionSourceProximity
		}

		if prev, dup := bound[best.block]; dup {
			b.log.Info("caption_shared_binding",
				"figure", f.ID,
				"also_bound", prev,
				"caption", f.Caption)
		} else {
			bound[best.block] = f.ID
		}
	}
}

// bestCandidate scores every candidate and picks the winner. Scores are
// compared after rounding to 4 decimals; ties break on higher pattern
// score, then smaller gap, then position priority (below, above, overlap),
// then lexicographically smallest normalized text.
func (b *Binder) bestCandidate(f *model.Figure, blocks []*model.Block, bodySize float64) *candidate {
	var candidates []*candidate
	for _, blk := range blocks {
		page, _ := blk.PageSpan()
		if page != f.Page {
			continue
		}
		gap := f.BBox.GapDistance(blk.BBox())
		if gap > b.config.MaxDistance {
			continue
		}
		candidates = append(candidates, b.score(f, blk, gap, bodySize))
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		si := math.Round(ci.score*10000) / 10000
		sj := math.Round(cj.score*10000) / 10000
		if si != sj {
			return si > sj
		}
		if ci.pattern != cj.pattern {
			return ci.pattern > cj.pattern
		}
		if ci.gap != cj.gap {
			return ci.gap < cj.gap
		}
		if ci.position != cj.position {
			return tiePriority(ci.position) < tiePriority(cj.position)
		}
		return ci.norm < cj.norm
	})
	return candidates[0]
}

// tiePriority orders positions for tie-breaking: below, above, overlap.
func tiePriority(position float64) int {
	switch position {
	case positionBelow:
		return 0
	case positionAbove:
		return 1
	default:
		return 2
	}
}

func (b *Binder) score(f *model.Figure, blk *model.Block, gap float64, bodySize float64) *candidate {
	text := strings.TrimSpace(blk.Text())
	c := &candidate{
		block: blk,
		text:  text,
		norm:  strings.ToLower(text),
		gap:   gap,
	}

	if captionPatternRe.MatchString(text) {
		c.pattern = 1.0
	}

	bbox := blk.BBox()
	switch {
	case bbox.Top() >= f.BBox.Bottom():
		c.position = positionBelow
	case bbox.Bottom() <= f.BBox.Top():
		c.position = positionAbove
	default:
		c.position = positionOverlap
	}

	distance := 1 - gap/b.config.MaxDistance
	if distance < 0 {
		distance = 0
	}

	font := 0.0
	if blk.DominantFontSize() < bodySize || italicMajority(blk) {
		font = 1.0
	}

	w := b.config.Weights
	c.score = w.Pattern*c.pattern + w.Position*c.position + w.Distance*distance + w.Font*font
	return c
}

// collectTextualBlocks gathers caption-eligible blocks from the whole tree.
func collectTextualBlocks(tree *model.DocumentTree) []*model.Block {
	var out []*model.Block
	add := func(blocks []*model.Block) {
		for _, b := range blocks {
			switch b.Type {
			case model.BlockParagraph, model.BlockCallout:
				if strings.TrimSpace(b.Text()) != "" {
					out = append(out, b)
				}
			}
		}
	}
	add(tree.Preamble)
	for _, n := range tree.PreOrder() {
		add(n.Blocks)
	}
	return out
}

func modalFontSize(blocks []*model.Block) float64 {
	weights := make(map[float64]int)
	for _, b := range blocks {
		weights[b.DominantFontSize()] += len([]rune(b.Text()))
	}
	var best float64
	bestWeight := -1
	for size, w := range weights {
		if w > bestWeight || (w == bestWeight && size < best) {
			best = size
			bestWeight = w
		}
	}
	return best
}

func italicMajority(b *model.Block) bool {
	italic, total := 0, 0
	for _, s := range b.Spans {
		n := len([]rune(strings.TrimSpace(s.Text)))
		total += n
		if s.Style.Italic {
			italic += n
		}
	}
	return total > 0 && italic*2 > total
}
