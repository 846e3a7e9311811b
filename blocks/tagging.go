package blocks

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tsawler/docforge/model"
)

var (
	footnoteStartRe  = regexp.MustCompile(`^(\d{1,3})[.)\s]`)
	headingPatternRe = regexp.MustCompile(`(?i)^(part|chapter|appendix)\b|^\d+(\.\d+)*\s+\S`)
)

// tagCallouts converts paragraphs led by a configured label ("Note:",
// "Warning:") into callout blocks.
func (a *Assembler) tagCallouts(blocks []*model.Block) {
	for _, b := range blocks {
		if b.Type != model.BlockParagraph {
			continue
		}
		text := strings.TrimSpace(b.Text())
		for _, label := range a.config.CalloutLabels {
			if len(text) <= len(label) {
				continue
			}
			if strings.EqualFold(text[:len(label)], label) && text[len(label)] == ':' {
				b.Type = model.BlockCallout
				b.Meta[model.MetaLabel] = label
				break
			}
		}
	}
}

// tagInlineCode records short monospaced fragments inside otherwise
// proportional paragraphs. The fragments stay in the paragraph; rendering
// wraps them in backticks.
func (a *Assembler) tagInlineCode(blocks []*model.Block) {
	for _, b := range blocks {
		if b.Type != model.BlockParagraph {
			continue
		}
		var fragments []string
		for _, s := range b.Spans {
			if s.IsBlank() || !isMonoSpan(s) {
				continue
			}
			if len([]rune(strings.TrimSpace(s.Text))) <= a.config.InlineCodeMaxRunes {
				fragments = append(fragments, strings.TrimSpace(s.Text))
			}
		}
		if len(fragments) > 0 && len(fragments) < len(b.Spans) {
			b.Meta[model.MetaInlineCode] = fragments
		}
	}
}

// tagHeadingCandidates marks paragraphs whose dominant font size is a local
// maximum relative to neighboring content and that carry a second signal:
// bold weight, an all-caps title, or a structural lead-in such as
// "Chapter 3" or "2.1". Font size alone never promotes.
func (a *Assembler) tagHeadingCandidates(blocks []*model.Block) {
	body := bodyFontSize(blocks)

	for i, b := range blocks {
		if b.Type != model.BlockParagraph {
			continue
		}
		text := strings.TrimSpace(b.Text())
		if text == "" || len([]rune(text)) > a.config.HeadingMaxRunes {
			continue
		}

		size := b.DominantFontSize()
		if !a.isLocalMaximum(blocks, i, size) && size < body*a.config.HeadingSizeRatio {
			continue
		}
		if !boldMajority(b) && !isAllCaps(text) && !headingPatternRe.MatchString(text) {
			continue
		}

		b.Type = model.BlockHeadingCandidate
		b.Meta[model.MetaFontSize] = size
	}
}

// isLocalMaximum compares the block's dominant size against the nearest
// textual neighbors in both directions.
func (a *Assembler) isLocalMaximum(blocks []*model.Block, i int, size float64) bool {
	prev := neighborSize(blocks, i, -1)
	next := neighborSize(blocks, i, +1)
	return size > prev && size > next
}

func neighborSize(blocks []*model.Block, i, step int) float64 {
	for j := i + step; j >= 0 && j < len(blocks); j += step {
		b := blocks[j]
		if b.Type == model.BlockEmptyLine || b.Type == model.BlockFigurePlaceholder {
			continue
		}
		if strings.TrimSpace(b.Text()) == "" {
			continue
		}
		return b.DominantFontSize()
	}
	return 0
}

// bodyFontSize is the rune-weighted modal dominant size over paragraph
// blocks, the best available estimate of the running text size.
func bodyFontSize(blocks []*model.Block) float64 {
	weights := make(map[float64]int)
	for _, b := range blocks {
		if b.Type != model.BlockParagraph {
			continue
		}
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

func boldMajority(b *model.Block) bool {
	bold, total := 0, 0
	for _, s := range b.Spans {
		n := len([]rune(strings.TrimSpace(s.Text)))
		total += n
		if s.Style.Bold {
			bold += n
		}
	}
	return total > 0 && bold*2 > total
}

func isAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return letters >= 2
}
