// Package headings turns heading-candidate blocks into a section hierarchy:
// font-size tier clustering, promotion onto an ancestor stack, orphan
// demotion, and the numbering and appendix engines that classify promoted
// titles without ever mutating them.
package headings

import (
	"sort"

	"github.com/tsawler/docforge/model"
)

// Config holds configuration for heading promotion and numbering.
type Config struct {
	// TierEpsilon merges two font tiers whose representative sizes differ
	// by less than this value.
	// Default: 0.75 points
	TierEpsilon float64

	// MaxTiers caps the number of heading levels. Deeper tiers clamp to
	// the last level.
	// Default: 6
	MaxTiers int

	// Strict escalates duplicate chapter numbers and duplicate appendix
	// letters to fatal errors instead of logged anomalies.
	Strict bool

	// AppendixPatterns are user regexes matched ahead of the built-in
	// appendix pattern. Each must capture the letter in group 1.
	AppendixPatterns []string

	// AppendixRequirePageBreak honors an appendix heading only when it is
	// the first block on its page.
	// Default: true
	AppendixRequirePageBreak bool
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		TierEpsilon:              0.75,
		MaxTiers:                 6,
		AppendixRequirePageBreak: true,
	}
}

// tierTable maps a candidate's dominant font size to a 1-based level,
// largest size first.
type tierTable struct {
	levels  map[float64]int
	maxTier int
}

// clusterTiers builds the tier table from every heading candidate in the
// block sequence. Sizes are sorted descending, ties broken by earliest
// order index, and adjacent sizes within epsilon collapse into one tier.
func clusterTiers(blocks []*model.Block, epsilon float64, maxTiers int) tierTable {
	firstSeen := make(map[float64]int)
	for _, b := range blocks {
		if b.Type != model.BlockHeadingCandidate {
			continue
		}
		size := b.DominantFontSize()
		idx := b.FirstOrderIndex()
		if seen, ok := firstSeen[size]; !ok || idx < seen {
			firstSeen[size] = idx
		}
	}

	sizes := make([]float64, 0, len(firstSeen))
	for size := range firstSeen {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i] != sizes[j] {
			return sizes[i] > sizes[j]
		}
		return firstSeen[sizes[i]] < firstSeen[sizes[j]]
	})

	table := tierTable{levels: make(map[float64]int, len(sizes)), maxTier: 0}
	var repr float64
	for _, size := range sizes {
		if table.maxTier == 0 || repr-size >= epsilon {
			if table.maxTier < maxTiers {
				table.maxTier++
			}
			repr = size
		}
		table.levels[size] = table.maxTier
	}
	return table
}

func (t tierTable) levelFor(size float64) int {
	if level, ok := t.levels[size]; ok {
		return level
	}
	return t.maxTier
}
