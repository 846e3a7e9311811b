package headings

import (
	"log/slog"
	"strings"

	"github.com/tsawler/docforge/model"
)

// Promoter builds the section tree from the assembled block sequence.
type Promoter struct {
	config Config
	log    *slog.Logger
}

// NewPromoter creates a promoter with default configuration.
func NewPromoter() *Promoter {
	return NewPromoterWithConfig(DefaultConfig(), nil)
}

// NewPromoterWithConfig creates a promoter with custom configuration.
func NewPromoterWithConfig(config Config, log *slog.Logger) *Promoter {
	if log == nil {
		log = slog.Default()
	}
	return &Promoter{config: config, log: log}
}

// open is one entry on the ancestor stack during promotion.
type open struct {
	level int
	node  *model.SectionNode
}

// Promote walks the blocks in document order, converting each heading
// candidate into a SectionNode attached to the nearest open ancestor of a
// shallower level. Non-heading blocks attach to the innermost open section,
// or to the tree preamble before the first heading. Promotion never fails;
// a block that cannot be classified stays where it is.
func (p *Promoter) Promote(title string, blocks []*model.Block) *model.DocumentTree {
	tiers := clusterTiers(blocks, p.config.TierEpsilon, p.config.MaxTiers)
	tree := &model.DocumentTree{Title: title}

	var stack []open
	ordinal := 0

	for _, b := range blocks {
		if b.Type != model.BlockHeadingCandidate {
			if len(stack) == 0 {
				b.Freeze()
				tree.Preamble = append(tree.Preamble, b)
				continue
			}
			stack[len(stack)-1].node.AddBlock(b)
			continue
		}

		level := tiers.levelFor(b.DominantFontSize())
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		b.Freeze()
		node := &model.SectionNode{
			Title:   strings.TrimSpace(b.Text()),
			Level:   level,
			Heading: b,
			Meta:    model.SectionMeta{Ordinal: ordinal},
		}
		ordinal++
		if first, last := b.PageSpan(); first > 0 {
			node.PageFirst = first
			node.PageLast = last
		}

		if len(stack) == 0 {
			tree.Sections = append(tree.Sections, node)
		} else {
			stack[len(stack)-1].node.AddChild(node)
		}
		stack = append(stack, open{level: level, node: node})
	}

	propagatePageSpans(tree.Sections)
	p.log.Info("headings_promoted",
		"sections", tree.SectionCount(),
		"tiers", tiers.maxTier,
		"preamble_blocks", len(tree.Preamble))
	return tree
}

// propagatePageSpans widens each parent's page span to cover its children.
func propagatePageSpans(nodes []*model.SectionNode) (first, last int) {
	for _, n := range nodes {
		cf, cl := propagatePageSpans(n.Children)
		if cf > 0 && (n.PageFirst == 0 || cf < n.PageFirst) {
			n.PageFirst = cf
		}
		if cl > n.PageLast {
			n.PageLast = cl
		}
		if n.PageFirst > 0 && (first == 0 || n.PageFirst < first) {
			first = n.PageFirst
		}
		if n.PageLast > last {
			last = n.PageLast
		}
	}
	return first, last
}
