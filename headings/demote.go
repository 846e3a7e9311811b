package headings

import (
	"log/slog"

	"github.com/tsawler/docforge/model"
)

// DemoteOrphans runs the single top-down demotion pass: a section with no
// content blocks of its own and no children is rewritten back into a plain
// paragraph block attached after the preceding kept sibling's subtree, or
// to the parent's block list (the tree preamble at the root) when no kept
// sibling precedes it.
// A childful section without content is kept and flagged empty. The pass
// runs before slugs are assigned, so promotion ordinals consumed by demoted
// sections leave stable gaps.
func DemoteOrphans(tree *model.DocumentTree, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	demoted := 0

	var walk func(nodes []*model.SectionNode, attach func(*model.Block)) []*model.SectionNode
	walk = func(nodes []*model.SectionNode, attach func(*model.Block)) []*model.SectionNode {
		kept := nodes[:0]
		for _, n := range nodes {
			if !n.HasContent() && len(n.Children) == 0 {
				log.Info("orphan_demoted",
					"title", n.Title,
					"level", n.Level,
					"ordinal", n.Meta.Ordinal)
				b := demoteToParagraph(n)
				// The block lands where the node sat: after the previous
				// kept sibling's subtree, so the pre-order span walk stays
				// monotonic. Without a previous sibling it falls back to
				// the parent's block list (the tree preamble at the root),
				// which the walk visits before any child.
				if len(kept) > 0 {
					tail := lastInSubtree(kept[len(kept)-1])
					tail.Blocks = append(tail.Blocks, b)
				} else {
					attach(b)
				}
				demoted++
				continue
			}
			if !n.HasContent() {
				n.Meta.EmptySection = true
			}
			node := n
			n.Children = walk(n.Children, func(b *model.Block) {
				node.Blocks = append(node.Blocks, b)
			})
			kept = append(kept, n)
		}
		return kept
	}

	tree.Sections = walk(tree.Sections, func(b *model.Block) {
		tree.Preamble = append(tree.Preamble, b)
	})

	if demoted > 0 {
		log.Info("orphan_demotion_summary", "demoted", demoted)
	}
}

// lastInSubtree returns the node visited last in the pre-order walk of n.
func lastInSubtree(n *model.SectionNode) *model.SectionNode {
	for len(n.Children) > 0 {
		n = n.Children[len(n.Children)-1]
	}
	return n
}

// demoteToParagraph rebuilds a paragraph block from the section's source
// heading. The block is frozen again after the rewrite.
func demoteToParagraph(n *model.SectionNode) *model.Block {
	b := model.NewBlock(model.BlockParagraph)
	if n.Heading != nil {
		for _, s := range n.Heading.Spans {
			_ = b.AppendSpan(s)
		}
	}
	b.Meta[model.MetaDemotedFromHeading] = true
	b.Freeze()
	return b
}
