package manifest

import (
	"fmt"

	"github.com/tsawler/docforge/model"
)

// StructuralProjection builds the minimal canonical projection: sections,
// figures, and footnotes with explicit numeric ordering keys. It excludes
// cross-references and other late-bound enrichments, so toggling reference
// resolution never perturbs the structural hash.
func StructuralProjection(tree *model.DocumentTree) map[string]any {
	return map[string]any{
		"sections":  sectionEntries(tree),
		"figures":   figureEntries(tree),
		"footnotes": footnoteEntries(tree),
	}
}

// SemanticProjection extends the structural projection with resolved
// cross-references and the active policy, for auditing link integrity
// separately from structural stability.
func SemanticProjection(tree *model.DocumentTree, policy string) map[string]any {
	proj := StructuralProjection(tree)
	proj["cross_references"] = crossRefEntries(tree)
	proj["xref_policy"] = policy
	return proj
}

// StructuralHash hashes the minimal projection.
func StructuralHash(tree *model.DocumentTree) (string, error) {
	return HashProjection(StructuralProjection(tree))
}

// SemanticHash hashes the extended projection.
func SemanticHash(tree *model.DocumentTree, policy string) (string, error) {
	return HashProjection(SemanticProjection(tree, policy))
}

// SectionID formats the manifest id for a pre-order position.
func SectionID(index int) string {
	return fmt.Sprintf("sec_%04d", index)
}

// sectionEntries lists sections in pre-order; order_index equals array
// position.
func sectionEntries(tree *model.DocumentTree) []any {
	index := make(map[*model.SectionNode]int)
	for i, n := range tree.PreOrder() {
		index[n] = i
	}

	var out []any
	var walk func(nodes []*model.SectionNode, parent *model.SectionNode)
	walk = func(nodes []*model.SectionNode, parent *model.SectionNode) {
		for _, n := range nodes {
			var parentID any
			if parent != nil {
				parentID = SectionID(index[parent])
			}
			out = append(out, map[string]any{
				"id":          SectionID(index[n]),
				"slug":        n.Slug,
				"parent_id":   parentID,
				"level":       n.Level,
				"order_index": index[n],
				"title":       n.Title,
				"file":        n.Slug + ".md",
				"page_span":   []any{n.PageFirst, n.PageLast},
			})
			walk(n.Children, n)
		}
	}
	walk(tree.Sections, nil)
	return out
}

func figureEntries(tree *model.DocumentTree) []any {
	sections := figureSections(tree)
	out := make([]any, 0, len(tree.Figures))
	for _, f := range tree.Figures {
		out = append(out, map[string]any{
			"id":         f.ID,
			"section":    sections[f.ID],
			"page":       f.Page,
			"path":       fmt.Sprintf("images/%s.png", f.ID),
			"caption":    f.Caption,
			"source":     f.CaptionSource,
			"confidence": f.CaptionConfidence,
			"slug":       f.Slug,
		})
	}
	return out
}

// figureSections maps each figure id to the slug of the section owning its
// placeholder block. Figures whose placeholder sits in the preamble map to
// the empty string.
func figureSections(tree *model.DocumentTree) map[string]string {
	out := make(map[string]string)
	scan := func(slug string, blocks []*model.Block) {
		for _, b := range blocks {
			if b.Type != model.BlockFigurePlaceholder {
				continue
			}
			if id, ok := b.Meta[model.MetaFigureID].(string); ok {
				out[id] = slug
			}
		}
	}
	scan("", tree.Preamble)
	for _, n := range tree.PreOrder() {
		scan(n.Slug, n.Blocks)
	}
	return out
}

func footnoteEntries(tree *model.DocumentTree) []any {
	out := make([]any, 0, len(tree.Footnotes))
	for _, fn := range tree.Footnotes {
		out = append(out, map[string]any{
			"id":      fn.ID,
			"section": fn.SectionSlug,
			"marker":  fn.Marker,
			"page":    fn.Page,
			"text":    fn.Text,
			"linked":  fn.Linked,
		})
	}
	return out
}

func crossRefEntries(tree *model.DocumentTree) []any {
	out := make([]any, 0, len(tree.CrossRefs))
	for _, r := range tree.CrossRefs {
		out = append(out, map[string]any{
			"section":     r.SectionSlug,
			"block_index": r.BlockIndex,
			"start":       r.Start,
			"end":         r.End,
			"kind":        r.Kind,
			"matched":     r.Matched,
			"target_key":  r.TargetKey,
			"target_slug": r.TargetSlug,
			"resolved":    r.Resolved,
		})
	}
	return out
}
