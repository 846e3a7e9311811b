package manifest

import (
	"github.com/tsawler/docforge/model"
)

// SchemaVersion identifies the manifest layout.
const SchemaVersion = 1

// Build assembles the export manifest: the canonical projection plus the
// document header, cross-reference registry, and structural hash. Section
// order is exactly pre-order traversal and order_index equals array
// position. The result serializes deterministically through CanonicalJSON.
func Build(tree *model.DocumentTree, policy, generatedWith string) (map[string]any, error) {
	structuralHash, err := StructuralHash(tree)
	if err != nil {
		return nil, err
	}

	first, last := tree.PageSpan()
	proj := StructuralProjection(tree)

	return map[string]any{
		"schema_version": SchemaVersion,
		"document": map[string]any{
			"title":     tree.Title,
			"page_span": []any{first, last},
			"counts": map[string]any{
				"sections":         tree.SectionCount(),
				"figures":          len(tree.Figures),
				"footnotes":        len(tree.Footnotes),
				"cross_references": len(tree.CrossRefs),
			},
		},
		"sections":         proj["sections"],
		"figures":          proj["figures"],
		"footnotes":        proj["footnotes"],
		"cross_references": crossRefEntries(tree),
		"xref_policy":      policy,
		"structural_hash":  structuralHash,
		"generated_with":   generatedWith,
	}, nil
}
