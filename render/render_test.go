package render

import (
	"strings"
	"testing"

	"github.com/tsawler/docforge/model"
	"github.com/tsawler/docforge/postprocess"
)

func paragraph(text string, page, order int) *model.Block {
	b := model.NewBlock(model.BlockParagraph)
	_ = b.AppendSpan(model.Span{
		Text:       text,
		BBox:       model.NewBBox(50, 100, 300, 12),
		FontName:   "Times-Roman",
		FontSize:   10,
		Page:       page,
		OrderIndex: order,
	})
	return b
}

func renderTree() *model.DocumentTree {
	ch1 := &model.SectionNode{
		Title: "Chapter 1 Intro", Level: 1, Slug: "000-chapter-1-intro",
		Meta: model.SectionMeta{Ordinal: 0, ChapterNumber: 1},
	}
	ch1.AddBlock(paragraph("details follow in Chapter 2 below", 1, 0))

	ch2 := &model.SectionNode{
		Title: "Chapter 2 Methods", Level: 1, Slug: "002-chapter-2-methods",
		Meta: model.SectionMeta{Ordinal: 2, ChapterNumber: 2},
	}
	ch2.AddBlock(paragraph("method text", 2, 1))

	return &model.DocumentTree{
		Title:    "Sample Book",
		Sections: []*model.SectionNode{ch1, ch2},
		CrossRefs: []model.CrossReference{
			{
				SectionSlug: "000-chapter-1-intro", BlockIndex: 0,
				Start: 18, End: 27, Kind: "chapter", Matched: "Chapter 2",
				TargetKey: "chapter:2", TargetSlug: "002-chapter-2-methods",
				Resolved: true,
			},
		},
	}
}

func TestRenderSectionFiles(t *testing.T) {
	files := NewRenderer().Render(renderTree())

	if len(files) != 3 {
		t.Fatalf("got %d files, want index + 2 sections", len(files))
	}
	index := string(files["index.md"])
	if !strings.HasPrefix(index, "# Sample Book\n") {
		t.Errorf("index = %q", index)
	}
	ch1 := string(files["000-chapter-1-intro.md"])
	if !strings.HasPrefix(ch1, "# Chapter 1 Intro\n\n") {
		t.Errorf("section file = %q", ch1)
	}
}

func TestIndexContainsTOC(t *testing.T) {
	files := NewRenderer().Render(renderTree())

	index := string(files["index.md"])
	if !strings.Contains(index, "## Contents") {
		t.Fatalf("TOC heading missing: %q", index)
	}
	for _, link := range []string{
		"- [Chapter 1 Intro](000-chapter-1-intro.md)",
		"- [Chapter 2 Methods](002-chapter-2-methods.md)",
	} {
		if !strings.Contains(index, link) {
			t.Errorf("TOC link missing: %q", link)
		}
	}
}

func TestResolvedReferenceBecomesLink(t *testing.T) {
	files := NewRenderer().Render(renderTree())

	ch1 := string(files["000-chapter-1-intro.md"])
	if !strings.Contains(ch1, "[Chapter 2](002-chapter-2-methods.md)") {
		t.Errorf("link missing: %q", ch1)
	}
}

func TestUnresolvedPolicies(t *testing.T) {
	base := func() *model.DocumentTree {
		tree := renderTree()
		tree.CrossRefs = []model.CrossReference{{
			SectionSlug: "000-chapter-1-intro", BlockIndex: 0,
			Start: 18, End: 27, Kind: "chapter", Matched: "Chapter 2",
			TargetKey: "chapter:99", Resolved: false,
		}}
		return tree
	}

	tests := []struct {
		policy   postprocess.XRefPolicy
		contains string
		excludes string
	}{
		{postprocess.PolicyAnnotate, "Chapter 2 [?]", ""},
		{postprocess.PolicyKeep, "Chapter 2 below", "[?]"},
		{postprocess.PolicyDrop, "details follow in  below", "Chapter 2"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Policy = tt.policy
		files := NewRendererWithConfig(cfg, nil).Render(base())
		got := string(files["000-chapter-1-intro.md"])
		if !strings.Contains(got, tt.contains) {
			t.Errorf("policy %s: missing %q in %q", tt.policy, tt.contains, got)
		}
		if tt.excludes != "" && strings.Contains(got, tt.excludes) {
			t.Errorf("policy %s: unexpected %q in %q", tt.policy, tt.excludes, got)
		}
	}
}

func TestCodeBlockFenced(t *testing.T) {
	code := model.NewBlock(model.BlockCode)
	_ = code.AppendSpan(model.Span{Text: "func main() {}", FontSize: 10, Page: 1, OrderIndex: 0})
	code.Meta[model.MetaCodeLanguage] = "go"
	code.Meta[model.MetaCodeLines] = []string{"func main() {}"}

	sec := &model.SectionNode{Title: "Listing", Level: 1, Slug: "000-listing"}
	sec.AddBlock(code)
	tree := &model.DocumentTree{Sections: []*model.SectionNode{sec}}

	files := NewRenderer().Render(tree)
	got := string(files["000-listing.md"])
	if !strings.Contains(got, "```go\nfunc main() {}\n```") {
		t.Errorf("fenced code missing: %q", got)
	}
}

func TestLowConfidenceTablePreformatted(t *testing.T) {
	table := model.NewBlock(model.BlockTable)
	_ = table.AppendSpan(model.Span{Text: "a b", FontSize: 10, Page: 1, OrderIndex: 0})
	table.Meta[model.MetaTableRows] = [][]string{{"a", "b"}, {"c", "d"}}
	table.Meta[model.MetaTableConfidence] = 0.45

	sec := &model.SectionNode{Title: "Data", Level: 1, Slug: "000-data"}
	sec.AddBlock(table)
	tree := &model.DocumentTree{Sections: []*model.SectionNode{sec}}

	files := NewRenderer().Render(tree)
	got := string(files["000-data.md"])
	if strings.Contains(got, "| a |") {
		t.Errorf("low-confidence table rendered as pipes: %q", got)
	}
	if !strings.Contains(got, "```\na  b\nc  d\n```") {
		t.Errorf("preformatted fallback missing: %q", got)
	}
}

func TestFigureAndFootnoteRendering(t *testing.T) {
	fig := model.NewBlock(model.BlockFigurePlaceholder)
	fig.Meta[model.MetaFigureID] = "fig-001"

	fn := model.NewBlock(model.BlockFootnotePlaceholder)
	_ = fn.AppendSpan(model.Span{Text: "1. See elsewhere.", FontSize: 8, Page: 1, OrderIndex: 1})
	fn.Meta[model.MetaFootnoteNumber] = "1"

	sec := &model.SectionNode{Title: "Art", Level: 1, Slug: "000-art"}
	sec.AddBlock(fig)
	sec.AddBlock(fn)
	tree := &model.DocumentTree{
		Sections: []*model.SectionNode{sec},
		Figures:  []*model.Figure{{ID: "fig-001", Caption: "the overview"}},
	}

	files := NewRenderer().Render(tree)
	got := string(files["000-art.md"])
	if !strings.Contains(got, "![the overview](images/fig-001.png)") {
		t.Errorf("figure image missing: %q", got)
	}
	if !strings.Contains(got, "[^1]: See elsewhere.") {
		t.Errorf("footnote definition missing: %q", got)
	}
}

func TestVerifyDetectsBrokenLink(t *testing.T) {
	files := NewRenderer().Render(renderTree())
	if err := Verify(files); err != nil {
		t.Fatalf("Verify on intact corpus: %v", err)
	}

	delete(files, "002-chapter-2-methods.md")
	if err := Verify(files); err == nil {
		t.Fatal("Verify missed the broken link")
	}
}
