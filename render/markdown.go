// Package render serializes a finished document tree to a multi-file
// Markdown corpus and verifies the emitted files parse cleanly. Rendering
// is pure: it returns file contents keyed by name and never touches the
// filesystem.
package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/docforge/model"
	"github.com/tsawler/docforge/postprocess"
)

// listMarkerRe strips the original list marker from item text; rendering
// substitutes Markdown markers.
var listMarkerRe = regexp.MustCompile(`^\s*([•‣◦*-]|\(?[0-9a-z]{1,3}[.)])\s+`)

// unresolvedMarker is appended to unresolved references under the annotate
// policy.
const unresolvedMarker = " [?]"

// lowConfidenceTable is the threshold under which a table renders as
// preformatted text instead of a pipe table.
const lowConfidenceTable = 0.5

// Config holds configuration for Markdown rendering.
type Config struct {
	// Policy applies to unresolved cross-references.
	// Default: annotate
	Policy postprocess.XRefPolicy

	// ImageDir is the relative directory figure image links point into.
	// Default: "images"
	ImageDir string

	// IndexFile is the file receiving the document title and preamble.
	// Default: "index.md"
	IndexFile string
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Policy:    postprocess.PolicyAnnotate,
		ImageDir:  "images",
		IndexFile: "index.md",
	}
}

// Renderer emits per-section Markdown files.
type Renderer struct {
	config Config
	log    *slog.Logger
}

// NewRenderer creates a renderer with default configuration.
func NewRenderer() *Renderer {
	return NewRendererWithConfig(DefaultConfig(), nil)
}

// NewRendererWithConfig creates a renderer with custom configuration.
func NewRendererWithConfig(config Config, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{config: config, log: log}
}

// Render produces the full corpus: one file per section named by its slug,
// plus the index file with the document title and preamble. Cross-reference
// links are applied from the recorded byte offsets, right to left so
// earlier offsets stay valid.
func (r *Renderer) Render(tree *model.DocumentTree) map[string][]byte {
	files := make(map[string][]byte)

	refsBySection := groupRefs(tree)

	var index strings.Builder
	if tree.Title != "" {
		fmt.Fprintf(&index, "# %s\n\n", tree.Title)
	}
	r.writeBlocks(&index, tree, tree.Preamble, nil)
	writeTOC(&index, tree)
	files[r.config.IndexFile] = []byte(index.String())

	for _, n := range tree.PreOrder() {
		var b strings.Builder
		depth := n.Level
		if depth > 6 {
			depth = 6
		}
		fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", depth), n.Title)
		r.writeBlocks(&b, tree, n.Blocks, refsBySection[n.Slug])
		files[n.Slug+".md"] = []byte(b.String())
	}

	r.log.Info("corpus_rendered", "files", len(files))
	return files
}

// writeTOC appends a nested link list over all sections, indented by level.
func writeTOC(b *strings.Builder, tree *model.DocumentTree) {
	sections := tree.PreOrder()
	if len(sections) == 0 {
		return
	}
	b.WriteString("## Contents\n\n")
	for _, n := range sections {
		depth := n.Level - 1
		if depth < 0 {
			depth = 0
		}
		fmt.Fprintf(b, "%s- [%s](%s.md)\n", strings.Repeat("  ", depth), n.Title, n.Slug)
	}
	b.WriteString("\n")
}

func groupRefs(tree *model.DocumentTree) map[string][]model.CrossReference {
	out := make(map[string][]model.CrossReference)
	for _, ref := range tree.CrossRefs {
		out[ref.SectionSlug] = append(out[ref.SectionSlug], ref)
	}
	return out
}

func (r *Renderer) writeBlocks(b *strings.Builder, tree *model.DocumentTree, blocks []*model.Block, refs []model.CrossReference) {
	for bi, blk := range blocks {
		switch blk.Type {
		case model.BlockParagraph:
			text := r.applyRefs(blk.Text(), refs, bi)
			text = wrapInlineCode(blk, text)
			fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(text))

		case model.BlockCallout:
			text := strings.TrimSpace(r.applyRefs(blk.Text(), refs, bi))
			if label, ok := blk.Meta[model.MetaLabel].(string); ok {
				rest := strings.TrimSpace(strings.TrimPrefix(text, label+":"))
				fmt.Fprintf(b, "> **%s:** %s\n\n", label, rest)
			} else {
				fmt.Fprintf(b, "> %s\n\n", text)
			}

		case model.BlockList:
			r.writeList(b, blk, 0)
			b.WriteString("\n")

		case model.BlockCode:
			r.writeCode(b, blk)

		case model.BlockTable:
			r.writeTable(b, blk)

		case model.BlockFigurePlaceholder:
			r.writeFigure(b, tree, blk)

		case model.BlockFootnotePlaceholder:
			r.writeFootnote(b, blk)
		}
	}
}

// applyRefs rewrites recorded cross-reference matches in a block's text,
// walking offsets right to left.
func (r *Renderer) applyRefs(text string, refs []model.CrossReference, blockIndex int) string {
	var mine []model.CrossReference
	for _, ref := range refs {
		if ref.BlockIndex == blockIndex && ref.End <= len(text) {
			mine = append(mine, ref)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].Start > mine[j].Start })

	for _, ref := range mine {
		var repl string
		switch {
		case ref.Resolved:
			repl = fmt.Sprintf("[%s](%s)", ref.Matched, r.linkTarget(ref))
		case r.config.Policy == postprocess.PolicyDrop:
			repl = ""
		case r.config.Policy == postprocess.PolicyKeep:
			continue
		default:
			repl = ref.Matched + unresolvedMarker
		}
		text = text[:ref.Start] + repl + text[ref.End:]
	}
	return text
}

func (r *Renderer) linkTarget(ref model.CrossReference) string {
	if ref.Kind == "figure" {
		return fmt.Sprintf("%s/%s.png", r.config.ImageDir, ref.TargetSlug)
	}
	return ref.TargetSlug + ".md"
}

// wrapInlineCode backticks the monospaced fragments tagged at assembly.
func wrapInlineCode(blk *model.Block, text string) string {
	fragments, ok := blk.Meta[model.MetaInlineCode].([]string)
	if !ok {
		return text
	}
	for _, f := range fragments {
		if f == "" || strings.Contains(f, "`") {
			continue
		}
		text = strings.Replace(text, f, "`"+f+"`", 1)
	}
	return text
}

func (r *Renderer) writeList(b *strings.Builder, list *model.Block, depth int) {
	ordered, _ := list.Meta[model.MetaListOrdered].(bool)
	indent := strings.Repeat("  ", depth)

	item := 0
	for _, child := range list.Items {
		if child.Type == model.BlockList {
			r.writeList(b, child, depth+1)
			continue
		}
		item++
		text := listMarkerRe.ReplaceAllString(strings.TrimSpace(child.Text()), "")
		if ordered {
			fmt.Fprintf(b, "%s%d. %s\n", indent, item, text)
		} else {
			fmt.Fprintf(b, "%s- %s\n", indent, text)
		}
		for _, nested := range child.Items {
			if nested.Type == model.BlockList {
				r.writeList(b, nested, depth+1)
			}
		}
	}
}

func (r *Renderer) writeCode(b *strings.Builder, blk *model.Block) {
	lang, _ := blk.Meta[model.MetaCodeLanguage].(string)
	fmt.Fprintf(b, "```%s\n", lang)
	if lines, ok := blk.Meta[model.MetaCodeLines].([]string); ok {
		for _, ln := range lines {
			b.WriteString(ln)
			b.WriteByte('\n')
		}
	} else {
		b.WriteString(blk.Text())
		b.WriteByte('\n')
	}
	b.WriteString("```\n\n")
}

func (r *Renderer) writeTable(b *strings.Builder, blk *model.Block) {
	grid, _ := blk.Meta[model.MetaTableRows].([][]string)
	if len(grid) == 0 {
		return
	}
	confidence, _ := blk.Meta[model.MetaTableConfidence].(float64)

	if confidence < lowConfidenceTable {
		// Unreliable column structure: keep the raw rows readable.
		b.WriteString("```\n")
		for _, row := range grid {
			b.WriteString(strings.Join(row, "  "))
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
		return
	}

	writeRow := func(cells []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	writeRow(grid[0])
	sep := make([]string, len(grid[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range grid[1:] {
		writeRow(row)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeFigure(b *strings.Builder, tree *model.DocumentTree, blk *model.Block) {
	id, _ := blk.Meta[model.MetaFigureID].(string)
	alt := ""
	if f := tree.FigureByID(id); f != nil {
		alt = f.Caption
	}
	fmt.Fprintf(b, "![%s](%s/%s.png)\n\n", alt, r.config.ImageDir, id)
}

func (r *Renderer) writeFootnote(b *strings.Builder, blk *model.Block) {
	text := strings.TrimSpace(blk.Text())
	if num, ok := blk.Meta[model.MetaFootnoteNumber].(string); ok {
		body := footnoteLeadRe.ReplaceAllString(text, "")
		fmt.Fprintf(b, "[^%s]: %s\n\n", num, body)
		return
	}
	fmt.Fprintf(b, "%s\n\n", text)
}

var footnoteLeadRe = regexp.MustCompile(`^\s*\d{1,3}[.)]?\s*`)
