package postprocess

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tsawler/docforge/model"
)

var footnoteLeadRe = regexp.MustCompile(`^\s*(\d{1,3})[.)]?\s*`)

// markerSizeRatio is the largest font-size ratio (marker to surrounding
// text) still treated as superscript.
const markerSizeRatio = 0.8

// BindFootnotes pairs superscript reference markers found in content blocks
// with the bottom-of-page footnote blocks collected during assembly, keyed
// by page and number. Footnote text with no matching marker is retained but
// left unlinked.
func BindFootnotes(tree *model.DocumentTree, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	markers := collectMarkers(tree)

	seq := 0
	walk := func(slug string, blocks []*model.Block) {
		for _, b := range blocks {
			if b.Type != model.BlockFootnotePlaceholder {
				continue
			}
			page, _ := b.PageSpan()
			text := strings.TrimSpace(b.Text())

			number := ""
			if n, ok := b.Meta[model.MetaFootnoteNumber].(string); ok {
				number = n
			} else if m := footnoteLeadRe.FindStringSubmatch(text); m != nil {
				number = m[1]
			}

			seq++
			fn := &model.Footnote{
				ID:          fmt.Sprintf("fn-%03d", seq),
				Marker:      number,
				Text:        strings.TrimSpace(footnoteLeadRe.ReplaceAllString(text, "")),
				Page:        page,
				SectionSlug: slug,
				Linked:      number != "" && markers[markerKey(page, number)],
			}
			if !fn.Linked {
				log.Info("footnote_unlinked", "id", fn.ID, "page", page, "marker", number)
			}
			tree.Footnotes = append(tree.Footnotes, fn)
		}
	}

	walk("", tree.Preamble)
	for _, n := range tree.PreOrder() {
		walk(n.Slug, n.Blocks)
	}
}

// collectMarkers finds superscript-looking digit spans inside textual
// content: one to three digits rendered well below the block's dominant
// font size.
func collectMarkers(tree *model.DocumentTree) map[string]bool {
	markers := make(map[string]bool)
	scan := func(blocks []*model.Block) {
		for _, b := range blocks {
			if !isTextual(b) {
				continue
			}
			size := b.DominantFontSize()
			scanSpans(b, size, markers)
		}
	}
	scan(tree.Preamble)
	for _, n := range tree.PreOrder() {
		scan(n.Blocks)
	}
	return markers
}

func scanSpans(b *model.Block, dominant float64, markers map[string]bool) {
	for _, s := range b.Spans {
		text := strings.TrimSpace(s.Text)
		if len(text) == 0 || len(text) > 3 || !allDigits(text) {
			continue
		}
		if dominant <= 0 || s.FontSize > dominant*markerSizeRatio {
			continue
		}
		markers[markerKey(s.Page, text)] = true
	}
	for _, item := range b.Items {
		scanSpans(item, dominant, markers)
	}
}

func markerKey(page int, number string) string {
	return fmt.Sprintf("%d:%s", page, strings.TrimLeft(number, "0"))
}

func allDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
