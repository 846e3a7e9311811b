package headings

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

var defaultAppendixRe = regexp.MustCompile(`(?i)^appendix\s+([A-Za-z])\b`)

// CompileAppendixPatterns compiles the user patterns that run ahead of the
// built-in appendix matcher. An invalid pattern is a CONFIG error.
func CompileAppendixPatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns)+1)
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fault.ConfigErr(fault.CodeConfigRegexInvalid,
				"invalid appendix pattern", map[string]any{"pattern": p})
		}
		res = append(res, re)
	}
	return append(res, defaultAppendixRe), nil
}

// DetectAppendices runs after numbering. It matches appendix titles against
// the ordered pattern list (user patterns first), ignoring any appendix
// that appears before the first detected chapter. Honored letters must be
// strictly increasing; a duplicate letter demotes the heading to an
// ordinary section, fatally under strict mode. When the page-break rule is
// on, an appendix heading that is not the first block on its page is not
// honored. pageFirstOrder maps each page to the smallest span order index
// appearing on it.
func DetectAppendices(tree *model.DocumentTree, config Config, pageFirstOrder map[int]int, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	patterns, err := CompileAppendixPatterns(config.AppendixPatterns)
	if err != nil {
		return err
	}

	chapterSeen := false
	lastLetter := ""
	honored := make(map[string]bool)
	for _, n := range tree.PreOrder() {
		if n.Meta.ChapterNumber > 0 {
			chapterSeen = true
			continue
		}
		letter := matchAppendixLetter(patterns, n.Title)
		if letter == "" {
			continue
		}
		if !chapterSeen {
			log.Warn("appendix_early_ignored", "title", n.Title)
			continue
		}
		if config.AppendixRequirePageBreak && !firstOnPage(n, pageFirstOrder) {
			log.Warn("appendix_missing_page_break",
				"title", n.Title, "page", n.PageFirst)
			continue
		}
		// Membership is checked before the ordering rule so a repeated
		// letter after an intervening one ("A, B, A") still counts as a
		// duplicate rather than a mere ordering anomaly.
		if honored[letter] {
			if config.Strict {
				return fault.ParseErr(fault.CodeNumberingStrict,
					"duplicate appendix letter in strict mode",
					map[string]any{"letter": letter, "title": n.Title})
			}
			log.Warn("appendix_duplicate_letter", "letter", letter, "title", n.Title)
			continue
		}
		if lastLetter != "" && letter < lastLetter {
			log.Warn("appendix_out_of_order",
				"letter", letter, "previous", lastLetter, "title", n.Title)
			continue
		}

		n.Meta.AppendixLetter = letter
		lastLetter = letter
		honored[letter] = true
	}
	return nil
}

func matchAppendixLetter(patterns []*regexp.Regexp, title string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(title); m != nil && len(m) > 1 {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// firstOnPage reports whether the section's heading opens its page.
func firstOnPage(n *model.SectionNode, pageFirstOrder map[int]int) bool {
	if n.Heading == nil {
		return false
	}
	page, _ := n.Heading.PageSpan()
	first, ok := pageFirstOrder[page]
	return ok && n.Heading.FirstOrderIndex() == first
}

// PageFirstOrder builds the page-to-earliest-order-index map the appendix
// page-break rule consumes, from the full assembled block sequence.
func PageFirstOrder(blocks []*model.Block) map[int]int {
	out := make(map[int]int)
	for _, b := range blocks {
		page, _ := b.PageSpan()
		if page == 0 {
			continue
		}
		idx := b.FirstOrderIndex()
		if idx < 0 {
			continue
		}
		if cur, ok := out[page]; !ok || idx < cur {
			out[page] = idx
		}
	}
	return out
}
