package headings

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

var (
	chapterTitleRe = regexp.MustCompile(`(?i)^chapter\s+(\d+)\b`)
	partTitleRe    = regexp.MustCompile(`(?i)^part\s+([ivxlcdm]+|\d+)\b`)
	dottedTitleRe  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\b`)
)

// numberingState is the accumulator threaded through the numbering fold.
// The chapter counter is global and never resets.
type numberingState struct {
	counter int
	seen    map[int]bool
}

// NumberSections classifies promoted titles in pre-order: "Part" headings,
// "Chapter <n>" headings, and dotted section paths. Titles are never
// mutated. An encountered chapter number at or below the running counter is
// an anomaly: the section internally gets the next sequential number while
// the displayed title stays untouched. Dotted-path sibling gaps are
// reported, never healed. Under strict mode a duplicate chapter number is a
// fatal error. Runs strictly after orphan demotion so titles are stable
// before classification.
func NumberSections(tree *model.DocumentTree, config Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	st := &numberingState{seen: make(map[int]bool)}
	return numberSiblings(tree.Sections, st, config, log)
}

func numberSiblings(nodes []*model.SectionNode, st *numberingState, config Config, log *slog.Logger) error {
	var prevPath []int
	for _, n := range nodes {
		switch {
		case chapterTitleRe.MatchString(n.Title):
			if err := assignChapter(n, st, config, log); err != nil {
				return err
			}

		case partTitleRe.MatchString(n.Title):
			m := partTitleRe.FindStringSubmatch(n.Title)
			if order := parseOrdinal(m[1]); order > 0 {
				n.Meta.PartOrder = order
			}

		case dottedTitleRe.MatchString(n.Title):
			m := dottedTitleRe.FindStringSubmatch(n.Title)
			path := parseDottedPath(m[1])
			n.Meta.SectionPath = path
			if gap := siblingGap(prevPath, path); gap > 1 {
				log.Warn("section_number_gap",
					"title", n.Title,
					"path", m[1],
					"gap", gap)
			}
			prevPath = path
		}

		if err := numberSiblings(n.Children, st, config, log); err != nil {
			return err
		}
	}
	return nil
}

func assignChapter(n *model.SectionNode, st *numberingState, config Config, log *slog.Logger) error {
	m := chapterTitleRe.FindStringSubmatch(n.Title)
	num, _ := strconv.Atoi(m[1])

	if st.seen[num] {
		if config.Strict {
			return fault.ParseErr(fault.CodeNumberingStrict,
				"duplicate chapter number in strict mode",
				map[string]any{"chapter": num, "title": n.Title})
		}
		log.Warn("chapter_number_duplicate", "chapter", num, "title", n.Title)
	}
	st.seen[num] = true

	if num <= st.counter {
		st.counter++
		log.Warn("chapter_number_reset",
			"encountered", num,
			"assigned", st.counter,
			"title", n.Title)
	} else {
		st.counter = num
	}
	n.Meta.ChapterNumber = st.counter
	return nil
}

// siblingGap returns the last-segment distance between two same-depth
// sibling paths sharing a prefix, or 0 when the paths are not comparable.
func siblingGap(prev, cur []int) int {
	if prev == nil || len(prev) != len(cur) {
		return 0
	}
	for i := 0; i < len(prev)-1; i++ {
		if prev[i] != cur[i] {
			return 0
		}
	}
	return cur[len(cur)-1] - prev[len(prev)-1]
}

func parseDottedPath(text string) []int {
	parts := strings.Split(text, ".")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		path = append(path, n)
	}
	return path
}

// parseOrdinal reads a decimal or roman numeral; 0 means unparseable.
func parseOrdinal(text string) int {
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	return parseRoman(strings.ToUpper(text))
}

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

func parseRoman(text string) int {
	total := 0
	for i := 0; i < len(text); i++ {
		v, ok := romanValues[text[i]]
		if !ok {
			return 0
		}
		if i+1 < len(text) && romanValues[text[i+1]] > v {
			total -= v
			continue
		}
		total += v
	}
	return total
}
