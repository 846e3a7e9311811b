package blocks

import (
	"math"
	"regexp"
	"strings"

	"github.com/tsawler/docforge/model"
)

// Heuristic language hints keyed by tokens that commonly open a snippet.
var languageHints = []struct {
	re   *regexp.Regexp
	lang string
}{
	{regexp.MustCompile(`^(package|func|import)\b`), "go"},
	{regexp.MustCompile(`^(def|class|import|from)\b.*:?$`), "python"},
	{regexp.MustCompile(`^(function|const|let|var)\b`), "javascript"},
	{regexp.MustCompile(`^(SELECT|INSERT|UPDATE|DELETE|CREATE)\b`), "sql"},
	{regexp.MustCompile(`^[$#]\s`), "shell"},
	{regexp.MustCompile(`^\s*[<{\[]`), ""},
}

// assembleCode builds a code block from a qualifying line run. The raw line
// text, leading whitespace reconstructed from geometry, is preserved in
// block metadata so rendering can emit it verbatim.
func (a *Assembler) assembleCode(lines []*line) *model.Block {
	b := newBlockFromLines(model.BlockCode, lines)

	leftEdge := math.Inf(1)
	for _, ln := range lines {
		if ln.indent < leftEdge {
			leftEdge = ln.indent
		}
	}

	rendered := make([]string, 0, len(lines))
	for _, ln := range lines {
		rendered = append(rendered, reconstructCodeLine(ln, leftEdge))
	}
	b.Meta[model.MetaCodeLines] = rendered

	if lang := guessLanguage(rendered); lang != "" {
		b.Meta[model.MetaCodeLanguage] = lang
	}
	return b
}

// reconstructCodeLine rebuilds leading indentation from the line's X offset
// relative to the block's left edge, approximating one space per half font
// size.
func reconstructCodeLine(ln *line, leftEdge float64) string {
	spaceWidth := ln.fontSize * 0.5
	if spaceWidth <= 0 {
		spaceWidth = 5
	}
	indent := int(math.Round((ln.indent - leftEdge) / spaceWidth))
	if indent < 0 {
		indent = 0
	}
	return strings.Repeat(" ", indent) + strings.TrimRight(ln.text, " \t")
}

func guessLanguage(lines []string) string {
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" {
			continue
		}
		for _, hint := range languageHints {
			if hint.re.MatchString(trimmed) {
				return hint.lang
			}
		}
		return ""
	}
	return ""
}
