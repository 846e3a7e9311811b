// Package repair merges hyphen-broken line wraps in the retained span
// stream. It runs strictly after noise removal (so a removed header can
// never sit between the two halves of a word) and before block assembly.
// This is the only stage permitted to replace span text.
package repair

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/tsawler/docforge/model"
)

// hyphenBreakRe matches a trailing word of three or more letters ending in
// a hyphen, the signature of a wrapped word.
var hyphenBreakRe = regexp.MustCompile(`([A-Za-z]{3,})-$`)

// Config holds configuration for hyphenation repair.
type Config struct {
	// Exceptions lists hyphenated domain tokens that must never be
	// de-hyphenated (e.g. "e-mail", "x-ray"). Comparison is
	// case-insensitive against the rejoined candidate word.
	Exceptions []string
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{}
}

// Repairer performs hyphenation and line repair over retained spans.
type Repairer struct {
	config     Config
	exceptions map[string]bool
	log        *slog.Logger
}

// NewRepairer creates a repairer.
func NewRepairer(config Config, log *slog.Logger) *Repairer {
	if log == nil {
		log = slog.Default()
	}
	exceptions := make(map[string]bool, len(config.Exceptions))
	for _, e := range config.Exceptions {
		exceptions[strings.ToLower(e)] = true
	}
	return &Repairer{config: config, exceptions: exceptions, log: log}
}

// Repair merges each span ending in a hyphen-broken word with the
// immediately following span when that span begins with a lowercase letter.
// The merged span keeps the first span's order index, so order-index
// continuity is preserved; no retained text is ever dropped.
func (r *Repairer) Repair(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return nil
	}

	out := make([]model.Span, 0, len(spans))
	merged := 0
	for i := 0; i < len(spans); i++ {
		s := spans[i]
		for i+1 < len(spans) && r.shouldMerge(s, spans[i+1]) {
			next := spans[i+1]
			s = mergeSpans(s, next)
			i++
			merged++
		}
		out = append(out, s)
	}

	if merged > 0 {
		r.log.Debug("hyphenation_repaired", "merged", merged)
	}
	return out
}

// shouldMerge reports whether next continues a word broken at the end of s.
func (r *Repairer) shouldMerge(s, next model.Span) bool {
	trimmed := strings.TrimRight(s.Text, " \t")
	m := hyphenBreakRe.FindStringSubmatch(trimmed)
	if m == nil {
		return false
	}

	nextText := strings.TrimLeft(next.Text, " \t")
	if nextText == "" {
		return false
	}
	first := []rune(nextText)[0]
	if !unicode.IsLower(first) {
		return false
	}

	// Domain tokens keep their hyphen.
	continuation := firstWord(nextText)
	candidate := strings.ToLower(m[1] + "-" + continuation)
	return !r.exceptions[candidate]
}

// mergeSpans joins a hyphen-broken span with its continuation, dropping
// the hyphen. The result occupies the first span's position in the stream.
func mergeSpans(s, next model.Span) model.Span {
	trimmed := strings.TrimRight(s.Text, " \t")
	joined := trimmed[:len(trimmed)-1] + strings.TrimLeft(next.Text, " \t")

	merged := s
	merged.Text = joined
	if s.Page == next.Page {
		merged.BBox = s.BBox.Union(next.BBox)
	}
	return merged
}

func firstWord(text string) string {
	for i, r := range text {
		if unicode.IsSpace(r) {
			return text[:i]
		}
	}
	return text
}
