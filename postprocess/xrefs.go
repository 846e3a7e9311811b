package postprocess

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// XRefPolicy controls how unresolved references are rendered.
type XRefPolicy string

const (
	// PolicyAnnotate appends an unresolved marker, logging once per
	// unique target key. The default.
	PolicyAnnotate XRefPolicy = "annotate"

	// PolicyKeep leaves unresolved references verbatim.
	PolicyKeep XRefPolicy = "keep"

	// PolicyDrop removes only the matched token.
	PolicyDrop XRefPolicy = "drop"
)

// XRefPattern pairs a target kind with its regex. Group 1 captures the
// number, path, or letter the target key is built from.
type XRefPattern struct {
	Kind    string
	Pattern string
}

// XRefConfig holds configuration for cross-reference resolution.
type XRefConfig struct {
	// Policy applies to unresolved references.
	// Default: annotate
	Policy XRefPolicy

	// Patterns is the ordered matcher list. Empty means the built-in
	// chapter/section/figure/appendix forms.
	Patterns []XRefPattern

	// MaxPerSection caps matches per section; past it resolution stops
	// for that section and a rate-limit event is logged.
	// Default: 64
	MaxPerSection int
}

// DefaultXRefConfig returns sensible default configuration.
func DefaultXRefConfig() XRefConfig {
	return XRefConfig{
		Policy: PolicyAnnotate,
		Patterns: []XRefPattern{
			{Kind: "chapter", Pattern: `(?i)\bchapter\s+(\d+)\b`},
			{Kind: "section", Pattern: `(?i)\bsection\s+(\d+(?:\.\d+)*)\b`},
			{Kind: "figure", Pattern: `(?i)\bfig(?:ure|\.)\s*(\d+)\b`},
			{Kind: "appendix", Pattern: `(?i)\bappendix\s+([A-Za-z])\b`},
		},
		MaxPerSection: 64,
	}
}

type compiledXRef struct {
	kind string
	re   *regexp.Regexp
}

// Validate checks the policy and pattern list without building a resolver.
func (c XRefConfig) Validate() error {
	_, err := c.compile()
	return err
}

// compile validates the policy and compiles the pattern list. An invalid
// pattern is a CONFIG error.
func (c XRefConfig) compile() ([]compiledXRef, error) {
	switch c.Policy {
	case PolicyAnnotate, PolicyKeep, PolicyDrop:
	default:
		return nil, fault.ConfigErr(fault.CodeConfigInvalidValue,
			"unknown cross-reference policy",
			map[string]any{"policy": string(c.Policy)})
	}

	out := make([]compiledXRef, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fault.ConfigErr(fault.CodeConfigRegexInvalid,
				"invalid cross-reference pattern",
				map[string]any{"kind": p.Kind, "pattern": p.Pattern})
		}
		out = append(out, compiledXRef{kind: p.Kind, re: re})
	}
	return out, nil
}

// Resolver scans section text for references and resolves them against the
// slug registries.
type Resolver struct {
	config   XRefConfig
	patterns []compiledXRef
	log      *slog.Logger
}

// NewResolver creates a resolver, compiling the configured patterns.
func NewResolver(config XRefConfig, log *slog.Logger) (*Resolver, error) {
	patterns, err := config.compile()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{config: config, patterns: patterns, log: log}, nil
}

// Resolve scans every section's textual blocks left to right, resolves
// overlapping matches leftmost-then-longest, and records each match with
// its byte offsets in the tree's cross-reference registry. Blocks are
// frozen, so link application happens at render time from the recorded
// offsets. Unresolved targets are logged once per unique key.
func (r *Resolver) Resolve(tree *model.DocumentTree) {
	targets := buildTargets(tree)
	loggedUnresolved := make(map[string]bool)

	for _, n := range tree.PreOrder() {
		matchesLeft := r.config.MaxPerSection
		limited := false

		for bi, blk := range n.Blocks {
			if limited {
				break
			}
			if !isTextual(blk) {
				continue
			}
			text := blk.Text()

			for _, m := range r.matchBlock(text) {
				if matchesLeft == 0 {
					r.log.Warn("xref_rate_limited",
						"section", n.Slug,
						"cap", r.config.MaxPerSection)
					limited = true
					break
				}
				matchesLeft--

				ref := model.CrossReference{
					SectionSlug: n.Slug,
					BlockIndex:  bi,
					Start:       m.start,
					End:         m.end,
					Kind:        m.kind,
					Matched:     text[m.start:m.end],
					TargetKey:   m.key,
				}
				if slug, ok := targets[m.key]; ok {
					ref.TargetSlug = slug
					ref.Resolved = true
				} else if !loggedUnresolved[m.key] {
					loggedUnresolved[m.key] = true
					r.log.Warn("xref_unresolved",
						"key", m.key, "section", n.Slug)
				}
				tree.CrossRefs = append(tree.CrossRefs, ref)
			}
		}
	}
}

type xrefMatch struct {
	start, end int
	kind       string
	key        string
}

// matchBlock collects matches from every pattern and resolves overlaps
// leftmost-then-longest.
func (r *Resolver) matchBlock(text string) []xrefMatch {
	var all []xrefMatch
	for _, p := range r.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if loc[2] < 0 {
				continue
			}
			all = append(all, xrefMatch{
				start: loc[0],
				end:   loc[1],
				kind:  p.kind,
				key:   targetKey(p.kind, text[loc[2]:loc[3]]),
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	out := all[:0]
	lastEnd := -1
	for _, m := range all {
		if m.start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.end
	}
	return out
}

// targetKey normalizes a captured reference to its registry key.
func targetKey(kind, captured string) string {
	return kind + ":" + strings.ToUpper(strings.TrimSpace(captured))
}

// buildTargets maps normalized target keys to slugs from the section and
// figure registries.
func buildTargets(tree *model.DocumentTree) map[string]string {
	targets := make(map[string]string)
	for _, n := range tree.PreOrder() {
		if n.Meta.ChapterNumber > 0 {
			targets[targetKey("chapter", strconv.Itoa(n.Meta.ChapterNumber))] = n.Slug
		}
		if len(n.Meta.SectionPath) > 0 {
			targets[targetKey("section", joinPath(n.Meta.SectionPath))] = n.Slug
		}
		if n.Meta.AppendixLetter != "" {
			targets[targetKey("appendix", n.Meta.AppendixLetter)] = n.Slug
		}
	}
	for i, f := range tree.Figures {
		targets[targetKey("figure", strconv.Itoa(i+1))] = f.Slug
	}
	return targets
}

func joinPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ".")
}

func isTextual(b *model.Block) bool {
	switch b.Type {
	case model.BlockParagraph, model.BlockCallout, model.BlockList, model.BlockListItem:
		return true
	}
	return false
}
