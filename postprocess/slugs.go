// Package postprocess refines the finished tree shape: deterministic slug
// assignment, figure caption binding, cross-reference resolution, and
// footnote linking. Nothing here restructures the tree; blocks are frozen
// by the time they arrive.
package postprocess

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// SlugConfig holds configuration for slug assignment.
type SlugConfig struct {
	// PrefixWidth is the zero-padded width of the ordinal prefix.
	// Default: 3
	PrefixWidth int

	// MaxSuffix is the highest collision suffix tried before the run
	// aborts with an unresolvable collision.
	// Default: 9
	MaxSuffix int
}

// DefaultSlugConfig returns sensible default configuration.
func DefaultSlugConfig() SlugConfig {
	return SlugConfig{PrefixWidth: 3, MaxSuffix: 9}
}

// asciiFold strips diacritics by decomposing and dropping combining marks.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, folds diacritics, and collapses every non-alphanumeric
// run into a single hyphen.
func Slugify(title string) string {
	folded, _, err := transform.String(asciiFold, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "section"
	}
	return out
}

// AssignSlugs gives every surviving section and figure a deterministic slug:
// the zero-padded promotion ordinal plus the slugified title. Ordinals
// consumed by demoted sections leave stable gaps in the prefixes. A
// collision appends -2, -3, ... up to the configured bound; exhausting the
// bound is a fatal failure, never a silent truncation.
func AssignSlugs(tree *model.DocumentTree, config SlugConfig, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	tree.Slugs = make(map[string]model.SlugKind)

	for _, n := range tree.PreOrder() {
		base := fmt.Sprintf("%0*d-%s", config.PrefixWidth, n.Meta.Ordinal, Slugify(n.Title))
		slug, err := reserve(tree.Slugs, base, model.SlugSection, config.MaxSuffix)
		if err != nil {
			return err
		}
		n.Slug = slug
	}

	// Figure slugs come from the stable figure id, not the caption, so
	// caption binding can never perturb them.
	for _, f := range tree.Figures {
		slug, err := reserve(tree.Slugs, Slugify(f.ID), model.SlugFigure, config.MaxSuffix)
		if err != nil {
			return err
		}
		f.Slug = slug
	}

	log.Debug("slugs_assigned", "count", len(tree.Slugs))
	return nil
}

// reserve claims a unique slug in the registry, trying suffixed variants on
// collision.
func reserve(registry map[string]model.SlugKind, base string, kind model.SlugKind, maxSuffix int) (string, error) {
	if _, taken := registry[base]; !taken {
		registry[base] = kind
		return base, nil
	}
	for i := 2; i <= maxSuffix; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, taken := registry[candidate]; !taken {
			registry[candidate] = kind
			return candidate, nil
		}
	}
	return "", fault.ParseErr(fault.CodeSlugCollision,
		"slug collision suffixes exhausted",
		map[string]any{"base": base, "max_suffix": maxSuffix})
}
