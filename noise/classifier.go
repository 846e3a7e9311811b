// Package noise classifies repeated header, footer, and page-number spans
// so they can be excluded before any content assembly. Classification is a
// pure partition of the span stream into retained and removed sets; it
// never rewrites text.
package noise

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// pageNumberRe matches standalone page numbers ("7", "page 12"). Matches
// are always removable unless their page is explicitly protected.
var pageNumberRe = regexp.MustCompile(`^(?i)(page\s+)?\d{1,4}$`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Config holds configuration for noise classification.
type Config struct {
	// HeaderBandRatio is the fraction of the page height from the top
	// that counts as the header candidate band.
	// Default: 0.12
	HeaderBandRatio float64

	// FooterBandRatio is the fraction of the page height from the bottom
	// that counts as the footer candidate band.
	// Default: 0.12
	FooterBandRatio float64

	// RepetitionThreshold is the minimum fraction of pages a normalized
	// candidate must appear on to be removable by frequency.
	// Default: 0.5
	RepetitionThreshold float64

	// MaxNormalizedLength is the maximum normalized text length (in
	// runes) for a frequency-based removal.
	// Default: 80
	MaxNormalizedLength int

	// MaxDropRatio is the circuit breaker: when the fraction of spans
	// flagged for removal exceeds it, the run aborts with a PARSE error.
	// Default: 0.4
	MaxDropRatio float64

	// BlockPatterns are user regexes whose matches are removable even
	// below the repetition threshold.
	BlockPatterns []string

	// AllowPatterns are user regexes that protect matching candidates
	// from removal. The allowlist is evaluated last and always wins.
	AllowPatterns []string

	// ProtectedPages lists 1-based pages whose standalone page numbers
	// are kept.
	ProtectedPages []int

	// MinPages is the minimum page count for frequency classification.
	// Below it, only blocklist and page-number rules apply.
	// Default: 2
	MinPages int

	blockRes []*regexp.Regexp
	allowRes []*regexp.Regexp
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		HeaderBandRatio:     0.12,
		FooterBandRatio:     0.12,
		RepetitionThreshold: 0.5,
		MaxNormalizedLength: 80,
		MaxDropRatio:        0.4,
		MinPages:            2,
	}
}

// Compile validates numeric domains and compiles the user patterns. It must
// be called before Classify; an invalid pattern is a CONFIG error.
func (c *Config) Compile() error {
	if c.HeaderBandRatio < 0 || c.HeaderBandRatio > 0.5 {
		return fault.ConfigErr(fault.CodeConfigInvalidValue,
			"header band ratio must be in [0, 0.5]",
			map[string]any{"header_band_ratio": c.HeaderBandRatio})
	}
	if c.FooterBandRatio < 0 || c.FooterBandRatio > 0.5 {
		return fault.ConfigErr(fault.CodeConfigInvalidValue,
			"footer band ratio must be in [0, 0.5]",
			map[string]any{"footer_band_ratio": c.FooterBandRatio})
	}
	if c.RepetitionThreshold <= 0 || c.RepetitionThreshold > 1 {
		return fault.ConfigErr(fault.CodeConfigInvalidValue,
			"repetition threshold must be in (0, 1]",
			map[string]any{"repetition_threshold": c.RepetitionThreshold})
	}
	if c.MaxDropRatio <= 0 || c.MaxDropRatio > 1 {
		return fault.ConfigErr(fault.CodeConfigInvalidValue,
			"max drop ratio must be in (0, 1]",
			map[string]any{"max_drop_ratio": c.MaxDropRatio})
	}

	var err error
	if c.blockRes, err = compilePatterns(c.BlockPatterns); err != nil {
		return err
	}
	c.allowRes, err = compilePatterns(c.AllowPatterns)
	return err
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fault.ConfigErr(fault.CodeConfigRegexInvalid,
				"invalid noise pattern", map[string]any{"pattern": p})
		}
		res = append(res, re)
	}
	return res, nil
}

// Result is the partition produced by classification.
type Result struct {
	// Retained are the spans admitted into content assembly, in original
	// order.
	Retained []model.Span

	// Removed are the spans flagged as noise, in original order.
	Removed []model.Span

	// RemovedCounts maps each removed normalized text to its occurrence
	// count, for auditing.
	RemovedCounts map[string]int
}

// Classifier partitions spans into retain and remove sets.
type Classifier struct {
	config Config
	log    *slog.Logger
}

// NewClassifier creates a classifier. The config must already be compiled.
func NewClassifier(config Config, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{config: config, log: log}
}

// Classify partitions the spans. Pages without geometry contribute no
// candidates (their spans are always retained). The classification order is
// fixed: frequency rule, then blocklist, then allowlist; the allowlist
// always wins. Classify aborts with a PARSE error when the removal count
// exceeds the configured drop ratio.
func (c *Classifier) Classify(spans []model.Span, pages []model.PageGeometry) (*Result, error) {
	geometry := make(map[int]model.PageGeometry, len(pages))
	for _, p := range pages {
		geometry[p.Page] = p
	}
	protected := make(map[int]bool, len(c.config.ProtectedPages))
	for _, p := range c.config.ProtectedPages {
		protected[p] = true
	}

	totalPages := len(geometry)
	if totalPages == 0 {
		totalPages = countPages(spans)
	}

	// Pass 1: frequency of normalized band candidates, by distinct page.
	bandPages := make(map[string]map[int]bool)
	for _, s := range spans {
		if !c.inBand(s, geometry) {
			continue
		}
		norm := Normalize(s.Text)
		if norm == "" {
			continue
		}
		if bandPages[norm] == nil {
			bandPages[norm] = make(map[int]bool)
		}
		bandPages[norm][s.Page] = true
	}

	// Pass 2: partition in original order.
	result := &Result{RemovedCounts: make(map[string]int)}
	for _, s := range spans {
		if c.removable(s, geometry, bandPages, totalPages, protected) {
			norm := Normalize(s.Text)
			if result.RemovedCounts[norm] == 0 {
				c.log.Info("noise_removed",
					"text", norm,
					"pages", len(bandPages[norm]))
			}
			result.RemovedCounts[norm]++
			c.log.Debug("noise_removed_occurrence",
				"text", norm, "page", s.Page, "order_index", s.OrderIndex)
			result.Removed = append(result.Removed, s)
			continue
		}
		result.Retained = append(result.Retained, s)
	}

	if len(spans) > 0 {
		ratio := float64(len(result.Removed)) / float64(len(spans))
		if ratio > c.config.MaxDropRatio {
			return nil, fault.ParseErr(fault.CodeOverRemoval,
				"noise removal exceeds configured drop ratio",
				map[string]any{
					"removed":        len(result.Removed),
					"total":          len(spans),
					"max_drop_ratio": c.config.MaxDropRatio,
				})
		}
	}

	uniques := make([]string, 0, len(result.RemovedCounts))
	for k := range result.RemovedCounts {
		uniques = append(uniques, k)
	}
	sort.Strings(uniques)
	c.log.Info("noise_summary",
		"removed_spans", len(result.Removed),
		"retained_spans", len(result.Retained),
		"unique_texts", len(uniques))

	return result, nil
}

func (c *Classifier) removable(s model.Span, geometry map[int]model.PageGeometry, bandPages map[string]map[int]bool, totalPages int, protected map[int]bool) bool {
	if !c.inBand(s, geometry) {
		return false
	}
	norm := Normalize(s.Text)
	if norm == "" {
		return false
	}

	// Frequency classification.
	freqOK := false
	if totalPages >= c.config.MinPages {
		freq := float64(len(bandPages[norm])) / float64(totalPages)
		freqOK = freq >= c.config.RepetitionThreshold &&
			len([]rune(norm)) <= c.config.MaxNormalizedLength
	}

	// Blocklist.
	blocked := false
	for _, re := range c.config.blockRes {
		if re.MatchString(norm) {
			blocked = true
			break
		}
	}

	// Standalone page numbers are removable regardless of frequency
	// unless the page is protected.
	pageNum := pageNumberRe.MatchString(norm) && !protected[s.Page]

	if !freqOK && !blocked && !pageNum {
		return false
	}

	// Allowlist wins last.
	for _, re := range c.config.allowRes {
		if re.MatchString(norm) {
			return false
		}
	}
	return true
}

func (c *Classifier) inBand(s model.Span, geometry map[int]model.PageGeometry) bool {
	geo, ok := geometry[s.Page]
	if !ok || geo.Height <= 0 {
		return false
	}
	headerLimit := geo.Height * c.config.HeaderBandRatio
	footerLimit := geo.Height * (1 - c.config.FooterBandRatio)
	return s.BBox.Bottom() <= headerLimit || s.BBox.Top() >= footerLimit
}

// Normalize trims, collapses internal whitespace, and lowercases candidate
// text for frequency comparison.
func Normalize(text string) string {
	return strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " "))
}

func countPages(spans []model.Span) int {
	pages := make(map[int]bool)
	for _, s := range spans {
		pages[s.Page] = true
	}
	return len(pages)
}
