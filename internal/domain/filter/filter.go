// Package filter rejects structurally invalid, excluded-keyword, bulk-pack,
// and low-confidence marketplace candidates before tier selection. Rejection
// reasons are reported so callers can count them; individual rejects are
// never surfaced as errors.
package filter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kitforge/kitforge/internal/domain/model"
)

// Rejection reasons reported by Inspect.
const (
	ReasonMissingField = "missing_field"
	ReasonWrongDomain  = "wrong_domain"
	ReasonExcluded     = "excluded_keyword"
	ReasonBulkPack     = "bulk_pack"
	ReasonLowQuality   = "low_quality"
	ReasonIrrelevant   = "irrelevant_title"
)

var (
	// bulkPackRe matches "3-pack", "3 pack", "12 count" and similar.
	bulkPackRe = regexp.MustCompile(`(?i)\b\d+\s*[- ]?\s*(?:pack|count|pk|ct)\b`)
	// packOfRe matches "pack of 6" and similar.
	packOfRe = regexp.MustCompile(`(?i)\b(?:pack|set|box)\s+of\s+\d+\b`)
	// pluralTrimRe strips a simple plural or possessive suffix from a term.
	pluralTrimRe = regexp.MustCompile(`(?:'s|s)$`)
)

// genericModifiers are category-label words that carry no product identity
// and are dropped when deriving core terms.
var genericModifiers = map[string]struct{}{
	"set": {}, "kit": {}, "guide": {}, "gear": {}, "equipment": {},
	"for": {}, "beginner": {}, "beginners": {}, "basic": {}, "starter": {},
	"essential": {}, "essentials": {}, "a": {}, "an": {}, "the": {},
}

// mediaTerms are instructional-media words that only disqualify a listing
// when the category itself is not a book category.
var mediaTerms = []string{"book", "paperback", "hardcover", "dvd", "workbook", "handbook", "audiobook"}

// Filter applies the candidate rejection rules. Keyword lists and
// thresholds are injected so tests can substitute minimal fixtures.
type Filter struct {
	domain           string
	exclusions       []string
	minRating        float64
	minReviews       int
	requireRelevance bool
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithMarketplaceDomain restricts candidate URLs to the given host suffix.
func WithMarketplaceDomain(domain string) Option {
	return func(f *Filter) {
		f.domain = strings.ToLower(strings.TrimSpace(domain))
	}
}

// WithExclusionKeywords sets the title keywords that disqualify a listing.
func WithExclusionKeywords(words []string) Option {
	return func(f *Filter) {
		f.exclusions = make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				f.exclusions = append(f.exclusions, w)
			}
		}
	}
}

// WithQualityBar sets the minimum-confidence thresholds. A candidate is
// rejected only when rating AND review count are both below the bar.
func WithQualityBar(minRating float64, minReviews int) Option {
	return func(f *Filter) {
		if minRating >= 0 {
			f.minRating = minRating
		}
		if minReviews >= 0 {
			f.minReviews = minReviews
		}
	}
}

// WithTitleRelevance enables the core-term title relevance check.
func WithTitleRelevance(enabled bool) Option {
	return func(f *Filter) {
		f.requireRelevance = enabled
	}
}

// New creates a Filter with configuration options.
func New(opts ...Option) *Filter {
	f := &Filter{
		minRating:        3.0,
		minReviews:       5,
		requireRelevance: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply returns the candidates that survive every rejection rule, in input
// order. The reasons map counts rejects per reason for metrics.
func (f *Filter) Apply(sel model.SelectionContext, in []model.Candidate) ([]model.Candidate, map[string]int) {
	out := make([]model.Candidate, 0, len(in))
	reasons := make(map[string]int)
	terms := CoreTerms(sel.ProductType)
	for _, c := range in {
		if reason, rejected := f.Inspect(sel, terms, c); rejected {
			reasons[reason]++
			continue
		}
		out = append(out, c)
	}
	return out, reasons
}

// Inspect applies the rejection rules to one candidate and reports the
// first matching rejection reason.
func (f *Filter) Inspect(sel model.SelectionContext, coreTerms []string, c model.Candidate) (string, bool) {
	if strings.TrimSpace(c.Title) == "" || c.ImageURL == "" || c.PriceText == "" || c.URL == "" {
		return ReasonMissingField, true
	}
	if !f.fromMarketplace(c.URL) {
		return ReasonWrongDomain, true
	}
	title := strings.ToLower(c.Title)
	if f.excluded(sel.ProductType, title) {
		return ReasonExcluded, true
	}
	if bulkPackRe.MatchString(title) || packOfRe.MatchString(title) {
		return ReasonBulkPack, true
	}
	if c.Rating < f.minRating && c.Reviews < f.minReviews {
		return ReasonLowQuality, true
	}
	if f.requireRelevance && !TitleMatches(coreTerms, title) {
		return ReasonIrrelevant, true
	}
	return "", false
}

// fromMarketplace reports whether the URL host belongs to the configured
// marketplace domain. An empty configured domain accepts any host.
func (f *Filter) fromMarketplace(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if f.domain == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	return host == f.domain || strings.HasSuffix(host, "."+f.domain)
}

// excluded reports whether the lower-cased title contains an exclusion
// keyword. Instructional-media terms are skipped for book categories.
func (f *Filter) excluded(productType, title string) bool {
	bookCategory := isBookCategory(productType)
	for _, kw := range f.exclusions {
		if bookCategory && isMediaTerm(kw) {
			continue
		}
		if containsWord(title, kw) {
			return true
		}
	}
	if !bookCategory {
		for _, kw := range mediaTerms {
			if containsWord(title, kw) {
				return true
			}
		}
	}
	return false
}

func isBookCategory(productType string) bool {
	p := strings.ToLower(productType)
	return strings.Contains(p, "book") || strings.Contains(p, "guide")
}

func isMediaTerm(kw string) bool {
	for _, m := range mediaTerms {
		if kw == m {
			return true
		}
	}
	return false
}

// CoreTerms derives the normalized keywords a relevant listing title must
// contain from a category label. Generic modifiers are dropped and simple
// plural/possessive suffixes stripped.
func CoreTerms(label string) []string {
	fields := strings.Fields(strings.ToLower(label))
	terms := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ",.:;()&/")
		if w == "" {
			continue
		}
		if _, generic := genericModifiers[w]; generic {
			continue
		}
		if len(w) > 3 {
			w = pluralTrimRe.ReplaceAllString(w, "")
		}
		terms = append(terms, w)
	}
	return terms
}

// TitleMatches reports whether every core term appears in the lower-cased
// title, tolerating simple plural differences. An empty term list matches
// everything.
func TitleMatches(coreTerms []string, lowerTitle string) bool {
	for _, term := range coreTerms {
		if !strings.Contains(lowerTitle, term) {
			return false
		}
	}
	return true
}

// containsWord reports whether needle occurs in haystack on word
// boundaries. Multi-word needles match as a phrase.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
