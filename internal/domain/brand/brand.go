// Package brand heuristically derives a brand token from a listing title.
// The result is a soft preference signal for tier scoring, never a hard
// filter, so the extractor returns nothing rather than guessing.
package brand

import (
	"regexp"
	"strings"
	"unicode"
)

// minAcronymLen is the shortest all-caps lead token treated as a brand.
const minAcronymLen = 3

// defaultStoplist holds generic lead words that look like TitleCase brands
// but are not.
var defaultStoplist = []string{
	"the", "a", "an", "new", "pro", "premium", "deluxe", "professional",
	"ultimate", "complete", "best", "top", "kit", "set", "pack",
	"beginner", "beginners", "intermediate", "advanced", "adjustable",
	"portable", "heavy", "large", "small", "mens", "womens", "kids",
	"upgraded", "improved", "original",
}

// knownBrand is one dictionary entry with its precompiled word-boundary
// pattern. Entries keep dictionary order so matching stays deterministic.
type knownBrand struct {
	canonical string
	re        *regexp.Regexp
}

// Extractor matches titles against a known-brand dictionary with a
// first-token fallback.
type Extractor struct {
	known    []knownBrand
	stoplist map[string]struct{}
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithKnownBrands sets the brand dictionary. Matching is case-insensitive
// on word boundaries; the configured casing is returned.
func WithKnownBrands(brands []string) Option {
	return func(e *Extractor) {
		for _, b := range brands {
			b = strings.TrimSpace(b)
			if b == "" {
				continue
			}
			e.known = append(e.known, knownBrand{
				canonical: b,
				re:        regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(b) + `\b`),
			})
		}
	}
}

// WithStoplist replaces the generic-lead-word stoplist.
func WithStoplist(words []string) Option {
	return func(e *Extractor) {
		e.stoplist = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.stoplist[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
}

// NewExtractor creates an Extractor with configuration options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		stoplist: make(map[string]struct{}, len(defaultStoplist)),
	}
	for _, w := range defaultStoplist {
		e.stoplist[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromTitle extracts a brand from a listing title. Dictionary matches win;
// otherwise the first token is accepted when it is an all-caps acronym or a
// TitleCase word outside the stoplist.
func (e *Extractor) FromTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	for _, b := range e.known {
		if b.re.MatchString(title) {
			return b.canonical, true
		}
	}
	return e.leadToken(title)
}

// leadToken applies the first-token heuristic.
func (e *Extractor) leadToken(title string) (string, bool) {
	token := strings.FieldsFunc(title, unicode.IsSpace)[0]
	token = strings.Trim(token, ",.:;()[]|")
	if token == "" || !alphanumeric(token) {
		return "", false
	}
	if _, stopped := e.stoplist[strings.ToLower(token)]; stopped {
		return "", false
	}
	if isAcronym(token) {
		return token, true
	}
	if isTitleCase(token) {
		return token, true
	}
	return "", false
}

// isAcronym reports an all-caps alphanumeric token longer than two runes,
// e.g. "YETI" or "MSR2".
func isAcronym(token string) bool {
	if len([]rune(token)) < minAcronymLen {
		return false
	}
	hasLetter := false
	for _, r := range token {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}

// isTitleCase reports a token with an upper-case first rune followed by
// lower-case letters, e.g. "Wilson".
func isTitleCase(token string) bool {
	runes := []rune(token)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func alphanumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
