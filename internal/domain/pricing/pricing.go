// Package pricing parses heterogeneous marketplace price, rating, and
// review-count text into comparable numeric values. All parsers are total:
// malformed input yields a sentinel value, never an error, because absence
// of a valid number is data rather than a failure.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRe captures the first numeric value in comma-stripped text.
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// ratingRe captures a numeric rating in the 0.0-5.0 range.
	ratingRe = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
	// reviewsRe captures a count with an optional K/M magnitude suffix.
	reviewsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kKmM])?`)
)

// Unpriced is the sentinel returned when price text cannot be parsed.
// It sorts after every real price, so an unpriced listing is never
// mistaken for the cheapest.
func Unpriced() float64 { return math.Inf(1) }

// IsUnpriced reports whether v is the unparseable-price sentinel.
func IsUnpriced(v float64) bool { return math.IsInf(v, 1) }

// Normalize converts raw price text into a comparable float64. Currency
// symbols and thousands separators are ignored; a range such as
// "$19.99 - $39.99" yields the lower bound, which is the first number in
// the conventional low-high notation. Parse failures return Unpriced().
func Normalize(priceText string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(priceText), ",", "")
	if s == "" {
		return Unpriced()
	}
	m := numberRe.FindString(s)
	if m == "" {
		return Unpriced()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return Unpriced()
	}
	return v
}

// ParseRating extracts a 0.0-5.0 rating from text such as
// "4.5 out of 5 stars". Absent or malformed ratings yield 0.
func ParseRating(ratingText string) float64 {
	m := ratingRe.FindStringSubmatch(ratingText)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 5 {
		return 0
	}
	return v
}

// ParseReviewCount extracts a review count from text such as "1,234" or
// "1.2K ratings". Absent or malformed counts yield 0.
func ParseReviewCount(text string) int {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	m := reviewsRe.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	return int(v)
}
