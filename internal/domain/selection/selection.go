// Package selection implements the tiered selection engine: given a
// filtered candidate pool it deterministically assigns up to three listings
// to the essential, premium, and luxury tiers while preserving price
// ordering and never reusing a listing across tiers.
package selection

import (
	"sort"

	"github.com/kitforge/kitforge/internal/domain/model"
	"github.com/kitforge/kitforge/internal/domain/pricing"
)

// Default selection thresholds.
const (
	defaultEssentialMinRating  = 3.5
	defaultEssentialMinReviews = 10
	defaultLuxuryMinRating     = 4.0
	defaultLuxuryMinReviews    = 20
	defaultPremiumMinRating    = 3.5
	defaultPriceSeparation     = 1.2
	defaultBrandBonus          = 0.5
	defaultHintWeight          = 0.25
)

// Selector picks tier assignments from a filtered candidate pool. The
// zero-value thresholds come from New; inject others via options.
type Selector struct {
	essentialMinRating  float64
	essentialMinReviews int
	luxuryMinRating     float64
	luxuryMinReviews    int
	premiumMinRating    float64
	separation          float64
	brandBonus          float64
	hintWeight          float64
	observer            func(tier model.Tier, stage string)
}

// New creates a Selector with configuration options.
func New(opts ...Option) *Selector {
	s := &Selector{
		essentialMinRating:  defaultEssentialMinRating,
		essentialMinReviews: defaultEssentialMinReviews,
		luxuryMinRating:     defaultLuxuryMinRating,
		luxuryMinReviews:    defaultLuxuryMinReviews,
		premiumMinRating:    defaultPremiumMinRating,
		separation:          defaultPriceSeparation,
		brandBonus:          defaultBrandBonus,
		hintWeight:          defaultHintWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select assigns up to three candidates to tiers. The input pool must
// already have passed the candidate filter; Select never returns an error
// because a partial or empty tier set is legitimate output. Identical input
// and configuration always yield identical output.
func (s *Selector) Select(sel model.SelectionContext, pool []model.Candidate) []model.TierPick {
	if len(pool) == 0 {
		return nil
	}
	pool = sortCandidates(pool)

	essential := s.pickEssential(pool)
	anchor := essential.Brand
	pool = consume(pool, essential.URL)

	var (
		luxury  model.Candidate
		haveLux bool
	)
	for _, strategy := range s.luxuryStrategies(essential, anchor) {
		if c, ok := strategy.Pick(pool); ok {
			luxury, haveLux = c, true
			if strategy.Name != stageStrict {
				s.observe(model.TierLuxury, strategy.Name)
			}
			break
		}
	}
	if haveLux {
		pool = consume(pool, luxury.URL)
	}

	premium, havePrem := s.pickPremium(sel, pool, essential, luxury, haveLux, anchor)
	if havePrem {
		pool = consume(pool, premium.URL)
	}

	// Backfill missing tiers from the leftover pool, keeping whatever price
	// ordering the already-assigned neighbors impose.
	if !havePrem {
		if c, ok := s.backfillPremium(sel, pool, essential, luxury, haveLux); ok {
			premium, havePrem = c, true
			pool = consume(pool, premium.URL)
			s.observe(model.TierPremium, stageBackfill)
		}
	}
	if !haveLux {
		lower := essential
		if havePrem {
			lower = premium
		}
		if c, ok := s.backfillLuxury(sel, pool, lower); ok {
			luxury, haveLux = c, true
			s.observe(model.TierLuxury, stageBackfill)
		}
	}

	picks := make([]model.TierPick, 0, 3)
	picks = append(picks, model.TierPick{Tier: model.TierEssential, Listing: essential})
	if havePrem {
		picks = append(picks, model.TierPick{Tier: model.TierPremium, Listing: premium})
	}
	if haveLux {
		picks = append(picks, model.TierPick{Tier: model.TierLuxury, Listing: luxury})
	}
	return picks
}

// pickEssential returns the cheapest candidate meeting the moderate quality
// bar, falling back to the globally cheapest candidate: when any candidate
// survived filtering the engine prefers returning something over nothing.
func (s *Selector) pickEssential(pool []model.Candidate) model.Candidate {
	for _, c := range pool {
		if c.Rating >= s.essentialMinRating && c.Reviews >= s.essentialMinReviews {
			return c
		}
	}
	s.observe(model.TierEssential, stageCheapest)
	return pool[0]
}

// meetsModerateBar is the qualification check shared by essential picking
// and backfill.
func (s *Selector) meetsModerateBar(c model.Candidate) bool {
	return c.Rating >= s.essentialMinRating && c.Reviews >= s.essentialMinReviews
}

// contextBias returns a small additive score bonus from the optional budget
// and persona hints. Hints bias scoring only and never exclude a candidate.
func (s *Selector) contextBias(c model.Candidate, sel model.SelectionContext) float64 {
	var b float64
	if sel.MinPrice > 0 && c.Price < sel.MinPrice {
		b -= s.hintWeight
	}
	if sel.MaxPrice > 0 && c.Price > sel.MaxPrice {
		b -= s.hintWeight
	}
	if sel.Experience == "beginner" && s.meetsModerateBar(c) {
		b += s.hintWeight
	}
	return b
}

func (s *Selector) observe(tier model.Tier, stage string) {
	if s.observer != nil {
		s.observer(tier, stage)
	}
}

// sortCandidates orders a copy of the pool ascending by normalized price,
// breaking ties by rating descending and url ascending so repeated runs see
// the same order. Unpriced listings sort last.
func sortCandidates(in []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.URL < b.URL
	})
	return out
}

// consume removes the assigned listing from the pool so no listing is
// reused by a later tier.
func consume(pool []model.Candidate, url string) []model.Candidate {
	out := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.URL != url {
			out = append(out, c)
		}
	}
	return out
}

// priced reports whether the candidate carries a usable normalized price.
func priced(c model.Candidate) bool {
	return !pricing.IsUnpriced(c.Price)
}
