package selection

import "github.com/kitforge/kitforge/internal/domain/model"

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithEssentialBar sets the moderate quality bar used for the essential
// tier and for backfill qualification.
func WithEssentialBar(minRating float64, minReviews int) Option {
	return func(s *Selector) {
		if minRating >= 0 {
			s.essentialMinRating = minRating
		}
		if minReviews >= 0 {
			s.essentialMinReviews = minReviews
		}
	}
}

// WithLuxuryBar sets the strict quality bar for the luxury tier.
func WithLuxuryBar(minRating float64, minReviews int) Option {
	return func(s *Selector) {
		if minRating >= 0 {
			s.luxuryMinRating = minRating
		}
		if minReviews >= 0 {
			s.luxuryMinReviews = minReviews
		}
	}
}

// WithPremiumBar sets the mid-strength rating bar for the premium tier.
func WithPremiumBar(minRating float64) Option {
	return func(s *Selector) {
		if minRating >= 0 {
			s.premiumMinRating = minRating
		}
	}
}

// WithPriceSeparation sets the minimum luxury/essential price ratio that
// keeps tiers from collapsing into near-duplicates.
func WithPriceSeparation(factor float64) Option {
	return func(s *Selector) {
		if factor > 1 {
			s.separation = factor
		}
	}
}

// WithBrandBonus sets the score bonus for sharing the anchor brand.
func WithBrandBonus(bonus float64) Option {
	return func(s *Selector) {
		if bonus >= 0 {
			s.brandBonus = bonus
		}
	}
}

// WithHintWeight sets the score weight of budget and persona hints.
func WithHintWeight(weight float64) Option {
	return func(s *Selector) {
		if weight >= 0 {
			s.hintWeight = weight
		}
	}
}

// WithFallbackObserver registers a callback invoked whenever a tier is
// filled by anything other than its primary strategy.
func WithFallbackObserver(fn func(tier model.Tier, stage string)) Option {
	return func(s *Selector) {
		s.observer = fn
	}
}
