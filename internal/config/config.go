// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and environment on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Marketplace acquisition.
	MarketplaceBaseURL  string `koanf:"marketplace_base_url"`
	MarketplaceDomain   string `koanf:"marketplace_domain"`
	AffiliateTag        string `koanf:"affiliate_tag"`
	SearchMaxAttempts   int    `koanf:"search_max_attempts"`
	SearchRetryDelayMS  int    `koanf:"search_retry_delay_ms"`
	MaxPagesPerCategory int    `koanf:"max_pages_per_category"`
	MinUsableListings   int    `koanf:"min_usable_listings"`

	// Category planner. The API key is validated where the planner is
	// constructed so Load stays usable in tests without credentials.
	PlannerAPIKey   string `koanf:"planner_api_key"`
	PlannerEndpoint string `koanf:"planner_endpoint"`
	PlannerModel    string `koanf:"planner_model"`

	// Orchestration.
	MaxCategories      int `koanf:"max_categories"`
	AcquireConcurrency int `koanf:"acquire_concurrency"`
	DedupeSize         int `koanf:"dedupe_size"`

	// Rate limiting per client key.
	RateLimit         int `koanf:"rate_limit"`
	RateWindowSeconds int `koanf:"rate_window_seconds"`

	// Candidate filter thresholds and keyword lists.
	FilterMinRating   float64  `koanf:"filter_min_rating"`
	FilterMinReviews  int      `koanf:"filter_min_reviews"`
	ExclusionKeywords []string `koanf:"exclusion_keywords"`
	KnownBrands       []string `koanf:"known_brands"`

	// Tier selection thresholds.
	EssentialMinRating  float64 `koanf:"essential_min_rating"`
	EssentialMinReviews int     `koanf:"essential_min_reviews"`
	LuxuryMinRating     float64 `koanf:"luxury_min_rating"`
	LuxuryMinReviews    int     `koanf:"luxury_min_reviews"`
	PremiumMinRating    float64 `koanf:"premium_min_rating"`
	PriceSeparation     float64 `koanf:"price_separation"`
	BrandBonus          float64 `koanf:"brand_bonus"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":8080",

		MarketplaceBaseURL:  "https://www.amazon.com",
		MarketplaceDomain:   "amazon.com",
		SearchMaxAttempts:   3,
		SearchRetryDelayMS:  500,
		MaxPagesPerCategory: 3,
		MinUsableListings:   8,

		PlannerModel: "gpt-4o-mini",

		MaxCategories:      5,
		AcquireConcurrency: runtime.NumCPU(),
		DedupeSize:         10_000,

		RateLimit:         10,
		RateWindowSeconds: 60,

		FilterMinRating:  3.0,
		FilterMinReviews: 5,
		ExclusionKeywords: []string{
			"replacement", "refill", "repair", "spare",
			"decal", "sticker", "poster", "costume",
		},
		KnownBrands: []string{
			"Wilson", "HEAD", "Babolat", "Penn", "Nike", "Adidas",
			"Coleman", "Yamaha", "Fender", "Gaiam", "Manduka",
			"Callaway", "Titleist", "Spalding", "Shimano", "Osprey",
		},

		EssentialMinRating:  3.5,
		EssentialMinReviews: 10,
		LuxuryMinRating:     4.0,
		LuxuryMinReviews:    20,
		PremiumMinRating:    3.5,
		PriceSeparation:     1.2,
		BrandBonus:          0.5,
	}
}
