// Package model contains domain models passed between layers.
package model

// Tier identifies a price/quality slot within one product category.
type Tier string

// Tiers in ascending price/quality order.
const (
	TierEssential Tier = "essential"
	TierPremium   Tier = "premium"
	TierLuxury    Tier = "luxury"
)

// Candidate is a raw marketplace listing plus fields derived at intake.
type Candidate struct {
	Title           string
	ImageURL        string
	PriceText       string
	URL             string
	RatingText      string
	ReviewCountText string

	// Derived at intake. Price is math.Inf(1) when PriceText could not be
	// parsed so unpriced listings sort after every real price.
	Price   float64
	Rating  float64
	Reviews int
	Brand   string
}

// HasBrand reports whether a brand was extracted from the title.
func (c Candidate) HasBrand() bool { return c.Brand != "" }

// SelectionContext carries the category label and optional soft hints for
// one selection run. Budget and persona hints bias scoring only; they never
// hard-filter candidates.
type SelectionContext struct {
	ProductType string
	Keywords    []string
	MinPrice    float64 // 0 = no floor
	MaxPrice    float64 // 0 = no ceiling
	AgeBand     string
	Experience  string
}

// TierPick assigns one candidate to one tier. Reason is reserved for an
// external text generator and left empty by the selection engine.
type TierPick struct {
	Tier    Tier
	Listing Candidate
	Reason  string
}

// CategoryResult holds the 0-3 tier picks for one product category.
type CategoryResult struct {
	Category string
	Picks    []TierPick
}

// KitRequest describes one kit-building request.
type KitRequest struct {
	Activity      string
	AgeBand       string
	Experience    string
	BudgetMin     float64
	BudgetMax     float64
	MaxCategories int
}

// Kit is the aggregate output for one activity.
type Kit struct {
	ID         string
	Activity   string
	Categories []CategoryResult
}
