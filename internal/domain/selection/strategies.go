package selection

import (
	"sort"

	"github.com/kitforge/kitforge/internal/domain/model"
)

// Fallback stage names reported to the observer.
const (
	stageStrict        = "strict"
	stageHighestRated  = "highest_rated_above"
	stageMostExpensive = "most_expensive_above"
	stageBackfill      = "backfill"
	stageCheapest      = "cheapest_fallback"
)

// Strategy is one independent, pure selection step. Strategies are tried in
// sequence so each relaxation of the quality bar stays unit-testable on its
// own.
type Strategy struct {
	Name string
	Pick func(pool []model.Candidate) (model.Candidate, bool)
}

// luxuryStrategies returns the ordered fallback chain for the luxury tier:
// strict bar with price separation, then highest-rated above essential,
// then most expensive above essential. The tier is only absent when no
// candidate is priced above essential at all.
func (s *Selector) luxuryStrategies(essential model.Candidate, anchor string) []Strategy {
	return []Strategy{
		{Name: stageStrict, Pick: func(pool []model.Candidate) (model.Candidate, bool) {
			return s.strictLuxury(pool, essential, anchor)
		}},
		{Name: stageHighestRated, Pick: func(pool []model.Candidate) (model.Candidate, bool) {
			return highestRatedAbove(pool, essential.Price)
		}},
		{Name: stageMostExpensive, Pick: func(pool []model.Candidate) (model.Candidate, bool) {
			return mostExpensiveAbove(pool, essential.Price)
		}},
	}
}

// strictLuxury scans from the expensive end for a candidate meeting the
// strict quality bar and priced beyond the separation factor, preferring
// one that shares the anchor brand.
func (s *Selector) strictLuxury(pool []model.Candidate, essential model.Candidate, anchor string) (model.Candidate, bool) {
	floor := essential.Price * s.separation
	var pick model.Candidate
	found := false
	for i := len(pool) - 1; i >= 0; i-- {
		c := pool[i]
		if !priced(c) {
			continue
		}
		if c.Price <= floor {
			// Pool is sorted ascending; everything earlier is cheaper.
			break
		}
		if c.Rating < s.luxuryMinRating || c.Reviews < s.luxuryMinReviews {
			continue
		}
		if anchor != "" && c.Brand == anchor {
			return c, true
		}
		if !found {
			pick, found = c, true
		}
	}
	return pick, found
}

// highestRatedAbove picks the highest-rated rated candidate priced strictly
// above the essential price, breaking ties toward the more expensive
// listing. Unrated candidates are left to the last-resort step.
func highestRatedAbove(pool []model.Candidate, floor float64) (model.Candidate, bool) {
	var pick model.Candidate
	found := false
	for _, c := range pool {
		if !priced(c) || c.Price <= floor || c.Rating <= 0 {
			continue
		}
		better := !found ||
			c.Rating > pick.Rating ||
			(c.Rating == pick.Rating && c.Price > pick.Price) ||
			(c.Rating == pick.Rating && c.Price == pick.Price && c.URL < pick.URL)
		if better {
			pick, found = c, true
		}
	}
	return pick, found
}

// mostExpensiveAbove is the last-resort step: the priciest candidate above
// the essential price regardless of rating, so the tier is never silently
// dropped while a higher-priced candidate exists.
func mostExpensiveAbove(pool []model.Candidate, floor float64) (model.Candidate, bool) {
	for i := len(pool) - 1; i >= 0; i-- {
		c := pool[i]
		if !priced(c) {
			continue
		}
		if c.Price > floor {
			return c, true
		}
		break
	}
	return model.Candidate{}, false
}

// pickPremium scores the mid-bar candidates and walks them best-first,
// discarding any whose price would break the essential/premium/luxury
// ordering. When both neighbors exist the price must sit strictly between
// them; with only the essential neighbor it merely has to differ.
func (s *Selector) pickPremium(sel model.SelectionContext, pool []model.Candidate, essential, luxury model.Candidate, haveLux bool, anchor string) (model.Candidate, bool) {
	type scored struct {
		c     model.Candidate
		score float64
	}
	eligible := make([]scored, 0, len(pool))
	for _, c := range pool {
		if !priced(c) || c.Rating < s.premiumMinRating {
			continue
		}
		if !haveLux && c.Price == essential.Price {
			continue
		}
		score := c.Rating + s.contextBias(c, sel)
		if anchor != "" && c.Brand == anchor {
			score += s.brandBonus
		}
		eligible = append(eligible, scored{c: c, score: score})
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		if eligible[i].c.Price != eligible[j].c.Price {
			return eligible[i].c.Price < eligible[j].c.Price
		}
		return eligible[i].c.URL < eligible[j].c.URL
	})
	for _, e := range eligible {
		if e.c.Price <= essential.Price {
			continue
		}
		if haveLux && e.c.Price >= luxury.Price {
			continue
		}
		return e.c, true
	}
	return model.Candidate{}, false
}

// backfillPremium fills an absent premium tier with the best remaining
// moderate-bar candidate whose price keeps the non-strict ordering against
// both neighbors. Equal prices are allowed here, which is what lets an
// all-one-price pool degrade to the best distinct items available.
func (s *Selector) backfillPremium(sel model.SelectionContext, pool []model.Candidate, essential, luxury model.Candidate, haveLux bool) (model.Candidate, bool) {
	return bestRemaining(pool, func(c model.Candidate) bool {
		if !priced(c) || !s.meetsModerateBar(c) {
			return false
		}
		if c.Price < essential.Price {
			return false
		}
		if haveLux && c.Price > luxury.Price {
			return false
		}
		return true
	}, s, sel)
}

// backfillLuxury fills an absent luxury tier with the best remaining
// moderate-bar candidate priced at or above its lower neighbor.
func (s *Selector) backfillLuxury(sel model.SelectionContext, pool []model.Candidate, lower model.Candidate) (model.Candidate, bool) {
	return bestRemaining(pool, func(c model.Candidate) bool {
		return priced(c) && s.meetsModerateBar(c) && c.Price >= lower.Price
	}, s, sel)
}

// bestRemaining picks the qualifying candidate with the highest biased
// rating, preferring the cheaper listing and then url order on ties.
func bestRemaining(pool []model.Candidate, ok func(model.Candidate) bool, s *Selector, sel model.SelectionContext) (model.Candidate, bool) {
	var (
		pick      model.Candidate
		pickScore float64
		found     bool
	)
	for _, c := range pool {
		if !ok(c) {
			continue
		}
		score := c.Rating + s.contextBias(c, sel)
		better := !found ||
			score > pickScore ||
			(score == pickScore && c.Price < pick.Price) ||
			(score == pickScore && c.Price == pick.Price && c.URL < pick.URL)
		if better {
			pick, pickScore, found = c, score, true
		}
	}
	return pick, found
}
