package selection_test

import (
	"reflect"
	"testing"

	"github.com/kitforge/kitforge/internal/domain/model"
	selection "github.com/kitforge/kitforge/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func listing(url string, price, rating float64, reviews int) model.Candidate {
	return model.Candidate{
		Title:     "Fixture " + url,
		ImageURL:  "https://img.example.com/" + url + ".jpg",
		PriceText: "$0.00",
		URL:       "https://www.amazon.com/dp/" + url,
		Price:     price,
		Rating:    rating,
		Reviews:   reviews,
	}
}

func branded(url string, price, rating float64, reviews int, b string) model.Candidate {
	c := listing(url, price, rating, reviews)
	c.Brand = b
	return c
}

func pickFor(picks []model.TierPick, tier model.Tier) (model.TierPick, bool) {
	for _, p := range picks {
		if p.Tier == tier {
			return p, true
		}
	}
	return model.TierPick{}, false
}

func TestSelectWorkedExample(t *testing.T) {
	Convey("Given the three-candidate pool from the pricing bars", t, func() {
		s := selection.New(
			selection.WithEssentialBar(3.5, 10),
			selection.WithLuxuryBar(4.0, 20),
			selection.WithPriceSeparation(1.2),
		)
		a := listing("A", 10, 4.5, 50)
		b := listing("B", 15, 3.0, 2)
		c := listing("C", 40, 4.8, 100)

		Convey("When selecting tiers", func() {
			picks := s.Select(model.SelectionContext{ProductType: "drill"}, []model.Candidate{a, b, c})

			Convey("Then essential is A and luxury is C", func() {
				So(picks, ShouldHaveLength, 2)
				So(picks[0].Tier, ShouldEqual, model.TierEssential)
				So(picks[0].Listing.URL, ShouldEqual, a.URL)
				So(picks[1].Tier, ShouldEqual, model.TierLuxury)
				So(picks[1].Listing.URL, ShouldEqual, c.URL)
			})

			Convey("And premium is absent because B fails both bars", func() {
				_, ok := pickFor(picks, model.TierPremium)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestSelectThreeTiers(t *testing.T) {
	Convey("Given a pool with a qualifying mid-price candidate", t, func() {
		s := selection.New()
		pool := []model.Candidate{
			listing("A", 10, 4.5, 50),
			listing("M", 25, 4.2, 80),
			listing("C", 40, 4.8, 100),
		}

		picks := s.Select(model.SelectionContext{}, pool)

		Convey("Then all three tiers are filled in order", func() {
			So(picks, ShouldHaveLength, 3)
			So(picks[0].Tier, ShouldEqual, model.TierEssential)
			So(picks[1].Tier, ShouldEqual, model.TierPremium)
			So(picks[2].Tier, ShouldEqual, model.TierLuxury)
		})

		Convey("And the price ordering invariant holds", func() {
			So(picks[0].Listing.Price, ShouldBeLessThanOrEqualTo, picks[1].Listing.Price)
			So(picks[1].Listing.Price, ShouldBeLessThanOrEqualTo, picks[2].Listing.Price)
		})

		Convey("And no listing is reused across tiers", func() {
			urls := map[string]int{}
			for _, p := range picks {
				urls[p.Listing.URL]++
			}
			for _, n := range urls {
				So(n, ShouldEqual, 1)
			}
		})
	})
}

func TestSelectEdgeCases(t *testing.T) {
	Convey("Given the selection engine", t, func() {
		s := selection.New()

		Convey("When the pool is empty", func() {
			So(s.Select(model.SelectionContext{}, nil), ShouldBeEmpty)
		})

		Convey("When a single candidate survives filtering", func() {
			picks := s.Select(model.SelectionContext{}, []model.Candidate{listing("A", 10, 4.5, 50)})

			Convey("Then exactly the essential tier is returned", func() {
				So(picks, ShouldHaveLength, 1)
				So(picks[0].Tier, ShouldEqual, model.TierEssential)
			})
		})

		Convey("When no candidate meets the moderate bar", func() {
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				listing("A", 10, 3.0, 3),
				listing("B", 14, 2.5, 4),
			})

			Convey("Then the cheapest candidate still becomes essential", func() {
				essential, ok := pickFor(picks, model.TierEssential)
				So(ok, ShouldBeTrue)
				So(essential.Listing.URL, ShouldEqual, listing("A", 0, 0, 0).URL)
			})
		})

		Convey("When two candidates tie on price with different ratings", func() {
			x := listing("X", 10, 4.0, 50)
			y := listing("Y", 10, 4.8, 50)
			picks := s.Select(model.SelectionContext{}, []model.Candidate{x, y})

			Convey("Then the higher-rated one takes the cheapest slot", func() {
				essential, _ := pickFor(picks, model.TierEssential)
				So(essential.Listing.URL, ShouldEqual, y.URL)
			})
		})

		Convey("When every candidate shares one price", func() {
			pool := []model.Candidate{
				listing("A", 10, 4.5, 50),
				listing("B", 10, 4.0, 30),
				listing("C", 10, 3.8, 20),
			}
			picks := s.Select(model.SelectionContext{}, pool)

			Convey("Then tiers degrade to the best distinct items", func() {
				So(picks, ShouldHaveLength, 3)
				seen := map[string]struct{}{}
				for _, p := range picks {
					seen[p.Listing.URL] = struct{}{}
					So(p.Listing.Price, ShouldEqual, 10)
				}
				So(seen, ShouldHaveLength, 3)
			})
		})

		Convey("When identical input runs twice", func() {
			pool := []model.Candidate{
				listing("C", 40, 4.8, 100),
				listing("A", 10, 4.5, 50),
				listing("M", 25, 4.2, 80),
				listing("Z", 25, 4.2, 80),
			}
			first := s.Select(model.SelectionContext{}, pool)
			second := s.Select(model.SelectionContext{}, pool)

			Convey("Then the output is identical", func() {
				So(reflect.DeepEqual(first, second), ShouldBeTrue)
			})
		})
	})
}

func TestLuxuryFallbackChain(t *testing.T) {
	Convey("Given an observer recording fallback stages", t, func() {
		var stages []string
		observer := func(_ model.Tier, stage string) { stages = append(stages, stage) }

		Convey("When no candidate meets the strict luxury bar", func() {
			s := selection.New(selection.WithFallbackObserver(observer))
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				listing("A", 10, 4.5, 50),
				listing("D", 13, 4.9, 15), // separation ok, reviews below strict bar
			})

			Convey("Then the highest-rated candidate above essential is used", func() {
				luxury, ok := pickFor(picks, model.TierLuxury)
				So(ok, ShouldBeTrue)
				So(luxury.Listing.Rating, ShouldEqual, 4.9)
				So(stages, ShouldContain, "highest_rated_above")
			})
		})

		Convey("When only an unrated candidate is priced above essential", func() {
			s := selection.New(selection.WithFallbackObserver(observer))
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				listing("A", 10, 4.5, 50),
				listing("F", 30, 0, 0),
			})

			Convey("Then the last-resort step still fills the tier", func() {
				luxury, ok := pickFor(picks, model.TierLuxury)
				So(ok, ShouldBeTrue)
				So(luxury.Listing.Price, ShouldEqual, 30)
				So(stages, ShouldContain, "most_expensive_above")
			})
		})

		Convey("When nothing is priced above essential", func() {
			s := selection.New(selection.WithFallbackObserver(observer))
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				listing("A", 10, 4.5, 50),
				listing("B", 10, 2.0, 3),
			})

			Convey("Then the luxury tier is absent rather than mispriced", func() {
				_, ok := pickFor(picks, model.TierLuxury)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestAnchorBrandAffinity(t *testing.T) {
	Convey("Given an essential pick with a brand", t, func() {
		s := selection.New()

		Convey("When two luxury candidates meet the strict bar", func() {
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				branded("A", 10, 4.5, 50, "Wilson"),
				branded("L1", 45, 4.6, 100, "HEAD"),
				branded("L2", 42, 4.5, 90, "Wilson"),
			})

			Convey("Then the anchor-brand candidate is preferred", func() {
				luxury, _ := pickFor(picks, model.TierLuxury)
				So(luxury.Listing.Brand, ShouldEqual, "Wilson")
			})
		})

		Convey("When premium candidates differ only by brand affinity", func() {
			picks := s.Select(model.SelectionContext{}, []model.Candidate{
				branded("A", 10, 4.5, 50, "Wilson"),
				listing("P1", 20, 4.6, 60),
				branded("P2", 22, 4.3, 70, "Wilson"),
				listing("C", 60, 4.8, 200),
			})

			Convey("Then the brand bonus flips the premium choice", func() {
				premium, ok := pickFor(picks, model.TierPremium)
				So(ok, ShouldBeTrue)
				So(premium.Listing.Brand, ShouldEqual, "Wilson")
			})
		})
	})
}

func TestPremiumOrderingGuard(t *testing.T) {
	Convey("Given a high-scoring candidate priced below essential", t, func() {
		s := selection.New()
		pool := []model.Candidate{
			listing("G", 8, 4.9, 8), // fails the moderate bar, stays in the pool
			listing("A", 10, 4.5, 50),
			listing("H", 20, 4.0, 50),
			listing("C", 40, 4.8, 100),
		}

		picks := s.Select(model.SelectionContext{}, pool)

		Convey("Then the ordering guard discards it for premium", func() {
			premium, ok := pickFor(picks, model.TierPremium)
			So(ok, ShouldBeTrue)
			So(premium.Listing.Price, ShouldEqual, 20)
		})

		Convey("And the ordering invariant holds across all tiers", func() {
			essential, _ := pickFor(picks, model.TierEssential)
			premium, _ := pickFor(picks, model.TierPremium)
			luxury, _ := pickFor(picks, model.TierLuxury)
			So(essential.Listing.Price, ShouldBeLessThanOrEqualTo, premium.Listing.Price)
			So(premium.Listing.Price, ShouldBeLessThanOrEqualTo, luxury.Listing.Price)
		})
	})
}

func TestContextHints(t *testing.T) {
	Convey("Given a budget ceiling hint", t, func() {
		s := selection.New()
		sel := model.SelectionContext{MaxPrice: 25}
		pool := []model.Candidate{
			listing("A", 10, 4.5, 50),
			listing("P1", 20, 4.4, 60),
			listing("P2", 35, 4.5, 60),
			listing("C", 60, 4.8, 200),
		}

		picks := s.Select(sel, pool)

		Convey("Then the in-budget premium candidate wins despite a lower raw rating", func() {
			premium, ok := pickFor(picks, model.TierPremium)
			So(ok, ShouldBeTrue)
			So(premium.Listing.Price, ShouldEqual, 20)
		})

		Convey("And the over-budget candidate was biased, not excluded", func() {
			// With no cheaper rival the hinted-down candidate must still win.
			alt := s.Select(sel, []model.Candidate{
				listing("A", 10, 4.5, 50),
				listing("P2", 35, 4.5, 60),
				listing("C", 60, 4.8, 200),
			})
			premium, ok := pickFor(alt, model.TierPremium)
			So(ok, ShouldBeTrue)
			So(premium.Listing.Price, ShouldEqual, 35)
		})
	})
}
