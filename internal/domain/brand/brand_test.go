package brand_test

import (
	"testing"

	brand "github.com/kitforge/kitforge/internal/domain/brand"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractor(t *testing.T) {
	Convey("Given an extractor with a fixture brand dictionary", t, func() {
		e := brand.NewExtractor(
			brand.WithKnownBrands([]string{"Wilson", "La Sportiva", "YETI"}),
		)

		Convey("When the title contains a known brand", func() {
			b, ok := e.FromTitle("Adult Recreational Wilson Tennis Racket")

			Convey("Then the canonical casing is returned", func() {
				So(ok, ShouldBeTrue)
				So(b, ShouldEqual, "Wilson")
			})
		})

		Convey("When a multi-word brand appears mid-title", func() {
			b, ok := e.FromTitle("Climbing Shoes by LA SPORTIVA for indoor walls")

			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, "La Sportiva")
		})

		Convey("When the brand name is embedded in a longer word", func() {
			_, ok := e.FromTitle("tennis racket from Wilsonville store")

			Convey("Then word-boundary matching rejects it", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When no dictionary brand matches", func() {
			Convey("And the first token is an all-caps acronym", func() {
				b, ok := e.FromTitle("HEAD Tour Tennis Racket")

				So(ok, ShouldBeTrue)
				So(b, ShouldEqual, "HEAD")
			})

			Convey("And the first token is a short acronym", func() {
				_, ok := e.FromTitle("XX Tennis Racket")

				So(ok, ShouldBeFalse)
			})

			Convey("And the first token is TitleCase", func() {
				b, ok := e.FromTitle("Babolat Pure Drive Racket")

				So(ok, ShouldBeTrue)
				So(b, ShouldEqual, "Babolat")
			})

			Convey("And the first token is a generic lead word", func() {
				_, ok := e.FromTitle("Premium Tennis Racket Carbon Fiber")

				Convey("Then the stoplist rejects it", func() {
					So(ok, ShouldBeFalse)
				})
			})

			Convey("And the first token is lower-case", func() {
				_, ok := e.FromTitle("tennis racket for adults")

				So(ok, ShouldBeFalse)
			})

			Convey("And the title is empty", func() {
				_, ok := e.FromTitle("   ")

				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a custom stoplist is injected", func() {
			custom := brand.NewExtractor(brand.WithStoplist([]string{"acme"}))
			_, ok := custom.FromTitle("Acme Tennis Racket")

			So(ok, ShouldBeFalse)
		})
	})
}
