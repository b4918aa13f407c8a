package marketplace

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kitforge/kitforge/internal/domain/model"
)

// parseSearchPage extracts raw candidates from a search result document.
// Result tiles missing a title or link are skipped here; every other
// validity question belongs to the candidate filter.
func parseSearchPage(body io.Reader, base string) ([]model.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBaseURL, err)
	}

	var out []model.Candidate
	doc.Find("div[data-component-type=s-search-result]").Each(func(_ int, tile *goquery.Selection) {
		title := strings.TrimSpace(tile.Find("h2 span").First().Text())
		href := tile.Find("a.a-link-normal").First().AttrOr("href", "")
		if title == "" || href == "" {
			return
		}
		out = append(out, model.Candidate{
			Title:           title,
			ImageURL:        tile.Find("img.s-image").First().AttrOr("src", ""),
			PriceText:       strings.TrimSpace(tile.Find("span.a-price span.a-offscreen").First().Text()),
			URL:             absoluteURL(baseURL, href),
			RatingText:      strings.TrimSpace(tile.Find("span.a-icon-alt").First().Text()),
			ReviewCountText: strings.TrimSpace(tile.Find("span.s-underline-text").First().Text()),
		})
	})
	return out, nil
}

// absoluteURL resolves a tile link against the marketplace origin.
func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
