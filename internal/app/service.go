// Package app provides the kit building service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kitforge/kitforge/internal/adapters/marketplace"
	"github.com/kitforge/kitforge/internal/domain/brand"
	"github.com/kitforge/kitforge/internal/domain/dedupe"
	"github.com/kitforge/kitforge/internal/domain/filter"
	"github.com/kitforge/kitforge/internal/domain/model"
	"github.com/kitforge/kitforge/internal/domain/pricing"
	"github.com/kitforge/kitforge/internal/domain/selection"
	"github.com/kitforge/kitforge/pkg/logger"
	"github.com/kitforge/kitforge/pkg/metrics"
)

// Default orchestration configuration.
const (
	defaultMaxCategories = 5
	defaultConcurrency   = 4
	defaultMaxPages      = 3
	defaultMinUsable     = 8
	defaultDedupeSize    = 10000
)

// CategoryPlanner produces the ordered category labels for an activity.
type CategoryPlanner interface {
	Categories(ctx context.Context, activity string, limit int) ([]string, error)
}

// ListingSearcher fetches one page of raw marketplace listings for a query.
type ListingSearcher interface {
	Search(ctx context.Context, query string, page int) ([]model.Candidate, error)
}

// Service orchestrates planning, acquisition, filtering and tier selection
// into complete starter kits.
type Service struct {
	planner  CategoryPlanner
	searcher ListingSearcher
	filter   *filter.Filter
	brands   *brand.Extractor
	selector *selection.Selector

	maxCategories int
	concurrency   int
	maxPages      int
	minUsable     int
	dedupeSize    int
	affiliateTag  string

	// Counters for /stats
	kitsBuilt      atomic.Int64
	kitFailures    atomic.Int64
	listingsSeen   atomic.Int64
	listingsUsable atomic.Int64
	duplicates     atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFilter replaces the default candidate filter.
func WithFilter(f *filter.Filter) Option {
	return func(s *Service) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithBrandExtractor replaces the default brand extractor.
func WithBrandExtractor(e *brand.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.brands = e
		}
	}
}

// WithSelector replaces the default tier selector.
func WithSelector(sel *selection.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithMaxCategories caps how many categories one kit may contain.
func WithMaxCategories(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCategories = n
		}
	}
}

// WithConcurrency bounds how many categories are acquired in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxPages caps marketplace pagination per category.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithMinUsable sets the filtered pool size at which pagination stops.
func WithMinUsable(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minUsable = n
		}
	}
}

// WithDedupeSize sets the per-request dedupe cache bound.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithAffiliateTag sets the partner tag appended to selected listing links.
func WithAffiliateTag(tag string) Option {
	return func(s *Service) {
		s.affiliateTag = tag
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around a planner and a marketplace searcher.
func New(planner CategoryPlanner, searcher ListingSearcher, opts ...Option) *Service {
	s := &Service{
		planner:       planner,
		searcher:      searcher,
		maxCategories: defaultMaxCategories,
		concurrency:   defaultConcurrency,
		maxPages:      defaultMaxPages,
		minUsable:     defaultMinUsable,
		dedupeSize:    defaultDedupeSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filter == nil {
		s.filter = filter.New()
	}
	if s.brands == nil {
		s.brands = brand.NewExtractor()
	}
	if s.selector == nil {
		s.selector = selection.New(selection.WithFallbackObserver(func(tier model.Tier, stage string) {
			metrics.RecordSelectionFallback(string(tier), stage)
		}))
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	return s
}

// BuildKit assembles a tiered starter kit for one activity. Categories are
// acquired concurrently; selection runs sequentially in plan order so that
// cross-category deduplication keeps the first occurrence of a listing.
func (s *Service) BuildKit(ctx context.Context, req model.KitRequest) (model.Kit, error) {
	start := time.Now()

	limit := req.MaxCategories
	if limit <= 0 || limit > s.maxCategories {
		limit = s.maxCategories
	}

	categories, err := s.planner.Categories(ctx, req.Activity, limit)
	if err != nil {
		s.kitFailures.Add(1)
		metrics.RecordKitBuildError()
		return model.Kit{}, fmt.Errorf("%w: %v", ErrPlanning, err)
	}
	if len(categories) == 0 {
		s.kitFailures.Add(1)
		metrics.RecordKitBuildError()
		return model.Kit{}, fmt.Errorf("%w: planner returned no categories", ErrPlanning)
	}

	pools := s.acquire(ctx, req, categories)

	// One listing may show up in several category searches; the first
	// category in plan order wins it.
	deduper := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	kit := model.Kit{
		ID:         uuid.NewString(),
		Activity:   req.Activity,
		Categories: make([]model.CategoryResult, 0, len(categories)),
	}
	for i, category := range categories {
		fresh := make([]model.Candidate, 0, len(pools[i]))
		for _, c := range pools[i] {
			if deduper.SeenAndRecord(ctx, c.URL) {
				s.duplicates.Add(1)
				metrics.RecordDuplicateListing()
				continue
			}
			fresh = append(fresh, c)
		}

		selStart := time.Now()
		picks := s.selector.Select(s.selectionContext(req, category), fresh)
		metrics.RecordSelectionLatency(float64(time.Since(selStart).Microseconds()) / 1000.0)

		for j := range picks {
			picks[j].Listing.URL = marketplace.RewriteAffiliate(picks[j].Listing.URL, s.affiliateTag)
			metrics.RecordTierAssigned(string(picks[j].Tier))
		}
		kit.Categories = append(kit.Categories, model.CategoryResult{Category: category, Picks: picks})
	}
	metrics.UpdateSeenListings(deduper.Size())

	s.kitsBuilt.Add(1)
	metrics.RecordKitBuilt()
	metrics.RecordKitBuildDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "kit built",
		logger.String("kitID", kit.ID),
		logger.String("activity", req.Activity),
		logger.Int("categories", len(kit.Categories)),
		logger.Int64("durationMs", time.Since(start).Milliseconds()),
	)
	return kit, nil
}

// acquire fetches and filters candidate pools for all categories with
// bounded parallelism. A failing category degrades to an empty pool and
// never fails the kit.
func (s *Service) acquire(ctx context.Context, req model.KitRequest, categories []string) [][]model.Candidate {
	pools := make([][]model.Candidate, len(categories))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(i int, category string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			pools[i] = s.acquireCategory(ctx, req, category)
		}(i, category)
	}
	wg.Wait()
	return pools
}

// acquireCategory pages through marketplace results until the filtered pool
// is usable or the page budget runs out.
func (s *Service) acquireCategory(ctx context.Context, req model.KitRequest, category string) []model.Candidate {
	sel := s.selectionContext(req, category)
	var kept []model.Candidate
	for page := 1; page <= s.maxPages; page++ {
		raw, err := s.searcher.Search(ctx, category, page)
		if err != nil {
			s.logger.Warn(ctx, "category acquisition degraded",
				logger.String("category", category),
				logger.Int("page", page),
				logger.Error(err),
			)
			break
		}
		s.listingsSeen.Add(int64(len(raw)))

		filtered, rejected := s.filter.Apply(sel, s.intake(raw))
		for reason, n := range rejected {
			metrics.RecordListingsRejected(reason, n)
		}
		kept = append(kept, filtered...)

		if len(kept) >= s.minUsable || len(raw) == 0 {
			break
		}
	}
	s.listingsUsable.Add(int64(len(kept)))
	return kept
}

// intake derives the numeric and brand fields every downstream stage
// depends on.
func (s *Service) intake(raw []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(raw))
	for i, c := range raw {
		c.Price = pricing.Normalize(c.PriceText)
		c.Rating = pricing.ParseRating(c.RatingText)
		c.Reviews = pricing.ParseReviewCount(c.ReviewCountText)
		if b, ok := s.brands.FromTitle(c.Title); ok {
			c.Brand = b
		}
		out[i] = c
	}
	return out
}

func (s *Service) selectionContext(req model.KitRequest, category string) model.SelectionContext {
	return model.SelectionContext{
		ProductType: category,
		Keywords:    filter.CoreTerms(category),
		MinPrice:    req.BudgetMin,
		MaxPrice:    req.BudgetMax,
		AgeBand:     req.AgeBand,
		Experience:  req.Experience,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"kits_built":         s.kitsBuilt.Load(),
		"kit_failures":       s.kitFailures.Load(),
		"listings_fetched":   s.listingsSeen.Load(),
		"listings_usable":    s.listingsUsable.Load(),
		"duplicate_listings": s.duplicates.Load(),
		"max_categories":     s.maxCategories,
		"concurrency":        s.concurrency,
	}
}
