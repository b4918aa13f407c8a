package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/kitforge/kitforge/internal/adapters/catalog"
	"github.com/kitforge/kitforge/internal/adapters/http/api"
	"github.com/kitforge/kitforge/internal/adapters/http/swagger"
	"github.com/kitforge/kitforge/internal/adapters/marketplace"
	"github.com/kitforge/kitforge/internal/adapters/ratelimit"
	"github.com/kitforge/kitforge/internal/app"
	"github.com/kitforge/kitforge/internal/config"
	"github.com/kitforge/kitforge/internal/domain/brand"
	"github.com/kitforge/kitforge/internal/domain/filter"
	"github.com/kitforge/kitforge/internal/domain/model"
	"github.com/kitforge/kitforge/internal/domain/selection"
	"github.com/kitforge/kitforge/pkg/logger"
	"github.com/kitforge/kitforge/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the system metrics updater covers what we care about.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	planner, err := catalog.New(cfg.PlannerAPIKey,
		catalog.WithEndpoint(cfg.PlannerEndpoint),
		catalog.WithModel(cfg.PlannerModel),
	)
	if err != nil {
		if errors.Is(err, catalog.ErrMisconfigured) {
			log.Fatal(ctx, "planner api key missing; set KITFORGE_PLANNER_API_KEY", logger.Error(err))
		}
		log.Fatal(ctx, "failed to create planner", logger.Error(err))
	}

	searcher := marketplace.NewClient(
		marketplace.WithBaseURL(cfg.MarketplaceBaseURL),
		marketplace.WithRetry(cfg.SearchMaxAttempts, time.Duration(cfg.SearchRetryDelayMS)*time.Millisecond),
	)

	svc := app.New(planner, searcher,
		app.WithLogger(log),
		app.WithFilter(filter.New(
			filter.WithMarketplaceDomain(cfg.MarketplaceDomain),
			filter.WithExclusionKeywords(cfg.ExclusionKeywords),
			filter.WithQualityBar(cfg.FilterMinRating, cfg.FilterMinReviews),
			filter.WithTitleRelevance(true),
		)),
		app.WithBrandExtractor(brand.NewExtractor(
			brand.WithKnownBrands(cfg.KnownBrands),
		)),
		app.WithSelector(selection.New(
			selection.WithEssentialBar(cfg.EssentialMinRating, cfg.EssentialMinReviews),
			selection.WithLuxuryBar(cfg.LuxuryMinRating, cfg.LuxuryMinReviews),
			selection.WithPremiumBar(cfg.PremiumMinRating),
			selection.WithPriceSeparation(cfg.PriceSeparation),
			selection.WithBrandBonus(cfg.BrandBonus),
			selection.WithFallbackObserver(func(tier model.Tier, stage string) {
				metrics.RecordSelectionFallback(string(tier), stage)
			}),
		)),
		app.WithMaxCategories(cfg.MaxCategories),
		app.WithConcurrency(cfg.AcquireConcurrency),
		app.WithMaxPages(cfg.MaxPagesPerCategory),
		app.WithMinUsable(cfg.MinUsableListings),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithAffiliateTag(cfg.AffiliateTag),
	)

	limiter := ratelimit.New(ratelimit.NewInMemoryStore(),
		ratelimit.WithLimit(cfg.RateLimit),
		ratelimit.WithWindow(time.Duration(cfg.RateWindowSeconds)*time.Second),
	)

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API reference under /api-docs.
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, limiter)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater refreshes process-level gauges on an interval.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
