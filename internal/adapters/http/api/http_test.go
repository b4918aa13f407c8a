package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kitforge/kitforge/internal/adapters/http/api"
	"github.com/kitforge/kitforge/internal/app"
	"github.com/kitforge/kitforge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockBuilder struct {
	kit     model.Kit
	err     error
	gotReq  model.KitRequest
	calls   int
	lastCtx context.Context
}

func (m *mockBuilder) BuildKit(ctx context.Context, req model.KitRequest) (model.Kit, error) {
	m.calls++
	m.gotReq = req
	m.lastCtx = ctx
	if m.err != nil {
		return model.Kit{}, m.err
	}
	return m.kit, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type mockLimiter struct {
	allow      bool
	retryAfter time.Duration
	keys       []string
}

func (m *mockLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.retryAfter, nil
}

func sampleKit() model.Kit {
	return model.Kit{
		ID:       "kit-1",
		Activity: "tennis",
		Categories: []model.CategoryResult{
			{
				Category: "tennis racket",
				Picks: []model.TierPick{
					{
						Tier: model.TierEssential,
						Listing: model.Candidate{
							Title:           "Wilson Adult Recreational Tennis Racket",
							URL:             "https://www.amazon.com/dp/B00WILSON?tag=kitforge-20",
							ImageURL:        "https://img.example.com/wilson.jpg",
							PriceText:       "$39.99",
							RatingText:      "4.6 out of 5 stars",
							ReviewCountText: "2,148",
						},
					},
				},
			},
		},
	}
}

func newMux(builder *mockBuilder, limiter api.RateLimiter) *http.ServeMux {
	server := api.NewServer(builder, &mockStatsProvider{stats: map[string]interface{}{"kits_built": 7}}, limiter)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func TestHandleBuildKit(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		builder := &mockBuilder{kit: sampleKit()}
		mux := newMux(builder, nil)

		Convey("When posting a valid kit request", func() {
			body := `{"activity":"tennis","experience":"beginner","budget_max":150,"max_categories":4}`
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the kit is returned with the output shape", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					ID         string `json:"id"`
					Activity   string `json:"activity"`
					Categories []struct {
						Category string `json:"category"`
						Picks    []struct {
							Name   string `json:"name"`
							Link   string `json:"link"`
							Price  string `json:"price"`
							Tier   string `json:"tier"`
							Reason string `json:"reason"`
						} `json:"picks"`
					} `json:"categories"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.ID, ShouldEqual, "kit-1")
				So(resp.Activity, ShouldEqual, "tennis")
				So(resp.Categories, ShouldHaveLength, 1)
				So(resp.Categories[0].Picks[0].Name, ShouldEqual, "Wilson Adult Recreational Tennis Racket")
				So(resp.Categories[0].Picks[0].Price, ShouldEqual, "$39.99")
				So(resp.Categories[0].Picks[0].Tier, ShouldEqual, "essential")
			})

			Convey("And the request is passed through to the builder", func() {
				So(builder.calls, ShouldEqual, 1)
				So(builder.gotReq.Activity, ShouldEqual, "tennis")
				So(builder.gotReq.BudgetMax, ShouldEqual, 150)
				So(builder.gotReq.MaxCategories, ShouldEqual, 4)
			})

			Convey("And a request id header is set", func() {
				So(w.Header().Get("X-Request-Id"), ShouldNotBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader("not json"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(builder.calls, ShouldEqual, 0)
			})
		})

		Convey("When the activity is missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"budget_max":50}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the budget range is inverted", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits",
				strings.NewReader(`{"activity":"tennis","budget_min":200,"budget_max":50}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest(http.MethodGet, "/kits", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a builder whose planner is failing", t, func() {
		builder := &mockBuilder{err: app.ErrPlanning}
		mux := newMux(builder, nil)

		Convey("When posting a kit request", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"activity":"tennis"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the failure surfaces as a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
			})
		})
	})

	Convey("Given a builder failing for another reason", t, func() {
		builder := &mockBuilder{err: errors.New("boom")}
		mux := newMux(builder, nil)

		req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"activity":"tennis"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		So(w.Code, ShouldEqual, http.StatusInternalServerError)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	Convey("Given a server with an exhausted rate limit", t, func() {
		builder := &mockBuilder{kit: sampleKit()}
		limiter := &mockLimiter{allow: false, retryAfter: 42 * time.Second}
		mux := newMux(builder, limiter)

		Convey("When posting a kit request with an API key", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"activity":"tennis"}`))
			req.Header.Set("X-API-Key", "client-1")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the request is rejected before any work", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Header().Get("Retry-After"), ShouldEqual, "42")
				So(builder.calls, ShouldEqual, 0)
			})

			Convey("And the client is keyed by its API key", func() {
				So(limiter.keys, ShouldResemble, []string{"client-1"})
			})
		})

		Convey("When posting without an API key", func() {
			req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"activity":"tennis"}`))
			req.RemoteAddr = "203.0.113.9:51234"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the client is keyed by its remote IP", func() {
				So(limiter.keys, ShouldResemble, []string{"203.0.113.9"})
			})
		})
	})

	Convey("Given a server with capacity remaining", t, func() {
		builder := &mockBuilder{kit: sampleKit()}
		limiter := &mockLimiter{allow: true}
		mux := newMux(builder, limiter)

		req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"activity":"tennis"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		So(w.Code, ShouldEqual, http.StatusOK)
		So(builder.calls, ShouldEqual, 1)
	})
}

func TestObservabilityEndpoints(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockBuilder{kit: sampleKit()}, nil)

		Convey("When requesting the health endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When requesting the stats endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["kits_built"], ShouldEqual, 7.0)
		})

		Convey("When posting to the stats endpoint", func() {
			req := httptest.NewRequest(http.MethodPost, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
