package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kitforge/kitforge/internal/app"
	"github.com/kitforge/kitforge/internal/domain/model"
)

const maxCategoriesCap = 12

// KitsHandler handles kit build requests.
type KitsHandler struct {
	deps Dependencies
}

// NewKitsHandler creates a new kits handler.
func NewKitsHandler(deps Dependencies) *KitsHandler {
	return &KitsHandler{deps: deps}
}

// kitRequest mirrors the JSON body of POST /kits.
type kitRequest struct {
	Activity      string  `json:"activity"`
	AgeBand       string  `json:"age_band"`
	Experience    string  `json:"experience"`
	BudgetMin     float64 `json:"budget_min"`
	BudgetMax     float64 `json:"budget_max"`
	MaxCategories int     `json:"max_categories"`
}

func (k kitRequest) validate() error {
	switch {
	case strings.TrimSpace(k.Activity) == "":
		return errors.New("missing activity")
	case k.BudgetMin < 0 || k.BudgetMax < 0:
		return errors.New("budgets must be non-negative")
	case k.BudgetMax > 0 && k.BudgetMin > k.BudgetMax:
		return errors.New("budget_min exceeds budget_max")
	case k.MaxCategories < 0 || k.MaxCategories > maxCategoriesCap:
		return errors.New("max_categories out of range")
	}
	return nil
}

// Response shapes for POST /kits.
type pickResponse struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	Image   string `json:"image"`
	Price   string `json:"price"`
	Rating  string `json:"rating"`
	Reviews string `json:"reviews"`
	Tier    string `json:"tier"`
	Reason  string `json:"reason"`
}

type categoryResponse struct {
	Category string         `json:"category"`
	Picks    []pickResponse `json:"picks"`
}

type kitResponse struct {
	ID         string             `json:"id"`
	Activity   string             `json:"activity"`
	Categories []categoryResponse `json:"categories"`
}

// HandleBuildKit handles POST /kits requests.
func (h *KitsHandler) HandleBuildKit(w http.ResponseWriter, r *http.Request) {
	const op = "api.build_kit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req kitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	kit, err := h.deps.BuildKit(r.Context(), model.KitRequest{
		Activity:      strings.TrimSpace(req.Activity),
		AgeBand:       req.AgeBand,
		Experience:    req.Experience,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		MaxCategories: req.MaxCategories,
	})
	if err != nil {
		if errors.Is(err, app.ErrPlanning) {
			writeError(w, http.StatusBadGateway, "planner_unavailable", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toKitResponse(kit))
}

func toKitResponse(kit model.Kit) kitResponse {
	out := kitResponse{
		ID:         kit.ID,
		Activity:   kit.Activity,
		Categories: make([]categoryResponse, 0, len(kit.Categories)),
	}
	for _, cat := range kit.Categories {
		cr := categoryResponse{Category: cat.Category, Picks: make([]pickResponse, 0, len(cat.Picks))}
		for _, pick := range cat.Picks {
			cr.Picks = append(cr.Picks, pickResponse{
				Name:    pick.Listing.Title,
				Link:    pick.Listing.URL,
				Image:   pick.Listing.ImageURL,
				Price:   pick.Listing.PriceText,
				Rating:  pick.Listing.RatingText,
				Reviews: pick.Listing.ReviewCountText,
				Tier:    string(pick.Tier),
				Reason:  pick.Reason,
			})
		}
		out.Categories = append(out.Categories, cr)
	}
	return out
}
