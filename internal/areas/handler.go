// Package areas manages service areas, their assigned shops and their
// price overrides.
package areas

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/pricing"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

// CacheKey holds the cached area list. Other packages that change area
// membership invalidate it too.
const CacheKey = "areas:all"

type Store interface {
	List(ctx context.Context) ([]domain.Area, error)
	Create(ctx context.Context, name, city, pincode string) (int64, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPrices(ctx context.Context, id int64, p domain.Pricing) error
	AssignShop(ctx context.Context, areaID, shopID int64) error
}

type Handler struct {
	repo   Store
	cache  cache.Cache
	guard  *auth.Guard
	logger *slog.Logger
}

func NewHandler(repo Store, c cache.Cache, guard *auth.Guard, logger *slog.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{repo: repo, cache: c, guard: guard, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /areas", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("POST /areas", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleAdd)))
	mux.HandleFunc("POST /areas/{id}/enable", telemetry.WithHTTPRoute(h.guard.Admin(h.handleSetActive(true))))
	mux.HandleFunc("POST /areas/{id}/disable", telemetry.WithHTTPRoute(h.guard.Admin(h.handleSetActive(false))))
	mux.HandleFunc("POST /areas/{id}/shops", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleAssignShop)))
	mux.HandleFunc("PUT /areas/{id}/prices", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleSetPrices)))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	areas, err := cache.Fetch(r.Context(), h.cache, CacheKey, h.repo.List)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list areas", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, areas)
}

type addAreaRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

func (req *addAreaRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	req.Pincode = strings.TrimSpace(req.Pincode)
	if req.Name == "" || req.City == "" || req.Pincode == "" {
		return fmt.Errorf("%w: name, city and pincode are required", domain.ErrInvalidInput)
	}
	return nil
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addAreaRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid area request", err)
		return
	}
	if err := req.validate(); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid area request", err)
		return
	}

	id, err := h.repo.Create(r.Context(), req.Name, req.City, req.Pincode)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to add area", err)
		return
	}
	h.invalidate(r.Context())

	h.logger.Info("area added", "area_id", id, "city", req.City)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpapi.PathID(r, "id")
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, "invalid area id", err)
			return
		}
		if err := h.repo.SetActive(r.Context(), id, active); err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to toggle area", err, "area_id", id)
			return
		}
		h.invalidate(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

type assignShopRequest struct {
	ShopID int64 `json:"shop_id"`
}

func (h *Handler) HandleAssignShop(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid area id", err)
		return
	}

	var req assignShopRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid assign shop request", err)
		return
	}
	if req.ShopID <= 0 {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "shop_id is required")
		return
	}

	if err := h.repo.AssignShop(r.Context(), id, req.ShopID); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to assign shop", err, "area_id", id, "shop_id", req.ShopID)
		return
	}
	h.invalidate(r.Context())

	h.logger.Info("shop assigned to area", "area_id", id, "shop_id", req.ShopID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetPrices(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid area id", err)
		return
	}

	var req domain.Pricing
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid area price request", err)
		return
	}
	for _, p := range []int64{req.ShirtPrice, req.PantPrice, req.DressPrice} {
		if err := pricing.ValidateUnitPrice(p); err != nil {
			httpapi.WriteDomainError(w, h.logger, "invalid area price request", err, "area_id", id)
			return
		}
	}

	if err := h.repo.SetPrices(r.Context(), id, req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to set area prices", err, "area_id", id)
		return
	}
	h.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidate(ctx context.Context) {
	if err := h.cache.Invalidate(ctx, CacheKey); err != nil {
		h.logger.Warn("failed to invalidate cache", "error", err, "key", CacheKey)
	}
}
