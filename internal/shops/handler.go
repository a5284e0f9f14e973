// Package shops handles shop registration and the admin approval workflow.
package shops

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/presswala/internal/areas"
	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/pricing"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

type Store interface {
	Upsert(ctx context.Context, s *domain.Shop) error
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Shop, error)
	List(ctx context.Context, status domain.ShopStatus) ([]domain.Shop, error)
	SetStatus(ctx context.Context, id int64, status domain.ShopStatus) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	repo   Store
	cache  cache.Cache
	guard  *auth.Guard
	logger *slog.Logger
}

// NewHandler takes the cache shared with areas so a deleted shop does not
// linger in cached area assignments.
func NewHandler(repo Store, c cache.Cache, guard *auth.Guard, logger *slog.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{repo: repo, cache: c, guard: guard, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /shops", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleRegister)))
	mux.HandleFunc("GET /shops", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("GET /shops/active", telemetry.WithHTTPRoute(h.HandleListActive))
	mux.HandleFunc("GET /shops/mine", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleMine)))
	mux.HandleFunc("POST /shops/{id}/approve", telemetry.WithHTTPRoute(h.guard.Admin(h.handleTransition(domain.ShopStatusActive))))
	mux.HandleFunc("POST /shops/{id}/reject", telemetry.WithHTTPRoute(h.guard.Admin(h.handleTransition(domain.ShopStatusRejected))))
	mux.HandleFunc("POST /shops/{id}/suspend", telemetry.WithHTTPRoute(h.guard.Admin(h.handleTransition(domain.ShopStatusSuspended))))
	mux.HandleFunc("DELETE /shops/{id}", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleDelete)))
}

type registerShopRequest struct {
	OwnerName     string `json:"owner_name"`
	Mobile        string `json:"mobile"`
	ShopName      string `json:"shop_name"`
	Address       string `json:"address"`
	ServiceArea   int64  `json:"service_area"`
	PricePerCloth int64  `json:"price_per_cloth"`
	WorkingHours  string `json:"working_hours"`
}

func (req *registerShopRequest) validate() error {
	for _, f := range []*string{&req.OwnerName, &req.Mobile, &req.ShopName, &req.Address, &req.WorkingHours} {
		*f = strings.TrimSpace(*f)
	}
	switch {
	case req.OwnerName == "", req.ShopName == "", req.Mobile == "", req.Address == "":
		return fmt.Errorf("%w: owner name, shop name, mobile and address are required", domain.ErrInvalidInput)
	case pricing.ValidateUnitPrice(req.PricePerCloth) != nil:
		return fmt.Errorf("%w: price per cloth outside 0..%d", domain.ErrInvalidInput, pricing.MaxUnitPrice)
	case req.ServiceArea < 0:
		return fmt.Errorf("%w: invalid service area", domain.ErrInvalidInput)
	}
	return nil
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req registerShopRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid register shop request", err)
		return
	}
	if err := req.validate(); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid register shop request", err)
		return
	}

	shop := &domain.Shop{
		OwnerID:       principal,
		OwnerName:     req.OwnerName,
		ShopName:      req.ShopName,
		Mobile:        req.Mobile,
		Address:       req.Address,
		ServiceArea:   req.ServiceArea,
		PricePerCloth: req.PricePerCloth,
		WorkingHours:  req.WorkingHours,
	}
	if err := h.repo.Upsert(r.Context(), shop); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to register shop", err, "owner_id", principal)
		return
	}

	h.logger.Info("shop registered", "shop_id", shop.ID, "owner_id", principal, "status", shop.Status)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, shop)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := domain.ShopStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "unknown shop status")
		return
	}
	h.list(w, r, status)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.ShopStatusActive)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, status domain.ShopStatus) {
	shops, err := h.repo.List(r.Context(), status)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list shops", err, "status", status)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, shops)
}

// HandleMine answers null when the caller owns no shop.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	shop, err := h.repo.GetByOwner(r.Context(), principal)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get caller shop", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, shop)
}

func (h *Handler) handleTransition(next domain.ShopStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpapi.PathID(r, "id")
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, "invalid shop id", err)
			return
		}

		shop, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to get shop", err, "shop_id", id)
			return
		}
		if !shop.Status.CanBecome(next) {
			err := fmt.Errorf("%w: shop %d is %s", domain.ErrInvalidTransition, id, shop.Status)
			httpapi.WriteDomainError(w, h.logger, "rejected shop transition", err, "to", next)
			return
		}

		if err := h.repo.SetStatus(r.Context(), id, next); err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to set shop status", err, "shop_id", id)
			return
		}

		h.logger.Info("shop status changed", "shop_id", id, "from", shop.Status, "to", next)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid shop id", err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to delete shop", err, "shop_id", id)
		return
	}
	if err := h.cache.Invalidate(r.Context(), areas.CacheKey); err != nil {
		h.logger.Warn("failed to invalidate cache", "error", err, "key", areas.CacheKey)
	}
	h.logger.Info("shop deleted", "shop_id", id)
	w.WriteHeader(http.StatusNoContent)
}
