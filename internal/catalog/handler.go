package catalog

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

type Handler struct {
	svc    *Service
	guard  *auth.Guard
	logger *slog.Logger
}

func NewHandler(svc *Service, guard *auth.Guard, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, guard: guard, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /clothing-items", telemetry.WithHTTPRoute(h.handleList(false)))
	mux.HandleFunc("GET /clothing-items/active", telemetry.WithHTTPRoute(h.handleList(true)))
	mux.HandleFunc("POST /clothing-items", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleAdd)))
	mux.HandleFunc("PUT /clothing-items/{id}", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleUpdate)))
	mux.HandleFunc("DELETE /clothing-items/{id}", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleDelete)))
	mux.HandleFunc("POST /clothing-items/{id}/enable", telemetry.WithHTTPRoute(h.guard.Admin(h.handleSetActive(true))))
	mux.HandleFunc("POST /clothing-items/{id}/disable", telemetry.WithHTTPRoute(h.guard.Admin(h.handleSetActive(false))))
	mux.HandleFunc("GET /pricing", telemetry.WithHTTPRoute(h.HandleGetPricing))
	mux.HandleFunc("PUT /pricing/{category}", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleSetPrice)))
}

func (h *Handler) handleList(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.ListItems(r.Context(), activeOnly)
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to list clothing items", err)
			return
		}
		httpapi.WriteJSON(w, h.logger, http.StatusOK, items)
	}
}

type itemRequest struct {
	Name         string `json:"name"`
	PricePerItem int64  `json:"price_per_item"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid clothing item request", err)
		return
	}

	id, err := h.svc.AddItem(r.Context(), req.Name, req.PricePerItem)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to add clothing item", err)
		return
	}

	h.logger.Info("clothing item added", "item_id", id, "name", req.Name)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid clothing item id", err)
		return
	}

	var req itemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid clothing item request", err)
		return
	}

	if err := h.svc.UpdateItem(r.Context(), id, req.Name, req.PricePerItem); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to update clothing item", err, "item_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid clothing item id", err)
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to delete clothing item", err, "item_id", id)
		return
	}
	h.logger.Info("clothing item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpapi.PathID(r, "id")
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, "invalid clothing item id", err)
			return
		}

		if err := h.svc.SetItemActive(r.Context(), id, active); err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to toggle clothing item", err, "item_id", id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) HandleGetPricing(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPricing(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get pricing", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, p)
}

type priceRequest struct {
	Price int64 `json:"price"`
}

func (h *Handler) HandleSetPrice(w http.ResponseWriter, r *http.Request) {
	category := Category(r.PathValue("category"))

	var req priceRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid price request", err)
		return
	}

	if err := h.svc.SetPrice(r.Context(), category, req.Price); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to set price", err, "category", category)
		return
	}

	h.logger.Info("price updated", "category", category, "price", req.Price)
	w.WriteHeader(http.StatusNoContent)
}
