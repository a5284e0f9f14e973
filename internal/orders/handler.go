package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/orderflow"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

type Store interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	List(ctx context.Context) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

// Catalog supplies current prices at placement time.
type Catalog interface {
	GetPricing(ctx context.Context) (domain.Pricing, error)
	ItemsByID(ctx context.Context, ids []int64) (map[int64]domain.ClothingItem, error)
}

type BlockChecker interface {
	IsBlocked(ctx context.Context, principal string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type Handler struct {
	repo      Store
	catalog   Catalog
	users     BlockChecker
	guard     *auth.Guard
	publisher Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler wires the order endpoints. publisher and metrics may be nil.
func NewHandler(repo Store, catalog Catalog, users BlockChecker, guard *auth.Guard, publisher Publisher, metrics *telemetry.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		catalog:   catalog,
		users:     users,
		guard:     guard,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandlePlace)))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleList)))
	mux.HandleFunc("GET /orders/mine", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleListMine)))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleGet)))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleUpdateStatus)))
}

func (h *Handler) rejectBlocked(ctx context.Context, principal string) error {
	blocked, err := h.users.IsBlocked(ctx, principal)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrBlocked
	}
	return nil
}

func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFrom(ctx)

	var req placeOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid place order request", err)
		return
	}
	if err := req.validate(); err != nil {
		httpapi.WriteDomainError(w, h.logger, "rejected order", err, "customer_id", principal)
		return
	}
	if err := h.rejectBlocked(ctx, principal); err != nil {
		httpapi.WriteDomainError(w, h.logger, "rejected order", err, "customer_id", principal)
		return
	}

	prices, err := h.catalog.GetPricing(ctx)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to load pricing", err)
		return
	}
	items, err := h.catalog.ItemsByID(ctx, req.itemIDs())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to load clothing items", err)
		return
	}

	order, err := buildOrder(req, principal, prices, items, h.now())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "rejected order", err, "customer_id", principal)
		return
	}

	if err := h.repo.Create(ctx, order); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to create order", err)
		return
	}

	h.metrics.OrderPlaced(ctx, order.TotalAmount)
	h.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderPlaced,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		To:          order.Status,
		TotalAmount: order.TotalAmount,
		Timestamp:   order.CreatedAt,
	})

	h.logger.Info("order placed", "order_id", order.ID, "customer_id", order.CustomerID, "total", order.TotalAmount)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, order)
}

// HandleGet returns an order to its customer, its partner, admins, or to
// anyone while it is still pending so partners can inspect it before
// accepting.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFrom(ctx)

	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid order id", err)
		return
	}

	order, err := h.repo.GetByID(ctx, id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get order", err, "id", id)
		return
	}

	visible := order.Status == domain.OrderStatusPending ||
		order.CustomerID == principal ||
		order.PartnerID == principal ||
		h.guard.IsAdmin(ctx, principal)
	if !visible {
		httpapi.WriteError(w, h.logger, http.StatusForbidden, "order belongs to another user")
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFrom(ctx)

	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid order id", err)
		return
	}

	var req updateStatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid update status request", err)
		return
	}

	order, err := h.repo.GetByID(ctx, id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get order", err, "id", id)
		return
	}

	actor := orderflow.ActorFor(order, principal, h.guard.IsAdmin(ctx, principal))
	if actor.Role != orderflow.ActorAdmin {
		if err := h.rejectBlocked(ctx, principal); err != nil {
			httpapi.WriteDomainError(w, h.logger, "rejected transition", err, "id", id)
			return
		}
	}

	from := order.Status
	if err := orderflow.Apply(order, req.Status, actor, h.now()); err != nil {
		h.metrics.Transition(ctx, req.Status, outcome(err))
		httpapi.WriteDomainError(w, h.logger, "rejected transition", err,
			"id", id, "from", from, "to", req.Status, "actor", actor.Role)
		return
	}

	if err := h.repo.Update(ctx, order); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to update order status", err, "id", id)
		return
	}

	h.metrics.Transition(ctx, order.Status, "ok")
	h.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderStatusChanged,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		PartnerID:   order.PartnerID,
		From:        from,
		To:          order.Status,
		TotalAmount: order.TotalAmount,
		Timestamp:   order.UpdatedAt,
	})

	h.logger.Info("order status updated", "order_id", order.ID, "from", from, "to", order.Status, "actor", actor.Role)
	httpapi.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list orders", err)
		return
	}

	h.logger.Debug("orders listed", "count", len(orders))
	httpapi.WriteJSON(w, h.logger, http.StatusOK, orders)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	orders, err := h.repo.ListByCustomer(r.Context(), principal)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list caller orders", err)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, orders)
}

// publish never fails the request; the order is already stored.
func (h *Handler) publish(ctx context.Context, event domain.OrderEvent) {
	if h.publisher == nil {
		return
	}
	event.EventID = uuid.New().String()
	key := strconv.FormatInt(event.OrderID, 10)
	if err := h.publisher.Publish(ctx, key, event.Type, event); err != nil {
		h.logger.Error("failed to publish order event", "error", err, "order_id", event.OrderID, "type", event.Type)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "error"
	}
}
