// Package admin serves the admin dashboard statistics.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

// ComputeStats summarises the full order and shop sets. "Today" is the UTC
// calendar day containing now; earnings count delivered orders only.
func ComputeStats(orders []domain.Order, shops []domain.Shop, customers int64, now time.Time) domain.AdminStats {
	y, m, d := now.UTC().Date()

	stats := domain.AdminStats{
		TotalShops:     int64(len(shops)),
		TotalCustomers: customers,
	}
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusAccepted, domain.OrderStatusPickedUp, domain.OrderStatusIroning:
			stats.ActiveOrders++
		case domain.OrderStatusDelivered:
			stats.TotalEarnings += o.TotalAmount
		}
		if oy, om, od := o.CreatedAt.UTC().Date(); oy == y && om == m && od == d {
			stats.TotalOrdersToday++
		}
	}
	for _, s := range shops {
		if s.Status == domain.ShopStatusPending {
			stats.PendingShopApprovals++
		}
	}
	return stats
}

type OrderLister interface {
	List(ctx context.Context) ([]domain.Order, error)
}

type ShopLister interface {
	List(ctx context.Context, status domain.ShopStatus) ([]domain.Shop, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Handler struct {
	orders OrderLister
	shops  ShopLister
	users  UserCounter
	guard  *auth.Guard
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(orders OrderLister, shops ShopLister, users UserCounter, guard *auth.Guard, logger *slog.Logger) *Handler {
	return &Handler{orders: orders, shops: shops, users: users, guard: guard, logger: logger, now: time.Now}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/stats", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleStats)))
}

// HandleStats recomputes from scratch on every call.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orders.List(ctx)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list orders for stats", err)
		return
	}
	shops, err := h.shops.List(ctx, "")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list shops for stats", err)
		return
	}
	customers, err := h.users.Count(ctx)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to count users for stats", err)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, ComputeStats(orders, shops, customers, h.now()))
}
