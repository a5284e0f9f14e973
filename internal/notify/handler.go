// Package notify turns order events into per-user notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/messaging"
)

type Sink interface {
	AddNotification(ctx context.Context, eventID string, n *domain.Notification) error
}

type Handler struct {
	sink   Sink
	logger *slog.Logger
}

func NewHandler(sink Sink, logger *slog.Logger) *Handler {
	return &Handler{sink: sink, logger: logger}
}

// Handle stores the notifications for one delivery. Malformed or unknown
// events are logged and skipped so they cannot wedge the partition; storage
// errors are returned and stop the consumer before the commit.
func (h *Handler) Handle(ctx context.Context, d messaging.Delivery) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(d.Payload, &event); err != nil {
		h.logger.Error("skipping malformed order event", "error", err, "key", d.Key)
		return nil
	}
	if event.Type == "" {
		event.Type = d.Type
	}

	notes := Messages(event)
	if notes == nil {
		h.logger.Warn("skipping unknown order event", "type", event.Type, "order_id", event.OrderID)
		return nil
	}

	for i, n := range notes {
		key := fmt.Sprintf("%s:%d", event.EventID, i)
		if event.EventID == "" {
			key = ""
		}
		if err := h.sink.AddNotification(ctx, key, &n); err != nil {
			return fmt.Errorf("store notification for order %d: %w", event.OrderID, err)
		}
	}

	h.logger.Info("order event processed", "type", event.Type, "order_id", event.OrderID, "notifications", len(notes))
	return nil
}

// Messages renders the notifications an event produces, or nil when the
// event type is unknown.
func Messages(e domain.OrderEvent) []domain.Notification {
	switch e.Type {
	case domain.EventOrderPlaced:
		return []domain.Notification{{
			UserID:  e.CustomerID,
			Message: fmt.Sprintf("Your order #%d has been placed. Total: ₹%d", e.OrderID, e.TotalAmount),
		}}
	case domain.EventOrderStatusChanged:
		notes := []domain.Notification{{
			UserID:  e.CustomerID,
			Message: fmt.Sprintf("Your order #%d is now %s", e.OrderID, e.To.Label()),
		}}
		if e.To == domain.OrderStatusCancelled && e.PartnerID != "" {
			notes = append(notes, domain.Notification{
				UserID:  e.PartnerID,
				Message: fmt.Sprintf("Order #%d was cancelled by an admin", e.OrderID),
			})
		}
		return notes
	default:
		return nil
	}
}
