package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/messaging"
)

type fakeSink struct {
	keys  []string
	notes []domain.Notification
	err   error
}

func (s *fakeSink) AddNotification(_ context.Context, key string, n *domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	s.notes = append(s.notes, *n)
	return nil
}

func delivery(t *testing.T, e domain.OrderEvent) messaging.Delivery {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return messaging.Delivery{Key: "1", Type: e.Type, Payload: b}
}

func newHandler(sink Sink) *Handler {
	return NewHandler(sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandle(t *testing.T) {
	t.Run("status change notifies customer", func(t *testing.T) {
		sink := &fakeSink{}
		err := newHandler(sink).Handle(context.Background(), delivery(t, domain.OrderEvent{
			EventID: "ev-1", Type: domain.EventOrderStatusChanged, OrderID: 7,
			CustomerID: "cust", PartnerID: "p", From: domain.OrderStatusAccepted, To: domain.OrderStatusPickedUp,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sink.notes) != 1 || sink.notes[0].UserID != "cust" {
			t.Fatalf("unexpected notifications %+v", sink.notes)
		}
		if got := sink.notes[0].Message; got != "Your order #7 is now Picked Up" {
			t.Errorf("unexpected message %q", got)
		}
		if sink.keys[0] != "ev-1:0" {
			t.Errorf("unexpected dedupe key %q", sink.keys[0])
		}
	})

	t.Run("cancel also notifies partner", func(t *testing.T) {
		sink := &fakeSink{}
		_ = newHandler(sink).Handle(context.Background(), delivery(t, domain.OrderEvent{
			EventID: "ev-2", Type: domain.EventOrderStatusChanged, OrderID: 7,
			CustomerID: "cust", PartnerID: "p", To: domain.OrderStatusCancelled,
		}))
		if len(sink.notes) != 2 || sink.notes[1].UserID != "p" {
			t.Errorf("unexpected notifications %+v", sink.notes)
		}
	})

	t.Run("placed", func(t *testing.T) {
		sink := &fakeSink{}
		_ = newHandler(sink).Handle(context.Background(), delivery(t, domain.OrderEvent{
			EventID: "ev-3", Type: domain.EventOrderPlaced, OrderID: 1, CustomerID: "cust", TotalAmount: 44,
		}))
		if len(sink.notes) != 1 || sink.notes[0].Message != "Your order #1 has been placed. Total: ₹44" {
			t.Errorf("unexpected notifications %+v", sink.notes)
		}
	})

	t.Run("malformed is skipped", func(t *testing.T) {
		sink := &fakeSink{}
		err := newHandler(sink).Handle(context.Background(), messaging.Delivery{Payload: []byte("{")})
		if err != nil || len(sink.notes) != 0 {
			t.Errorf("expected skip, got err=%v notes=%v", err, sink.notes)
		}
	})

	t.Run("unknown type is skipped", func(t *testing.T) {
		sink := &fakeSink{}
		err := newHandler(sink).Handle(context.Background(), delivery(t, domain.OrderEvent{Type: "order.archived", OrderID: 1}))
		if err != nil || len(sink.notes) != 0 {
			t.Errorf("expected skip, got err=%v notes=%v", err, sink.notes)
		}
	})

	t.Run("storage error stops", func(t *testing.T) {
		boom := errors.New("db down")
		err := newHandler(&fakeSink{err: boom}).Handle(context.Background(), delivery(t, domain.OrderEvent{
			Type: domain.EventOrderPlaced, OrderID: 1, CustomerID: "cust",
		}))
		if !errors.Is(err, boom) {
			t.Errorf("expected storage error, got %v", err)
		}
	})
}
