package orderflow

import (
	"errors"
	"testing"
	"time"

	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/pricing"
)

var (
	customer = Actor{Principal: "cust-1", Role: ActorCustomer}
	partner  = Actor{Principal: "partner-1", Role: ActorPartner}
	other    = Actor{Principal: "partner-2", Role: ActorPartner}
	admin    = Actor{Principal: "admin-1", Role: ActorAdmin}
)

func newOrder(status domain.OrderStatus) *domain.Order {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Order{
		ID:          7,
		CustomerID:  customer.Principal,
		Status:      status,
		Shirts:      2,
		Dresses:     1,
		TotalAmount: pricing.Total(pricing.LegacyLines(2, 0, 1, domain.DefaultPricing)),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestApply_HappyPath(t *testing.T) {
	o := newOrder(domain.OrderStatusPending)
	if o.TotalAmount != 44 {
		t.Fatalf("expected total 44, got %d", o.TotalAmount)
	}

	now := o.CreatedAt
	steps := []domain.OrderStatus{
		domain.OrderStatusAccepted,
		domain.OrderStatusPickedUp,
		domain.OrderStatusIroning,
		domain.OrderStatusDelivered,
	}
	for _, next := range steps {
		prev := o.UpdatedAt
		now = now.Add(time.Second)
		if err := Apply(o, next, partner, now); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if o.Status != next {
			t.Fatalf("expected status %s, got %s", next, o.Status)
		}
		if !o.UpdatedAt.After(prev) {
			t.Fatalf("updated_at did not advance: %v -> %v", prev, o.UpdatedAt)
		}
	}

	if o.PartnerID != partner.Principal {
		t.Errorf("expected partner %s, got %q", partner.Principal, o.PartnerID)
	}

	err := Apply(o, domain.OrderStatusCancelled, admin, now.Add(time.Second))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling a delivered order, got %v", err)
	}
}

func TestApply_TerminalStatesRejectEverything(t *testing.T) {
	all := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusAccepted,
		domain.OrderStatusPickedUp,
		domain.OrderStatusIroning,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	}
	for _, terminal := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		for _, next := range all {
			for _, actor := range []Actor{customer, partner, admin} {
				o := newOrder(terminal)
				o.PartnerID = partner.Principal
				err := Apply(o, next, actor, time.Now())
				if !errors.Is(err, domain.ErrInvalidTransition) {
					t.Errorf("%s -> %s by %s: expected ErrInvalidTransition, got %v", terminal, next, actor.Role, err)
				}
			}
		}
	}
}

func TestApply_RejectedAttemptLeavesOrderUntouched(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.OrderStatus
		partner string
		next    domain.OrderStatus
		actor   Actor
		wantErr error
	}{
		{"skip a step", domain.OrderStatusAccepted, partner.Principal, domain.OrderStatusIroning, partner, domain.ErrInvalidTransition},
		{"move backwards", domain.OrderStatusIroning, partner.Principal, domain.OrderStatusPickedUp, partner, domain.ErrInvalidTransition},
		{"pending straight to delivered", domain.OrderStatusPending, "", domain.OrderStatusDelivered, partner, domain.ErrInvalidTransition},
		{"unknown status", domain.OrderStatusPending, "", domain.OrderStatus("washing"), partner, domain.ErrInvalidTransition},
		{"customer accepts own order", domain.OrderStatusPending, "", domain.OrderStatusAccepted, customer, domain.ErrForbidden},
		{"admin advances", domain.OrderStatusAccepted, partner.Principal, domain.OrderStatusPickedUp, admin, domain.ErrForbidden},
		{"partner cancels", domain.OrderStatusAccepted, partner.Principal, domain.OrderStatusCancelled, partner, domain.ErrForbidden},
		{"customer cancels", domain.OrderStatusPending, "", domain.OrderStatusCancelled, customer, domain.ErrForbidden},
		{"other partner advances", domain.OrderStatusAccepted, partner.Principal, domain.OrderStatusPickedUp, other, domain.ErrForbidden},
		{"accept an assigned order", domain.OrderStatusPending, partner.Principal, domain.OrderStatusAccepted, other, domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.status)
			o.PartnerID = tt.partner
			before := *o

			err := Apply(o, tt.next, tt.actor, time.Now())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if o.Status != before.Status || o.PartnerID != before.PartnerID || !o.UpdatedAt.Equal(before.UpdatedAt) {
				t.Errorf("order mutated by rejected transition: before %+v, after %+v", before, *o)
			}
		})
	}
}

func TestApply_AdminCancelsFromAnyNonTerminalState(t *testing.T) {
	for _, s := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusAccepted,
		domain.OrderStatusPickedUp,
		domain.OrderStatusIroning,
	} {
		o := newOrder(s)
		if err := Apply(o, domain.OrderStatusCancelled, admin, time.Now()); err != nil {
			t.Errorf("cancel from %s: %v", s, err)
		}
		if o.Status != domain.OrderStatusCancelled {
			t.Errorf("expected cancelled, got %s", o.Status)
		}
	}
}

func TestApply_UpdatedAtStrictlyIncreasesWithStaleClock(t *testing.T) {
	o := newOrder(domain.OrderStatusPending)
	stale := o.UpdatedAt.Add(-time.Hour)

	if err := Apply(o, domain.OrderStatusAccepted, partner, stale); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	first := o.UpdatedAt
	if !first.After(o.CreatedAt) {
		t.Fatalf("expected updated_at after %v, got %v", o.CreatedAt, first)
	}

	if err := Apply(o, domain.OrderStatusPickedUp, partner, first); err != nil {
		t.Fatalf("pick up failed: %v", err)
	}
	if !o.UpdatedAt.After(first) {
		t.Errorf("expected updated_at after %v, got %v", first, o.UpdatedAt)
	}
}

func TestActorFor(t *testing.T) {
	o := newOrder(domain.OrderStatusPending)

	if got := ActorFor(o, customer.Principal, false); got.Role != ActorCustomer {
		t.Errorf("expected customer, got %s", got.Role)
	}
	if got := ActorFor(o, "someone-else", false); got.Role != ActorPartner {
		t.Errorf("expected partner, got %s", got.Role)
	}
	if got := ActorFor(o, customer.Principal, true); got.Role != ActorAdmin {
		t.Errorf("expected admin to win over customer, got %s", got.Role)
	}
}

func TestNextStatus(t *testing.T) {
	if next, ok := NextStatus(domain.OrderStatusPickedUp); !ok || next != domain.OrderStatusIroning {
		t.Errorf("expected ironing after pickedUp, got %s %v", next, ok)
	}
	if _, ok := NextStatus(domain.OrderStatusDelivered); ok {
		t.Error("expected no step after delivered")
	}
}
