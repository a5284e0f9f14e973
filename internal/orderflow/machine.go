// Package orderflow validates and applies order status transitions.
package orderflow

import (
	"fmt"
	"time"

	"github.com/joao-fontenele/presswala/internal/domain"
)

type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorPartner  ActorRole = "partner"
	ActorAdmin    ActorRole = "admin"
)

type Actor struct {
	Principal string
	Role      ActorRole
}

// ActorFor derives the caller's role relative to a single order.
func ActorFor(o *domain.Order, principal string, isAdmin bool) Actor {
	switch {
	case isAdmin:
		return Actor{Principal: principal, Role: ActorAdmin}
	case principal == o.CustomerID:
		return Actor{Principal: principal, Role: ActorCustomer}
	default:
		return Actor{Principal: principal, Role: ActorPartner}
	}
}

var forward = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:  domain.OrderStatusAccepted,
	domain.OrderStatusAccepted: domain.OrderStatusPickedUp,
	domain.OrderStatusPickedUp: domain.OrderStatusIroning,
	domain.OrderStatusIroning:  domain.OrderStatusDelivered,
}

// NextStatus returns the single forward step from s, if any.
func NextStatus(s domain.OrderStatus) (domain.OrderStatus, bool) {
	next, ok := forward[s]
	return next, ok
}

// Check reports whether actor may move o to next without touching o.
func Check(o *domain.Order, next domain.OrderStatus, actor Actor) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, o.ID, o.Status)
	}

	if next == domain.OrderStatusCancelled {
		if actor.Role != ActorAdmin {
			return fmt.Errorf("%w: only an admin may cancel", domain.ErrForbidden)
		}
		return nil
	}

	if step, ok := forward[o.Status]; !ok || step != next {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, next)
	}

	if actor.Role != ActorPartner {
		return fmt.Errorf("%w: %s may not move an order to %s", domain.ErrForbidden, actor.Role, next)
	}

	if next == domain.OrderStatusAccepted {
		if o.Assigned() {
			return fmt.Errorf("%w: order %d already has a partner", domain.ErrInvalidTransition, o.ID)
		}
		return nil
	}

	if o.Assigned() && o.PartnerID != actor.Principal {
		return fmt.Errorf("%w: order %d is assigned to another partner", domain.ErrForbidden, o.ID)
	}
	return nil
}

// Apply validates the transition and only then mutates o. UpdatedAt always
// moves forward, even when the clock reports a time at or before the last
// update.
func Apply(o *domain.Order, next domain.OrderStatus, actor Actor, now time.Time) error {
	if err := Check(o, next, actor); err != nil {
		return err
	}

	if next == domain.OrderStatusAccepted {
		o.PartnerID = actor.Principal
	}
	o.Status = next

	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(o.UpdatedAt) {
		now = o.UpdatedAt.Add(time.Microsecond)
	}
	o.UpdatedAt = now
	return nil
}
