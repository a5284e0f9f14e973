package session

import (
	"context"
	"errors"
	"time"
)

type Capability string

const (
	CapCustomer Capability = "customer"
	CapPartner  Capability = "partner"
	CapOwner    Capability = "owner"
	CapAdmin    Capability = "admin"
)

type Outcome string

const (
	OutcomeLoading   Outcome = "loading"
	OutcomeRetry     Outcome = "retry"
	OutcomeNeedsAuth Outcome = "needs_auth"
	OutcomeDenied    Outcome = "denied"
	OutcomeGranted   Outcome = "granted"
)

// Decision carries the caller's principal on denial so it can be shown for
// support.
type Decision struct {
	Outcome   Outcome
	Principal string
}

type GateInput struct {
	Pending       bool
	Elapsed       time.Duration
	Timeout       time.Duration
	Authenticated bool
	Authorized    bool
	Principal     string
}

// Evaluate is the gate rule for a view that renders while checks are still
// in flight.
func Evaluate(in GateInput) Decision {
	if in.Pending {
		if in.Timeout > 0 && in.Elapsed >= in.Timeout {
			return Decision{Outcome: OutcomeRetry}
		}
		return Decision{Outcome: OutcomeLoading}
	}
	if !in.Authenticated {
		return Decision{Outcome: OutcomeNeedsAuth}
	}
	if !in.Authorized {
		return Decision{Outcome: OutcomeDenied, Principal: in.Principal}
	}
	return Decision{Outcome: OutcomeGranted}
}

type Gate struct {
	remote        Remote
	authenticated bool
	timeout       time.Duration
}

func NewGate(remote Remote, authenticated bool, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultAdminTimeout
	}
	return &Gate{remote: remote, authenticated: authenticated, timeout: timeout}
}

// Check blocks until the capability is decided or the timeout elapses.
// Non-admin capabilities only need a signed-in caller; admin is re-checked
// against the remote service on every call.
func (g *Gate) Check(ctx context.Context, c Capability) Decision {
	if !g.authenticated {
		return Evaluate(GateInput{})
	}
	if c != CapAdmin {
		return Evaluate(GateInput{Authenticated: true, Authorized: true})
	}

	ok, err := callWithin(ctx, g.timeout, g.remote.IsCallerAdmin)
	if errors.Is(err, errCheckTimeout) {
		return Evaluate(GateInput{Pending: true, Elapsed: g.timeout, Timeout: g.timeout})
	}

	in := GateInput{Authenticated: true, Authorized: err == nil && ok}
	if !in.Authorized {
		in.Principal = g.principal(ctx)
	}
	return Evaluate(in)
}

// principal is best effort and shares the admin check's timeout; a slow
// lookup leaves it blank.
func (g *Gate) principal(ctx context.Context) string {
	p, err := callWithin(ctx, g.timeout, g.remote.WhoAmI)
	if err != nil {
		return ""
	}
	return p
}
