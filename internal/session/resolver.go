// Package session maps an authenticated identity to the view it may use.
//
// Decide is the pure routing rule. Resolver gathers its inputs from the
// remote service and the local preference store. Gate wraps a protected view.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/prefs"
)

// Remote is the slice of the backing service the session logic needs.
// CallerProfile returns nil without error when no profile is registered.
type Remote interface {
	CallerProfile(ctx context.Context) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, p domain.UserProfile) error
	IsCallerAdmin(ctx context.Context) (bool, error)
	ClaimAdminIfFirst(ctx context.Context) (bool, error)
	WhoAmI(ctx context.Context) (string, error)
}

type State string

const (
	StateLanding      State = "landing"
	StateLoading      State = "loading"
	StateProfileSetup State = "profile_setup"
	StateRoleSelect   State = "role_select"
	StateCustomer     State = "customer"
	StatePartner      State = "partner"
	StateOwner        State = "owner"
	StateAdmin        State = "admin"
	StateAdminDenied  State = "admin_denied"
)

type AdminCheck int

const (
	AdminPending AdminCheck = iota
	AdminYes
	AdminNo
)

type Input struct {
	Authenticated bool
	ProfileLoaded bool
	HasProfile    bool
	Preferred     prefs.Role
	Admin         AdminCheck
}

// Decide resolves the view for in. A stored admin preference only picks the
// admin view; the server-side check still decides whether it is shown.
func Decide(in Input) State {
	switch {
	case !in.Authenticated:
		return StateLanding
	case !in.ProfileLoaded:
		return StateLoading
	case !in.HasProfile:
		return StateProfileSetup
	}

	switch in.Preferred {
	case prefs.RoleCustomer:
		return StateCustomer
	case prefs.RolePartner:
		return StatePartner
	case prefs.RoleOwner:
		return StateOwner
	case prefs.RoleAdmin:
		switch in.Admin {
		case AdminYes:
			return StateAdmin
		case AdminNo:
			return StateAdminDenied
		default:
			return StateLoading
		}
	default:
		return StateRoleSelect
	}
}

type ClaimOutcome string

const (
	ClaimGranted        ClaimOutcome = "granted"
	ClaimAlreadyClaimed ClaimOutcome = "already_claimed"
)

// DefaultAdminTimeout bounds how long an admin check may keep a view loading.
const DefaultAdminTimeout = 6 * time.Second

type Resolver struct {
	remote        Remote
	store         prefs.Store
	authenticated bool
	adminTimeout  time.Duration
}

func NewResolver(remote Remote, store prefs.Store, authenticated bool) *Resolver {
	return &Resolver{
		remote:        remote,
		store:         store,
		authenticated: authenticated,
		adminTimeout:  DefaultAdminTimeout,
	}
}

// WithAdminTimeout overrides DefaultAdminTimeout.
func (r *Resolver) WithAdminTimeout(d time.Duration) *Resolver {
	r.adminTimeout = d
	return r
}

// Resolve loads the caller's profile and stored preference and returns the
// view to route to. Remote failures while loading the profile are returned
// to the caller; admin check failures are not, they resolve to AdminNo.
func (r *Resolver) Resolve(ctx context.Context) (State, error) {
	if !r.authenticated {
		return StateLanding, nil
	}

	profile, err := r.remote.CallerProfile(ctx)
	if err != nil {
		return StateLoading, fmt.Errorf("load caller profile: %w", err)
	}

	in := Input{
		Authenticated: true,
		ProfileLoaded: true,
		HasProfile:    profile != nil,
	}
	if !in.HasProfile {
		return Decide(in), nil
	}

	in.Preferred, err = r.store.Load()
	if err != nil {
		in.Preferred = prefs.RoleNone
	}
	if in.Preferred == prefs.RoleAdmin {
		in.Admin = AdminNo
		if r.IsAdmin(ctx) {
			in.Admin = AdminYes
		}
	}
	return Decide(in), nil
}

// SaveProfile registers the caller's profile.
func (r *Resolver) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	if !r.authenticated {
		return domain.ErrUnauthenticated
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Name == "" || p.Phone == "" {
		return fmt.Errorf("%w: name and phone are required", domain.ErrInvalidInput)
	}
	return r.remote.SaveProfile(ctx, p)
}

// SelectRole stores the caller's preferred view. Choosing admin does not
// grant anything; it only requires that the caller is signed in.
func (r *Resolver) SelectRole(role prefs.Role) error {
	if !r.authenticated {
		return domain.ErrUnauthenticated
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return r.store.Save(role)
}

// SignOut forgets the stored preference.
func (r *Resolver) SignOut() error {
	return r.store.Clear()
}

// IsAdmin asks the remote service and fails closed on error or timeout.
func (r *Resolver) IsAdmin(ctx context.Context) bool {
	if !r.authenticated {
		return false
	}
	ok, err := callWithin(ctx, r.adminTimeout, r.remote.IsCallerAdmin)
	return err == nil && ok
}

// ClaimAdmin interprets the remote claim result. A false result means some
// admin already exists; it is not an error.
func (r *Resolver) ClaimAdmin(ctx context.Context) (ClaimOutcome, error) {
	if !r.authenticated {
		return "", domain.ErrUnauthenticated
	}
	granted, err := r.remote.ClaimAdminIfFirst(ctx)
	if err != nil {
		return "", fmt.Errorf("claim admin: %w", err)
	}
	if granted {
		return ClaimGranted, nil
	}
	return ClaimAlreadyClaimed, nil
}

var errCheckTimeout = errors.New("check timed out")

// callWithin runs fn and gives up waiting after d. The call itself is only
// abandoned, not cancelled beyond what ctx already does.
func callWithin[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case res := <-done:
		return res.v, res.err
	case <-timer.C:
		return zero, errCheckTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
