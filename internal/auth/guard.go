package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/presswala/internal/httpapi"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, principal string) (bool, error)
}

type Guard struct {
	admins AdminChecker
	logger *slog.Logger
}

func NewGuard(admins AdminChecker, logger *slog.Logger) *Guard {
	return &Guard{admins: admins, logger: logger}
}

// Authenticated rejects anonymous callers.
func (g *Guard) Authenticated(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			httpapi.WriteError(w, g.logger, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r)
	}
}

// Admin lets only admins through. A failing check counts as "not admin".
func (g *Guard) Admin(h http.HandlerFunc) http.HandlerFunc {
	return g.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		ok, err := g.admins.IsAdmin(r.Context(), principal)
		if err != nil {
			g.logger.Error("admin check failed", "error", err, "principal", principal)
		}
		if err != nil || !ok {
			httpapi.WriteError(w, g.logger, http.StatusForbidden, "admin access required")
			return
		}
		h(w, r)
	})
}

// IsAdmin is the fail-closed check for handlers that branch on admin status.
func (g *Guard) IsAdmin(ctx context.Context, principal string) bool {
	if principal == "" {
		return false
	}
	ok, err := g.admins.IsAdmin(ctx, principal)
	if err != nil {
		g.logger.Error("admin check failed", "error", err, "principal", principal)
		return false
	}
	return ok
}
