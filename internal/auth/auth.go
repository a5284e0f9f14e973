// Package auth verifies caller principals carried as bearer tokens and gates
// handlers on authentication and admin status.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/presswala/internal/httpapi"
)

type contextKey string

const principalKey contextKey = "principal"

// Claims carry the principal in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey).(string)
	return p, ok && p != ""
}

type Authenticator struct {
	secret []byte
	logger *slog.Logger
}

func NewAuthenticator(secret []byte, logger *slog.Logger) *Authenticator {
	return &Authenticator{secret: secret, logger: logger}
}

// Parse validates a raw token and returns its principal.
func (a *Authenticator) Parse(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Middleware attaches the principal of a valid bearer token to the request.
// Requests without a token continue anonymously; malformed or invalid tokens
// are rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			httpapi.WriteError(w, a.logger, http.StatusUnauthorized, "invalid token format")
			return
		}

		principal, err := a.Parse(raw)
		if err != nil {
			a.logger.Info("rejected token", "error", err)
			httpapi.WriteError(w, a.logger, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Issue mints a token for principal. The external identity provider does
// this in production; the CLI and tests use it directly.
func Issue(secret []byte, principal string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
