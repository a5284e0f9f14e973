// Package users serves caller profiles, backend roles, the one-time admin
// claim, approvals and the admin user directory.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/telemetry"
)

type Store interface {
	Register(ctx context.Context, principal string, p domain.UserProfile) error
	SaveProfile(ctx context.Context, principal string, p domain.UserProfile) error
	Profile(ctx context.Context, principal string) (*domain.UserProfile, error)
	Get(ctx context.Context, principal string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, principal string, blocked bool) error
	IsBlocked(ctx context.Context, principal string) (bool, error)
	Role(ctx context.Context, principal string) (domain.Role, error)
	SetRole(ctx context.Context, principal string, role domain.Role) error
	IsAdmin(ctx context.Context, principal string) (bool, error)
	AdminPrincipals(ctx context.Context) ([]string, error)
	ClaimAdmin(ctx context.Context, principal string) (bool, error)
	RequestApproval(ctx context.Context, principal string) error
	SetApproval(ctx context.Context, principal string, status domain.ApprovalStatus) error
	IsApproved(ctx context.Context, principal string) (bool, error)
	Approvals(ctx context.Context) ([]domain.ApprovalInfo, error)
}

type Handler struct {
	repo    Store
	guard   *auth.Guard
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewHandler(repo Store, guard *auth.Guard, metrics *telemetry.Metrics, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, guard: guard, metrics: metrics, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}

	route("GET /whoami", h.HandleWhoAmI)
	route("GET /me/admin", h.HandleIsCallerAdmin)
	route("GET /me/role", h.HandleCallerRole)
	route("POST /users", h.guard.Authenticated(h.HandleRegister))
	route("GET /me/profile", h.guard.Authenticated(h.HandleGetProfile))
	route("PUT /me/profile", h.guard.Authenticated(h.HandleSaveProfile))
	route("GET /me/approved", h.guard.Authenticated(h.HandleIsCallerApproved))
	route("POST /admin/claim", h.guard.Authenticated(h.HandleClaimAdmin))
	route("POST /approvals", h.guard.Authenticated(h.HandleRequestApproval))
	route("GET /users/{principal}/profile", h.guard.Authenticated(h.HandleUserProfile))
	route("GET /users/{principal}/blocked", h.guard.Authenticated(h.HandleIsBlocked))

	route("GET /admin/principals", h.guard.Admin(h.HandleAdminPrincipals))
	route("GET /users", h.guard.Admin(h.HandleList))
	route("GET /users/{principal}", h.guard.Admin(h.HandleGet))
	route("POST /users/{principal}/block", h.guard.Admin(h.handleSetBlocked(true)))
	route("POST /users/{principal}/unblock", h.guard.Admin(h.handleSetBlocked(false)))
	route("PUT /users/{principal}/role", h.guard.Admin(h.HandleAssignRole))
	route("GET /approvals", h.guard.Admin(h.HandleListApprovals))
	route("PUT /approvals/{principal}", h.guard.Admin(h.HandleSetApproval))
}

func caller(r *http.Request) string {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func validateProfile(p *domain.UserProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Name == "" || p.Phone == "" {
		return fmt.Errorf("%w: name and phone are required", domain.ErrInvalidInput)
	}
	return nil
}

func (h *Handler) HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		p = domain.AnonymousPrincipal
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"principal": p})
}

// HandleIsCallerAdmin reports false for anonymous callers rather than 401.
func (h *Handler) HandleIsCallerAdmin(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"admin": false})
		return
	}

	admin, err := h.repo.IsAdmin(r.Context(), p)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to check admin", err, "principal", p)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"admin": admin})
}

func (h *Handler) HandleCallerRole(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]domain.Role{"role": domain.RoleGuest})
		return
	}

	role, err := h.repo.Role(r.Context(), p)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get role", err, "principal", p)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]domain.Role{"role": role})
}

// HandleRegister treats a repeated registration as success and returns the
// stored user untouched.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	p := caller(r)

	var req domain.UserProfile
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid register request", err)
		return
	}
	if err := validateProfile(&req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid register request", err)
		return
	}

	status := http.StatusCreated
	err := h.repo.Register(r.Context(), p, req)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusOK
	case err != nil:
		httpapi.WriteDomainError(w, h.logger, "failed to register user", err, "principal", p)
		return
	default:
		h.logger.Info("user registered", "principal", p)
	}

	user, err := h.repo.Get(r.Context(), p)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to load user", err, "principal", p)
		return
	}
	httpapi.WriteJSON(w, h.logger, status, user)
}

// HandleGetProfile answers null when the caller has no profile yet.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.Profile(r.Context(), caller(r))
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get profile", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, profile)
}

func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	p := caller(r)

	var req domain.UserProfile
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid profile", err)
		return
	}
	if err := validateProfile(&req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid profile", err)
		return
	}

	if err := h.repo.SaveProfile(r.Context(), p, req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to save profile", err, "principal", p)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, req)
}

// HandleIsCallerApproved counts admins as approved.
func (h *Handler) HandleIsCallerApproved(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	if h.guard.IsAdmin(r.Context(), p) {
		httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"approved": true})
		return
	}

	ok, err := h.repo.IsApproved(r.Context(), p)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to check approval", err, "principal", p)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"approved": ok})
}

func (h *Handler) HandleClaimAdmin(w http.ResponseWriter, r *http.Request) {
	p := caller(r)

	granted, err := h.repo.ClaimAdmin(r.Context(), p)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to claim admin", err, "principal", p)
		return
	}

	h.metrics.AdminClaim(r.Context(), granted)
	if granted {
		h.logger.Info("admin claimed", "principal", p)
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"granted": granted})
}

func (h *Handler) HandleRequestApproval(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	if err := h.repo.RequestApproval(r.Context(), p); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to request approval", err, "principal", p)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUserProfile lets callers read their own profile, and admins anyone's.
func (h *Handler) HandleUserProfile(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("principal")
	self := caller(r)
	if target != self && !h.guard.IsAdmin(r.Context(), self) {
		httpapi.WriteError(w, h.logger, http.StatusForbidden, "admin access required")
		return
	}

	profile, err := h.repo.Profile(r.Context(), target)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get profile", err, "principal", target)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, profile)
}

func (h *Handler) HandleIsBlocked(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("principal")
	blocked, err := h.repo.IsBlocked(r.Context(), target)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to check block", err, "principal", target)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"blocked": blocked})
}

func (h *Handler) HandleAdminPrincipals(w http.ResponseWriter, r *http.Request) {
	principals, err := h.repo.AdminPrincipals(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list admins", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, principals)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list users", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, users)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("principal")
	user, err := h.repo.Get(r.Context(), target)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to get user", err, "principal", target)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, user)
}

func (h *Handler) handleSetBlocked(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.PathValue("principal")
		if err := h.repo.SetBlocked(r.Context(), target, blocked); err != nil {
			httpapi.WriteDomainError(w, h.logger, "failed to set block", err, "principal", target)
			return
		}
		h.logger.Info("user block changed", "principal", target, "blocked", blocked, "by", caller(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

type roleRequest struct {
	Role domain.Role `json:"role"`
}

func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("principal")

	var req roleRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid role request", err)
		return
	}
	if !req.Role.Valid() {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "unknown role")
		return
	}

	if err := h.repo.SetRole(r.Context(), target, req.Role); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to assign role", err, "principal", target)
		return
	}
	h.logger.Info("role assigned", "principal", target, "role", req.Role, "by", caller(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.repo.Approvals(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list approvals", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, approvals)
}

type approvalRequest struct {
	Status domain.ApprovalStatus `json:"status"`
}

func (h *Handler) HandleSetApproval(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("principal")

	var req approvalRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid approval request", err)
		return
	}
	if !req.Status.Valid() {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "unknown approval status")
		return
	}

	if err := h.repo.SetApproval(r.Context(), target, req.Status); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to set approval", err, "principal", target)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
