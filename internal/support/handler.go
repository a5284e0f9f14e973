// Package support serves admin broadcasts, customer complaints and
// per-user notifications.
package support

import (
	"context"
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
	CreateBroadcast(ctx context.Context, b *domain.Broadcast) error
	Broadcasts(ctx context.Context) ([]domain.Broadcast, error)
	CreateComplaint(ctx context.Context, c *domain.Complaint) error
	Complaints(ctx context.Context) ([]domain.Complaint, error)
	SetComplaintStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error
	Notifications(ctx context.Context, userID string) ([]domain.Notification, error)
}

type OrderGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

type Handler struct {
	repo   Store
	orders OrderGetter
	guard  *auth.Guard
	logger *slog.Logger
}

func NewHandler(repo Store, orders OrderGetter, guard *auth.Guard, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, orders: orders, guard: guard, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /broadcasts", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleSendBroadcast)))
	mux.HandleFunc("GET /broadcasts", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleListBroadcasts)))
	mux.HandleFunc("POST /complaints", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleSubmitComplaint)))
	mux.HandleFunc("GET /complaints", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleListComplaints)))
	mux.HandleFunc("PATCH /complaints/{id}/status", telemetry.WithHTTPRoute(h.guard.Admin(h.HandleSetComplaintStatus)))
	mux.HandleFunc("GET /me/notifications", telemetry.WithHTTPRoute(h.guard.Authenticated(h.HandleNotifications)))
}

type broadcastRequest struct {
	Message        string `json:"message"`
	TargetAudience string `json:"target_audience"`
}

func (h *Handler) HandleSendBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid broadcast request", err)
		return
	}
	b := &domain.Broadcast{
		Message:        strings.TrimSpace(req.Message),
		TargetAudience: strings.TrimSpace(req.TargetAudience),
	}
	if b.Message == "" || b.TargetAudience == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "message and target audience are required")
		return
	}

	if err := h.repo.CreateBroadcast(r.Context(), b); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to send broadcast", err)
		return
	}

	h.logger.Info("broadcast sent", "broadcast_id", b.ID, "audience", b.TargetAudience)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, b)
}

func (h *Handler) HandleListBroadcasts(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.Broadcasts(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list broadcasts", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, out)
}

type complaintRequest struct {
	OrderID       int64  `json:"order_id"`
	ComplaintType string `json:"complaint_type"`
	Description   string `json:"description"`
}

// HandleSubmitComplaint accepts complaints only about the caller's own orders.
func (h *Handler) HandleSubmitComplaint(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req complaintRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid complaint request", err)
		return
	}
	req.ComplaintType = strings.TrimSpace(req.ComplaintType)
	req.Description = strings.TrimSpace(req.Description)
	if req.ComplaintType == "" || req.Description == "" {
		err := fmt.Errorf("%w: complaint type and description are required", domain.ErrInvalidInput)
		httpapi.WriteDomainError(w, h.logger, "invalid complaint request", err)
		return
	}

	order, err := h.orders.GetByID(r.Context(), req.OrderID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to load complaint order", err, "order_id", req.OrderID)
		return
	}
	if order.CustomerID != principal {
		httpapi.WriteError(w, h.logger, http.StatusForbidden, "order belongs to another user")
		return
	}

	c := &domain.Complaint{
		OrderID:       req.OrderID,
		CustomerID:    principal,
		ComplaintType: req.ComplaintType,
		Description:   req.Description,
		Status:        domain.ComplaintOpen,
	}
	if err := h.repo.CreateComplaint(r.Context(), c); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to submit complaint", err)
		return
	}

	h.logger.Info("complaint submitted", "complaint_id", c.ID, "order_id", c.OrderID)
	httpapi.WriteJSON(w, h.logger, http.StatusCreated, c)
}

func (h *Handler) HandleListComplaints(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.Complaints(r.Context())
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list complaints", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, out)
}

type complaintStatusRequest struct {
	Status domain.ComplaintStatus `json:"status"`
}

func (h *Handler) HandleSetComplaintStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathID(r, "id")
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid complaint id", err)
		return
	}

	var req complaintStatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteDomainError(w, h.logger, "invalid complaint status request", err)
		return
	}
	if !req.Status.Valid() {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "unknown complaint status")
		return
	}

	if err := h.repo.SetComplaintStatus(r.Context(), id, req.Status); err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to update complaint", err, "complaint_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	out, err := h.repo.Notifications(r.Context(), principal)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, "failed to list notifications", err)
		return
	}
	httpapi.WriteJSON(w, h.logger, http.StatusOK, out)
}
