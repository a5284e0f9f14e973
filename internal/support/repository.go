package support

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joao-fontenele/presswala/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateBroadcast(ctx context.Context, b *domain.Broadcast) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO broadcasts (message, target_audience) VALUES ($1, $2)
		RETURNING id, sent_at
	`, b.Message, b.TargetAudience).Scan(&b.ID, &b.SentAt)
}

func (r *Repository) Broadcasts(ctx context.Context) ([]domain.Broadcast, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message, target_audience, sent_at FROM broadcasts ORDER BY sent_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Broadcast{}
	for rows.Next() {
		var b domain.Broadcast
		if err := rows.Scan(&b.ID, &b.Message, &b.TargetAudience, &b.SentAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) CreateComplaint(ctx context.Context, c *domain.Complaint) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO complaints (order_id, customer_id, complaint_type, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.OrderID, c.CustomerID, c.ComplaintType, c.Description, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (r *Repository) Complaints(ctx context.Context) ([]domain.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, customer_id, complaint_type, description, status, created_at
		FROM complaints
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Complaint{}
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(&c.ID, &c.OrderID, &c.CustomerID, &c.ComplaintType, &c.Description, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) SetComplaintStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE complaints SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("complaint %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddNotification stores n once per event id; redelivered events are
// ignored.
func (r *Repository) AddNotification(ctx context.Context, eventID string, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, event_id) VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`, n.UserID, n.Message, sql.NullString{String: eventID, Valid: eventID != ""})
	return err
}

func (r *Repository) Notifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
