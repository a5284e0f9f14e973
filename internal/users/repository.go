package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/presswala/internal/domain"
)

const uniqueViolation = "23505"

// Counters are derived from delivered orders the user served as partner.
const userSelect = `
	SELECT u.principal, u.name, u.phone, u.is_blocked, u.balance, u.created_at,
		COUNT(o.id) FILTER (WHERE o.status = 'delivered'),
		COALESCE(SUM(o.total_amount) FILTER (WHERE o.status = 'delivered'), 0)
	FROM users u
	LEFT JOIN orders o ON o.partner_id = u.principal
`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.Principal, &u.Name, &u.Phone, &u.IsBlocked, &u.Balance, &u.CreatedAt,
		&u.CompletedOrders, &u.TotalEarnings)
	return u, err
}

// Register creates the user. An existing registration is reported with
// domain.ErrAlreadyExists and left unchanged.
func (r *Repository) Register(ctx context.Context, principal string, p domain.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (principal, name, phone) VALUES ($1, $2, $3)
	`, principal, p.Name, p.Phone)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("user %s: %w", principal, domain.ErrAlreadyExists)
	}
	return err
}

func (r *Repository) SaveProfile(ctx context.Context, principal string, p domain.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (principal, name, phone) VALUES ($1, $2, $3)
		ON CONFLICT (principal) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone
	`, principal, p.Name, p.Phone)
	return err
}

// Profile returns nil, nil when the principal has no profile.
func (r *Repository) Profile(ctx context.Context, principal string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT name, phone FROM users WHERE principal = $1
	`, principal).Scan(&p.Name, &p.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Get(ctx context.Context, principal string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+`
		WHERE u.principal = $1
		GROUP BY u.principal
	`, principal))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", principal, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+`
		GROUP BY u.principal
		ORDER BY u.created_at, u.principal
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Repository) SetBlocked(ctx context.Context, principal string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_blocked = $2 WHERE principal = $1`, principal, blocked)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", principal, domain.ErrNotFound)
	}
	return nil
}

// IsBlocked is false for unregistered principals.
func (r *Repository) IsBlocked(ctx context.Context, principal string) (bool, error) {
	var blocked bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE principal = $1 AND is_blocked)
	`, principal).Scan(&blocked)
	return blocked, err
}

// Role resolves the stored backend role: an explicit assignment wins,
// registered users default to user, everyone else is a guest.
func (r *Repository) Role(ctx context.Context, principal string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT role FROM user_roles WHERE principal = $1),
			(SELECT 'user' FROM users WHERE principal = $1),
			'guest'
		)
	`, principal).Scan(&role)
	return role, err
}

func (r *Repository) SetRole(ctx context.Context, principal string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (principal, role) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET role = EXCLUDED.role
	`, principal, role)
	return err
}

func (r *Repository) IsAdmin(ctx context.Context, principal string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_roles WHERE principal = $1 AND role = 'admin')
	`, principal).Scan(&ok)
	return ok, err
}

func (r *Repository) AdminPrincipals(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT principal FROM user_roles WHERE role = 'admin' ORDER BY principal
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimAdmin grants admin to principal only if nobody has ever claimed it.
// The bootstrap row is written once, so repeated calls report false.
func (r *Repository) ClaimAdmin(ctx context.Context, principal string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO admin_bootstrap (principal) VALUES ($1)
		ON CONFLICT DO NOTHING
	`, principal)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_roles (principal, role) VALUES ($1, 'admin')
		ON CONFLICT (principal) DO UPDATE SET role = 'admin'
	`, principal); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// RequestApproval files a pending request. An approved principal stays
// approved.
func (r *Repository) RequestApproval(ctx context.Context, principal string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO approvals (principal, status) VALUES ($1, 'pending')
		ON CONFLICT (principal) DO UPDATE SET
			status = CASE WHEN approvals.status = 'approved' THEN 'approved' ELSE 'pending' END,
			updated_at = NOW()
	`, principal)
	return err
}

func (r *Repository) SetApproval(ctx context.Context, principal string, status domain.ApprovalStatus) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO approvals (principal, status) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`, principal, status)
	return err
}

func (r *Repository) IsApproved(ctx context.Context, principal string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM approvals WHERE principal = $1 AND status = 'approved')
	`, principal).Scan(&ok)
	return ok, err
}

func (r *Repository) Approvals(ctx context.Context) ([]domain.ApprovalInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT principal, status FROM approvals ORDER BY updated_at DESC, principal
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.ApprovalInfo{}
	for rows.Next() {
		var a domain.ApprovalInfo
		if err := rows.Scan(&a.Principal, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
