package shops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/presswala/internal/domain"
)

const shopColumns = `id, owner_id, owner_name, shop_name, mobile, address, service_area,
	price_per_cloth, working_hours, status, created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShop(s rowScanner) (domain.Shop, error) {
	var sh domain.Shop
	err := s.Scan(&sh.ID, &sh.OwnerID, &sh.OwnerName, &sh.ShopName, &sh.Mobile, &sh.Address,
		&sh.ServiceArea, &sh.PricePerCloth, &sh.WorkingHours, &sh.Status, &sh.CreatedAt)
	return sh, err
}

// Upsert registers the owner's shop or replaces its descriptive fields.
// A rejected shop goes back to pending; any other status is kept.
func (r *Repository) Upsert(ctx context.Context, s *domain.Shop) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO shops (owner_id, owner_name, shop_name, mobile, address, service_area,
			price_per_cloth, working_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		ON CONFLICT (owner_id) DO UPDATE SET
			owner_name = EXCLUDED.owner_name,
			shop_name = EXCLUDED.shop_name,
			mobile = EXCLUDED.mobile,
			address = EXCLUDED.address,
			service_area = EXCLUDED.service_area,
			price_per_cloth = EXCLUDED.price_per_cloth,
			working_hours = EXCLUDED.working_hours,
			status = CASE WHEN shops.status = 'rejected' THEN 'pending' ELSE shops.status END
		RETURNING id, status, created_at
	`, s.OwnerID, s.OwnerName, s.ShopName, s.Mobile, s.Address, s.ServiceArea,
		s.PricePerCloth, s.WorkingHours,
	).Scan(&s.ID, &s.Status, &s.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	sh, err := scanShop(r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shop %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// GetByOwner returns nil, nil when the owner has not registered a shop.
func (r *Repository) GetByOwner(ctx context.Context, ownerID string) (*domain.Shop, error) {
	sh, err := scanShop(r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE owner_id = $1`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// List returns every shop, or only those in status when it is non-empty.
func (r *Repository) List(ctx context.Context, status domain.ShopStatus) ([]domain.Shop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shopColumns+`
		FROM shops
		WHERE $1 = '' OR status = $1
		ORDER BY id
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	shops := []domain.Shop{}
	for rows.Next() {
		sh, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, sh)
	}
	return shops, rows.Err()
}

func (r *Repository) SetStatus(ctx context.Context, id int64, status domain.ShopStatus) error {
	return r.execOne(ctx, id, `UPDATE shops SET status = $2 WHERE id = $1`, id, status)
}

// Delete removes the shop and drops it from every area it was assigned to.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM shops WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("shop %d: %w", id, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE areas SET assigned_shop_ids = array_remove(assigned_shop_ids, $1::BIGINT)
		WHERE $1::BIGINT = ANY(assigned_shop_ids)
	`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) execOne(ctx context.Context, id int64, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("shop %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
