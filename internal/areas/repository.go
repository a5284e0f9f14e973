package areas

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/presswala/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]domain.Area, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, city, pincode, is_active, assigned_shop_ids, shirt_price, pant_price, dress_price
		FROM areas
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	areas := []domain.Area{}
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.ID, &a.Name, &a.City, &a.Pincode, &a.IsActive,
			pq.Array(&a.AssignedShopIDs), &a.ShirtPrice, &a.PantPrice, &a.DressPrice); err != nil {
			return nil, err
		}
		if a.AssignedShopIDs == nil {
			a.AssignedShopIDs = []int64{}
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// Create stores a new active area seeded with the current legacy prices.
func (r *Repository) Create(ctx context.Context, name, city, pincode string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO areas (name, city, pincode, shirt_price, pant_price, dress_price)
		SELECT $1, $2, $3, p.shirt_price, p.pant_price, p.dress_price
		FROM pricing p
		UNION ALL
		SELECT $1, $2, $3, 12, 12, 20
		WHERE NOT EXISTS (SELECT 1 FROM pricing)
		RETURNING id
	`, name, city, pincode).Scan(&id)
	return id, err
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.execOne(ctx, id, `UPDATE areas SET is_active = $2 WHERE id = $1`, id, active)
}

func (r *Repository) SetPrices(ctx context.Context, id int64, p domain.Pricing) error {
	return r.execOne(ctx, id, `
		UPDATE areas SET shirt_price = $2, pant_price = $3, dress_price = $4 WHERE id = $1
	`, id, p.ShirtPrice, p.PantPrice, p.DressPrice)
}

// AssignShop adds shopID to the area's set. Assigning twice is a no-op.
func (r *Repository) AssignShop(ctx context.Context, areaID, shopID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM shops WHERE id = $1)`, shopID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("shop %d: %w", shopID, domain.ErrNotFound)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE areas SET assigned_shop_ids = CASE
			WHEN $2::BIGINT = ANY(assigned_shop_ids) THEN assigned_shop_ids
			ELSE array_append(assigned_shop_ids, $2::BIGINT)
		END
		WHERE id = $1
	`, areaID, shopID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("area %d: %w", areaID, domain.ErrNotFound)
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
		return fmt.Errorf("area %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
