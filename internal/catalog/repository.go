package catalog

import (
	"context"
	"database/sql"
	"errors"
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

func (r *Repository) ListItems(ctx context.Context, activeOnly bool) ([]domain.ClothingItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_per_item, is_active, created_at
		FROM clothing_items
		WHERE is_active OR NOT $1
		ORDER BY id
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *Repository) ItemsByID(ctx context.Context, ids []int64) (map[int64]domain.ClothingItem, error) {
	out := make(map[int64]domain.ClothingItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_per_item, is_active, created_at
		FROM clothing_items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func scanItems(rows *sql.Rows) ([]domain.ClothingItem, error) {
	defer func() { _ = rows.Close() }()

	items := []domain.ClothingItem{}
	for rows.Next() {
		var it domain.ClothingItem
		if err := rows.Scan(&it.ID, &it.Name, &it.PricePerItem, &it.IsActive, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) CreateItem(ctx context.Context, name string, price int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO clothing_items (name, price_per_item)
		VALUES ($1, $2)
		RETURNING id
	`, name, price).Scan(&id)
	return id, err
}

func (r *Repository) UpdateItem(ctx context.Context, id int64, name string, price int64) error {
	return r.execOne(ctx, id, `
		UPDATE clothing_items SET name = $2, price_per_item = $3 WHERE id = $1
	`, id, name, price)
}

func (r *Repository) SetItemActive(ctx context.Context, id int64, active bool) error {
	return r.execOne(ctx, id, `
		UPDATE clothing_items SET is_active = $2 WHERE id = $1
	`, id, active)
}

// DeleteItem removes the catalog entry. Placed orders keep their item id
// and stored total.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	return r.execOne(ctx, id, `DELETE FROM clothing_items WHERE id = $1`, id)
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
		return fmt.Errorf("clothing item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetPricing(ctx context.Context) (domain.Pricing, error) {
	var p domain.Pricing
	err := r.db.QueryRowContext(ctx, `
		SELECT shirt_price, pant_price, dress_price FROM pricing
	`).Scan(&p.ShirtPrice, &p.PantPrice, &p.DressPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultPricing, nil
	}
	return p, err
}

var priceColumns = map[Category]string{
	CategoryShirt: "shirt_price",
	CategoryPant:  "pant_price",
	CategoryDress: "dress_price",
}

func (r *Repository) SetPrice(ctx context.Context, c Category, price int64) error {
	col, ok := priceColumns[c]
	if !ok {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, c)
	}
	// The singleton row is seeded by the schema; upsert covers a wiped table.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pricing (shirt_price, pant_price, dress_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE SET `+col+` = $4
	`, pick(c, CategoryShirt, price, domain.DefaultPricing.ShirtPrice),
		pick(c, CategoryPant, price, domain.DefaultPricing.PantPrice),
		pick(c, CategoryDress, price, domain.DefaultPricing.DressPrice),
		price)
	return err
}

func pick(c, want Category, price, def int64) int64 {
	if c == want {
		return price
	}
	return def
}
