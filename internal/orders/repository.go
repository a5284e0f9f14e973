package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/presswala/internal/domain"
)

const orderColumns = `id, customer_id, COALESCE(partner_id, ''), status, shirts, pants, dresses,
	address, payment_method, total_amount, created_at, updated_at`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (domain.Order, error) {
	var o domain.Order
	err := s.Scan(&o.ID, &o.CustomerID, &o.PartnerID, &o.Status, &o.Shirts, &o.Pants, &o.Dresses,
		&o.Address, &o.PaymentMethod, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts the order and its item quantities in one transaction and
// sets order.ID.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, partner_id, status, shirts, pants, dresses,
			address, payment_method, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, order.CustomerID, nullable(order.PartnerID), order.Status, order.Shirts, order.Pants, order.Dresses,
		order.Address, order.PaymentMethod, order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.ClothingItems {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, item_id, quantity)
			VALUES ($1, $2, $3)
		`, order.ID, item.ItemID, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	orders := []domain.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Update persists the mutable fields of an order. Concurrent writers are
// last-write-wins.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, partner_id = $2, updated_at = $3
		WHERE id = $4
	`, order.Status, nullable(order.PartnerID), order.UpdatedAt, order.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
}

func (r *OrderRepository) query(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads item quantities for all orders with a single query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[int64]int, len(orders))
	ids := make([]int64, len(orders))
	for i := range orders {
		orders[i].ClothingItems = []domain.ItemQuantity{}
		index[orders[i].ID] = i
		ids[i] = orders[i].ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, item_id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var orderID int64
		var item domain.ItemQuantity
		if err := rows.Scan(&orderID, &item.ItemID, &item.Quantity); err != nil {
			return err
		}
		i := index[orderID]
		orders[i].ClothingItems = append(orders[i].ClothingItems, item)
	}
	return rows.Err()
}
