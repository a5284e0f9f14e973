package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/presswala/internal/domain"
)

// PlaceOrder is the body of a new order. Catalog items are referenced by id.
type PlaceOrder struct {
	Shirts        int64                 `json:"shirts"`
	Pants         int64                 `json:"pants"`
	Dresses       int64                 `json:"dresses"`
	ClothingItems []domain.ItemQuantity `json:"clothing_items,omitempty"`
	Address       string                `json:"address"`
	PaymentMethod string                `json:"payment_method"`
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrder) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Order(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/orders/mine", nil, &out)
	return out, err
}

func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, next domain.OrderStatus) (*domain.Order, error) {
	body := map[string]domain.OrderStatus{"status": next}
	var o domain.Order
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/status", id), body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// PendingOrders filters the full order set on the client. There is no
// server-side pending listing, so this is a heuristic over get-all-orders.
func (c *Client) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	all, err := c.AllOrders(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPending(all), nil
}

// PartnerOrders is the heuristic partner view: every order partner has taken.
func (c *Client) PartnerOrders(ctx context.Context, partner string) ([]domain.Order, error) {
	all, err := c.AllOrders(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPartner(all, partner), nil
}

func FilterPending(orders []domain.Order) []domain.Order {
	out := []domain.Order{}
	for _, o := range orders {
		if o.Status == domain.OrderStatusPending && !o.Assigned() {
			out = append(out, o)
		}
	}
	return out
}

func FilterPartner(orders []domain.Order, partner string) []domain.Order {
	out := []domain.Order{}
	for _, o := range orders {
		if partner != "" && o.PartnerID == partner {
			out = append(out, o)
		}
	}
	return out
}
