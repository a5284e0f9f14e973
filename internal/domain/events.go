package domain

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published on every order creation and accepted transition.
type OrderEvent struct {
	EventID     string      `json:"event_id"`
	Type        string      `json:"type"`
	OrderID     int64       `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	PartnerID   string      `json:"partner_id,omitempty"`
	From        OrderStatus `json:"from,omitempty"`
	To          OrderStatus `json:"to"`
	TotalAmount int64       `json:"total_amount"`
	Timestamp   time.Time   `json:"timestamp"`
}
