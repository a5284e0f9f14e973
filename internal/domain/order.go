package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPickedUp  OrderStatus = "pickedUp"
	OrderStatusIroning   OrderStatus = "ironing"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Pending",
	OrderStatusAccepted:  "Accepted",
	OrderStatusPickedUp:  "Picked Up",
	OrderStatusIroning:   "Ironing",
	OrderStatusDelivered: "Delivered",
	OrderStatusCancelled: "Cancelled",
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Label returns the human readable name, falling back to the raw value.
func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ItemQuantity references a catalog item by id. Orders never embed the item
// itself so later price edits leave stored totals alone.
type ItemQuantity struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

type Order struct {
	ID            int64          `json:"id"`
	CustomerID    string         `json:"customer_id"`
	PartnerID     string         `json:"partner_id,omitempty"`
	Status        OrderStatus    `json:"status"`
	Shirts        int64          `json:"shirts"`
	Pants         int64          `json:"pants"`
	Dresses       int64          `json:"dresses"`
	ClothingItems []ItemQuantity `json:"clothing_items"`
	Address       string         `json:"address"`
	PaymentMethod string         `json:"payment_method"`
	TotalAmount   int64          `json:"total_amount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Assigned reports whether a partner has taken the order.
func (o *Order) Assigned() bool {
	return o.PartnerID != ""
}

// Pricing holds the legacy per-category unit prices.
type Pricing struct {
	ShirtPrice int64 `json:"shirt_price"`
	PantPrice  int64 `json:"pant_price"`
	DressPrice int64 `json:"dress_price"`
}

var DefaultPricing = Pricing{ShirtPrice: 12, PantPrice: 12, DressPrice: 20}
