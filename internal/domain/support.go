package domain

import "time"

type Broadcast struct {
	ID             int64     `json:"id"`
	Message        string    `json:"message"`
	TargetAudience string    `json:"target_audience"`
	SentAt         time.Time `json:"sent_at"`
}

type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "open"
	ComplaintInProgress ComplaintStatus = "inProgress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintOpen, ComplaintInProgress, ComplaintResolved, ComplaintRejected:
		return true
	default:
		return false
	}
}

type Complaint struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	ComplaintType string          `json:"complaint_type"`
	Description   string          `json:"description"`
	Status        ComplaintStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminStats struct {
	PendingOrders        int64 `json:"pending_orders"`
	ActiveOrders         int64 `json:"active_orders"`
	TotalOrdersToday     int64 `json:"total_orders_today"`
	TotalEarnings        int64 `json:"total_earnings"`
	TotalShops           int64 `json:"total_shops"`
	PendingShopApprovals int64 `json:"pending_shop_approvals"`
	TotalCustomers       int64 `json:"total_customers"`
}
