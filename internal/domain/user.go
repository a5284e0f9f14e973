package domain

import "time"

// Role is the backend capability stored per principal. It is distinct from
// the app role a user picks in the client.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleGuest
}

type UserProfile struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// User counters are derived from the order set at read time.
type User struct {
	Principal       string    `json:"principal"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	IsBlocked       bool      `json:"is_blocked"`
	CompletedOrders int64     `json:"completed_orders"`
	TotalEarnings   int64     `json:"total_earnings"`
	Balance         int64     `json:"balance"`
	CreatedAt       time.Time `json:"created_at"`
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}

type ApprovalInfo struct {
	Principal string         `json:"principal"`
	Status    ApprovalStatus `json:"status"`
}

// AnonymousPrincipal is reported by whoami for callers without a token.
const AnonymousPrincipal = "2vxsx-fae"
