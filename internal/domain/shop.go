package domain

import "time"

type ShopStatus string

const (
	ShopStatusPending   ShopStatus = "pending"
	ShopStatusActive    ShopStatus = "active"
	ShopStatusRejected  ShopStatus = "rejected"
	ShopStatusSuspended ShopStatus = "suspended"
)

var shopTransitions = map[ShopStatus][]ShopStatus{
	ShopStatusPending:   {ShopStatusActive, ShopStatusRejected},
	ShopStatusActive:    {ShopStatusSuspended},
	ShopStatusSuspended: {ShopStatusActive},
	ShopStatusRejected:  {ShopStatusActive},
}

func (s ShopStatus) Valid() bool {
	_, ok := shopTransitions[s]
	return ok
}

// CanBecome reports whether an admin may move a shop from s to next.
func (s ShopStatus) CanBecome(next ShopStatus) bool {
	for _, allowed := range shopTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Shop struct {
	ID            int64      `json:"id"`
	OwnerID       string     `json:"owner_id"`
	OwnerName     string     `json:"owner_name"`
	ShopName      string     `json:"shop_name"`
	Mobile        string     `json:"mobile"`
	Address       string     `json:"address"`
	ServiceArea   int64      `json:"service_area"`
	PricePerCloth int64      `json:"price_per_cloth"`
	WorkingHours  string     `json:"working_hours"`
	Status        ShopStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
