package domain

import "time"

type ClothingItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PricePerItem int64     `json:"price_per_item"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Area struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	City            string  `json:"city"`
	Pincode         string  `json:"pincode"`
	IsActive        bool    `json:"is_active"`
	AssignedShopIDs []int64 `json:"assigned_shop_ids"`
	ShirtPrice      int64   `json:"shirt_price"`
	PantPrice       int64   `json:"pant_price"`
	DressPrice      int64   `json:"dress_price"`
}
