// Package pricing computes order totals from item quantities and unit prices.
package pricing

import (
	"fmt"

	"github.com/joao-fontenele/presswala/internal/domain"
)

const (
	// MaxQuantity is the per-line cap accepted at order placement.
	MaxQuantity = 500
	// MaxUnitPrice caps any configured per-item price. With MaxQuantity it
	// keeps a line below 5e7, so Total cannot overflow int64.
	MaxUnitPrice = 100_000
)

type Line struct {
	Quantity  int64
	UnitPrice int64
}

// Total returns the sum of quantity times unit price over lines. Inputs are
// assumed valid; callers run ValidateQuantity and ValidateUnitPrice at the
// input boundary.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quantity * l.UnitPrice
	}
	return total
}

// ValidateQuantity rejects quantities outside [0, MaxQuantity].
func ValidateQuantity(q int64) error {
	if q < 0 || q > MaxQuantity {
		return fmt.Errorf("%w: quantity %d outside 0..%d", domain.ErrInvalidInput, q, MaxQuantity)
	}
	return nil
}

// ValidateUnitPrice rejects prices outside [0, MaxUnitPrice].
func ValidateUnitPrice(p int64) error {
	if p < 0 || p > MaxUnitPrice {
		return fmt.Errorf("%w: price %d outside 0..%d", domain.ErrInvalidInput, p, MaxUnitPrice)
	}
	return nil
}

// Clamp maps q into [0, MaxQuantity], mirroring the order form.
func Clamp(q int64) int64 {
	return max(0, min(MaxQuantity, q))
}

// LegacyLines builds lines for the built-in shirt/pant/dress categories.
func LegacyLines(shirts, pants, dresses int64, p domain.Pricing) []Line {
	return []Line{
		{Quantity: shirts, UnitPrice: p.ShirtPrice},
		{Quantity: pants, UnitPrice: p.PantPrice},
		{Quantity: dresses, UnitPrice: p.DressPrice},
	}
}
