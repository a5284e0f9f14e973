package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/pricing"
)

type placeOrderRequest struct {
	Shirts        int64                 `json:"shirts"`
	Pants         int64                 `json:"pants"`
	Dresses       int64                 `json:"dresses"`
	ClothingItems []domain.ItemQuantity `json:"clothing_items"`
	Address       string                `json:"address"`
	PaymentMethod string                `json:"payment_method"`
}

// validate checks everything that does not need stored state.
func (req *placeOrderRequest) validate() error {
	req.Address = strings.TrimSpace(req.Address)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)

	if req.Address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}
	if req.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", domain.ErrInvalidInput)
	}

	count := int64(0)
	for _, q := range []int64{req.Shirts, req.Pants, req.Dresses} {
		if err := pricing.ValidateQuantity(q); err != nil {
			return err
		}
		count += q
	}

	seen := make(map[int64]bool, len(req.ClothingItems))
	for _, iq := range req.ClothingItems {
		if err := pricing.ValidateQuantity(iq.Quantity); err != nil {
			return fmt.Errorf("item %d: %w", iq.ItemID, err)
		}
		if seen[iq.ItemID] {
			return fmt.Errorf("%w: item %d listed twice", domain.ErrInvalidInput, iq.ItemID)
		}
		seen[iq.ItemID] = true
		count += iq.Quantity
	}

	if count == 0 {
		return fmt.Errorf("%w: order has no items", domain.ErrInvalidInput)
	}
	return nil
}

func (req *placeOrderRequest) itemIDs() []int64 {
	ids := make([]int64, 0, len(req.ClothingItems))
	for _, iq := range req.ClothingItems {
		ids = append(ids, iq.ItemID)
	}
	return ids
}

// buildOrder prices a validated request against the current catalog. The
// total is fixed here and never recomputed.
func buildOrder(req placeOrderRequest, customer string, prices domain.Pricing, catalog map[int64]domain.ClothingItem, now time.Time) (*domain.Order, error) {
	lines := pricing.LegacyLines(req.Shirts, req.Pants, req.Dresses, prices)

	items := make([]domain.ItemQuantity, 0, len(req.ClothingItems))
	for _, iq := range req.ClothingItems {
		item, ok := catalog[iq.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown clothing item %d", domain.ErrInvalidInput, iq.ItemID)
		}
		if !item.IsActive {
			return nil, fmt.Errorf("%w: clothing item %d is not available", domain.ErrInvalidInput, iq.ItemID)
		}
		if iq.Quantity == 0 {
			continue
		}
		lines = append(lines, pricing.Line{Quantity: iq.Quantity, UnitPrice: item.PricePerItem})
		items = append(items, iq)
	}

	now = now.UTC().Truncate(time.Microsecond)
	return &domain.Order{
		CustomerID:    customer,
		Status:        domain.OrderStatusPending,
		Shirts:        req.Shirts,
		Pants:         req.Pants,
		Dresses:       req.Dresses,
		ClothingItems: items,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   pricing.Total(lines),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
