// Package catalog manages clothing items and the legacy category prices.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/pricing"
)

// Category is one of the built-in priced garment kinds.
type Category string

const (
	CategoryShirt Category = "shirt"
	CategoryPant  Category = "pant"
	CategoryDress Category = "dress"
)

const (
	keyPricing     = "catalog:pricing"
	keyItemsAll    = "catalog:items:all"
	keyItemsActive = "catalog:items:active"
)

type Store interface {
	ListItems(ctx context.Context, activeOnly bool) ([]domain.ClothingItem, error)
	ItemsByID(ctx context.Context, ids []int64) (map[int64]domain.ClothingItem, error)
	CreateItem(ctx context.Context, name string, price int64) (int64, error)
	UpdateItem(ctx context.Context, id int64, name string, price int64) error
	SetItemActive(ctx context.Context, id int64, active bool) error
	DeleteItem(ctx context.Context, id int64) error
	GetPricing(ctx context.Context) (domain.Pricing, error)
	SetPrice(ctx context.Context, c Category, price int64) error
}

// Service fronts the store with a read-through cache that every mutation
// invalidates.
type Service struct {
	store  Store
	cache  cache.Cache
	logger *slog.Logger
}

func NewService(store Store, c cache.Cache, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{store: store, cache: c, logger: logger}
}

func (s *Service) ListItems(ctx context.Context, activeOnly bool) ([]domain.ClothingItem, error) {
	key := keyItemsAll
	if activeOnly {
		key = keyItemsActive
	}
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]domain.ClothingItem, error) {
		return s.store.ListItems(ctx, activeOnly)
	})
}

// ItemsByID always reads the store so placement sees the current active flag.
func (s *Service) ItemsByID(ctx context.Context, ids []int64) (map[int64]domain.ClothingItem, error) {
	return s.store.ItemsByID(ctx, ids)
}

func (s *Service) GetPricing(ctx context.Context) (domain.Pricing, error) {
	return cache.Fetch(ctx, s.cache, keyPricing, s.store.GetPricing)
}

func validateItem(name string, price int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := pricing.ValidateUnitPrice(price); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Service) AddItem(ctx context.Context, name string, price int64) (int64, error) {
	name, err := validateItem(name, price)
	if err != nil {
		return 0, err
	}
	id, err := s.store.CreateItem(ctx, name, price)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, keyItemsAll, keyItemsActive)
	return id, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, name string, price int64) error {
	name, err := validateItem(name, price)
	if err != nil {
		return err
	}
	if err := s.store.UpdateItem(ctx, id, name, price); err != nil {
		return err
	}
	s.invalidate(ctx, keyItemsAll, keyItemsActive)
	return nil
}

func (s *Service) SetItemActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetItemActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx, keyItemsAll, keyItemsActive)
	return nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, keyItemsAll, keyItemsActive)
	return nil
}

func (s *Service) SetPrice(ctx context.Context, c Category, price int64) error {
	if _, ok := priceColumns[c]; !ok {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, c)
	}
	if err := pricing.ValidateUnitPrice(price); err != nil {
		return err
	}
	if err := s.store.SetPrice(ctx, c, price); err != nil {
		return err
	}
	s.invalidate(ctx, keyPricing)
	return nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate cache", "error", err, "keys", keys)
	}
}
