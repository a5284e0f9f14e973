package areas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/pricing"
)

type fakeStore struct {
	mu    sync.Mutex
	areas []domain.Area
	shops map[int64]bool
}

func (s *fakeStore) List(context.Context) ([]domain.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.areas), nil
}

func (s *fakeStore) Create(_ context.Context, name, city, pincode string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.areas) + 1)
	s.areas = append(s.areas, domain.Area{
		ID: id, Name: name, City: city, Pincode: pincode, IsActive: true,
		AssignedShopIDs: []int64{}, ShirtPrice: 12, PantPrice: 12, DressPrice: 20,
	})
	return id, nil
}

func (s *fakeStore) find(id int64) (*domain.Area, error) {
	for i := range s.areas {
		if s.areas[i].ID == id {
			return &s.areas[i], nil
		}
	}
	return nil, fmt.Errorf("area %d: %w", id, domain.ErrNotFound)
}

func (s *fakeStore) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.IsActive = active
	return nil
}

func (s *fakeStore) SetPrices(_ context.Context, id int64, p domain.Pricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.ShirtPrice, a.PantPrice, a.DressPrice = p.ShirtPrice, p.PantPrice, p.DressPrice
	return nil
}

func (s *fakeStore) AssignShop(_ context.Context, areaID, shopID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shops[shopID] {
		return fmt.Errorf("shop %d: %w", shopID, domain.ErrNotFound)
	}
	a, err := s.find(areaID)
	if err != nil {
		return err
	}
	if !slices.Contains(a.AssignedShopIDs, shopID) {
		a.AssignedShopIDs = append(a.AssignedShopIDs, shopID)
	}
	return nil
}

type admins map[string]bool

func (a admins) IsAdmin(_ context.Context, p string) (bool, error) { return a[p], nil }

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{shops: map[int64]bool{5: true}}
	h := NewHandler(store, nil, auth.NewGuard(admins{"root": true}, logger), logger)
	mux := http.NewServeMux()
	h.Register(mux)

	do := func(method, path, principal string, body any) int {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		if principal != "" {
			req = req.WithContext(auth.WithPrincipal(req.Context(), principal))
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	area := addAreaRequest{Name: "Koramangala", City: "Bengaluru", Pincode: "560034"}
	if code := do(http.MethodPost, "/areas", "bob", area); code != http.StatusForbidden {
		t.Errorf("non-admin add: expected 403, got %d", code)
	}
	if code := do(http.MethodPost, "/areas", "root", area); code != http.StatusCreated {
		t.Errorf("add: expected 201, got %d", code)
	}
	if code := do(http.MethodPost, "/areas", "root", addAreaRequest{Name: "x"}); code != http.StatusBadRequest {
		t.Errorf("incomplete add: expected 400, got %d", code)
	}

	for i := 0; i < 2; i++ {
		if code := do(http.MethodPost, "/areas/1/shops", "root", assignShopRequest{ShopID: 5}); code != http.StatusNoContent {
			t.Errorf("assign: expected 204, got %d", code)
		}
	}
	if code := do(http.MethodPost, "/areas/1/shops", "root", assignShopRequest{ShopID: 6}); code != http.StatusNotFound {
		t.Errorf("assign unknown shop: expected 404, got %d", code)
	}
	if code := do(http.MethodPut, "/areas/1/prices", "root", domain.Pricing{ShirtPrice: 15, PantPrice: 15, DressPrice: 25}); code != http.StatusNoContent {
		t.Errorf("prices: expected 204, got %d", code)
	}
	if code := do(http.MethodPut, "/areas/1/prices", "root", domain.Pricing{ShirtPrice: -1}); code != http.StatusBadRequest {
		t.Errorf("negative prices: expected 400, got %d", code)
	}
	if code := do(http.MethodPut, "/areas/1/prices", "root", domain.Pricing{ShirtPrice: 15, PantPrice: 15, DressPrice: pricing.MaxUnitPrice + 1}); code != http.StatusBadRequest {
		t.Errorf("prices above cap: expected 400, got %d", code)
	}
	if code := do(http.MethodPost, "/areas/1/disable", "root", nil); code != http.StatusNoContent {
		t.Errorf("disable: expected 204, got %d", code)
	}
	if code := do(http.MethodPost, "/areas/9/enable", "root", nil); code != http.StatusNotFound {
		t.Errorf("enable missing: expected 404, got %d", code)
	}

	areas, _ := store.List(context.Background())
	got := areas[0]
	if got.IsActive || got.ShirtPrice != 15 || len(got.AssignedShopIDs) != 1 {
		t.Errorf("unexpected area %+v", got)
	}
}
