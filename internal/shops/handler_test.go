package shops

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

	"github.com/joao-fontenele/presswala/internal/areas"
	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/pricing"
)

type fakeStore struct {
	mu    sync.Mutex
	shops map[int64]*domain.Shop
}

func (s *fakeStore) Upsert(_ context.Context, sh *domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.shops {
		if existing.OwnerID == sh.OwnerID {
			sh.ID, sh.CreatedAt = existing.ID, existing.CreatedAt
			sh.Status = existing.Status
			if sh.Status == domain.ShopStatusRejected {
				sh.Status = domain.ShopStatusPending
			}
			cp := *sh
			s.shops[sh.ID] = &cp
			return nil
		}
	}
	sh.ID = int64(len(s.shops) + 1)
	sh.Status = domain.ShopStatusPending
	cp := *sh
	s.shops[sh.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return nil, fmt.Errorf("shop %d: %w", id, domain.ErrNotFound)
	}
	cp := *sh
	return &cp, nil
}

func (s *fakeStore) GetByOwner(_ context.Context, owner string) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shops {
		if sh.OwnerID == owner {
			cp := *sh
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) List(_ context.Context, status domain.ShopStatus) ([]domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Shop{}
	for _, sh := range s.shops {
		if status == "" || sh.Status == status {
			out = append(out, *sh)
		}
	}
	return out, nil
}

func (s *fakeStore) SetStatus(_ context.Context, id int64, status domain.ShopStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return domain.ErrNotFound
	}
	sh.Status = status
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shops[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.shops, id)
	return nil
}

type recordingCache struct {
	cache.Nop
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

type admins map[string]bool

func (a admins) IsAdmin(_ context.Context, p string) (bool, error) { return a[p], nil }

type harness struct {
	store *fakeStore
	cache *recordingCache
	mux   *http.ServeMux
}

func newHarness() *harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{shops: map[int64]*domain.Shop{}}
	c := &recordingCache{}
	mux := http.NewServeMux()
	NewHandler(store, c, auth.NewGuard(admins{"root": true}, logger), logger).Register(mux)
	return &harness{store: store, cache: c, mux: mux}
}

func (h *harness) do(method, path, principal string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if principal != "" {
		req = req.WithContext(auth.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

var shopForm = registerShopRequest{
	OwnerName:     "Ravi",
	Mobile:        "9876500000",
	ShopName:      "Ravi Press",
	Address:       "4 Park St",
	ServiceArea:   1,
	PricePerCloth: 10,
	WorkingHours:  "9-6",
}

func TestShopLifecycle(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodPost, "/shops", "owner", shopForm)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var shop domain.Shop
	_ = json.NewDecoder(rec.Body).Decode(&shop)
	if shop.Status != domain.ShopStatusPending || shop.OwnerID != "owner" {
		t.Errorf("unexpected shop %+v", shop)
	}

	path := func(action string) string { return fmt.Sprintf("/shops/%d/%s", shop.ID, action) }

	steps := []struct {
		action string
		who    string
		want   int
		status domain.ShopStatus
	}{
		{"approve", "owner", http.StatusForbidden, domain.ShopStatusPending},
		{"suspend", "root", http.StatusConflict, domain.ShopStatusPending},
		{"reject", "root", http.StatusNoContent, domain.ShopStatusRejected},
		{"approve", "root", http.StatusNoContent, domain.ShopStatusActive},
		{"suspend", "root", http.StatusNoContent, domain.ShopStatusSuspended},
		{"reject", "root", http.StatusConflict, domain.ShopStatusSuspended},
		{"approve", "root", http.StatusNoContent, domain.ShopStatusActive},
	}
	for _, s := range steps {
		if rec := h.do(http.MethodPost, path(s.action), s.who, nil); rec.Code != s.want {
			t.Errorf("%s by %s: expected %d, got %d", s.action, s.who, s.want, rec.Code)
		}
		got, _ := h.store.GetByID(context.Background(), shop.ID)
		if got.Status != s.status {
			t.Errorf("after %s: expected %s, got %s", s.action, s.status, got.Status)
		}
	}

	rec = h.do(http.MethodGet, "/shops/active", "", nil)
	var active []domain.Shop
	_ = json.NewDecoder(rec.Body).Decode(&active)
	if len(active) != 1 {
		t.Errorf("expected 1 active shop, got %d", len(active))
	}

	if rec := h.do(http.MethodDelete, fmt.Sprintf("/shops/%d", shop.ID), "root", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rec.Code)
	}
	if !slices.Contains(h.cache.invalidated, areas.CacheKey) {
		t.Errorf("expected %s invalidated after delete, got %v", areas.CacheKey, h.cache.invalidated)
	}
}

func TestDeleteMissingShopKeepsCache(t *testing.T) {
	h := newHarness()
	if rec := h.do(http.MethodDelete, "/shops/42", "root", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if len(h.cache.invalidated) != 0 {
		t.Errorf("expected no invalidation, got %v", h.cache.invalidated)
	}
}

func TestReRegistration(t *testing.T) {
	h := newHarness()
	h.do(http.MethodPost, "/shops", "owner", shopForm)
	h.do(http.MethodPost, "/shops/1/reject", "root", nil)

	form := shopForm
	form.ShopName = "Ravi Press & Co"
	rec := h.do(http.MethodPost, "/shops", "owner", form)
	var shop domain.Shop
	_ = json.NewDecoder(rec.Body).Decode(&shop)

	if shop.ID != 1 || shop.Status != domain.ShopStatusPending || shop.ShopName != "Ravi Press & Co" {
		t.Errorf("expected same shop back in pending with new name, got %+v", shop)
	}
}

func TestListAndMine(t *testing.T) {
	h := newHarness()

	rec := h.do(http.MethodGet, "/shops/mine", "owner", nil)
	if rec.Code != http.StatusOK || bytes.TrimSpace(rec.Body.Bytes())[0] != 'n' {
		t.Errorf("expected null for no shop, got %d %s", rec.Code, rec.Body.String())
	}

	h.do(http.MethodPost, "/shops", "owner", shopForm)

	rec = h.do(http.MethodGet, "/shops?status=pending", "", nil)
	var shops []domain.Shop
	_ = json.NewDecoder(rec.Body).Decode(&shops)
	if len(shops) != 1 {
		t.Errorf("expected 1 pending shop, got %d", len(shops))
	}

	if rec := h.do(http.MethodGet, "/shops?status=closed", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: expected 400, got %d", rec.Code)
	}

	invalid := shopForm
	invalid.ShopName = " "
	if rec := h.do(http.MethodPost, "/shops", "owner2", invalid); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid form: expected 400, got %d", rec.Code)
	}

	for _, price := range []int64{-1, pricing.MaxUnitPrice + 1} {
		priced := shopForm
		priced.PricePerCloth = price
		if rec := h.do(http.MethodPost, "/shops", "owner3", priced); rec.Code != http.StatusBadRequest {
			t.Errorf("price %d: expected 400, got %d", price, rec.Code)
		}
	}
}
