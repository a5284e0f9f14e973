package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: map[int64]*domain.Order{}}
}

func (s *fakeStore) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) List(context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeStore) ListByCustomer(_ context.Context, customer string) ([]domain.Order, error) {
	all, _ := s.List(context.Background())
	out := []domain.Order{}
	for _, o := range all {
		if o.CustomerID == customer {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	pricing domain.Pricing
	items   map[int64]domain.ClothingItem
}

func (c fakeCatalog) GetPricing(context.Context) (domain.Pricing, error) { return c.pricing, nil }

func (c fakeCatalog) ItemsByID(_ context.Context, ids []int64) (map[int64]domain.ClothingItem, error) {
	out := map[int64]domain.ClothingItem{}
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type fakeUsers map[string]bool

func (f fakeUsers) IsBlocked(_ context.Context, p string) (bool, error) { return f[p], nil }

type fakeAdmins struct {
	admins map[string]bool
	err    error
}

func (f fakeAdmins) IsAdmin(_ context.Context, p string) (bool, error) { return f.admins[p], f.err }

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(domain.OrderEvent))
	return p.err
}

type fixture struct {
	store     *fakeStore
	publisher *fakePublisher
	mux       *http.ServeMux
	handler   *Handler
}

func newFixture(t *testing.T, admins fakeAdmins, blocked fakeUsers) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()
	pub := &fakePublisher{}
	catalog := fakeCatalog{
		pricing: domain.DefaultPricing,
		items: map[int64]domain.ClothingItem{
			1: {ID: 1, Name: "Saree", PricePerItem: 30, IsActive: true},
			2: {ID: 2, Name: "Blazer", PricePerItem: 50, IsActive: false},
		},
	}
	if blocked == nil {
		blocked = fakeUsers{}
	}
	h := NewHandler(store, catalog, blocked, auth.NewGuard(admins, logger), pub, nil, logger)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{store: store, publisher: pub, mux: mux, handler: h}
}

func (f *fixture) do(t *testing.T, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if principal != "" {
		req = req.WithContext(auth.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) domain.Order {
	t.Helper()
	var o domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	return o
}

var validPlacement = map[string]any{
	"shirts":         2,
	"pants":          1,
	"dresses":        1,
	"address":        "12 MG Road",
	"payment_method": "cash",
}

func TestHandlePlace(t *testing.T) {
	t.Run("computes total and publishes", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		rec := f.do(t, http.MethodPost, "/orders", "cust", validPlacement)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		o := decodeOrder(t, rec)
		if o.TotalAmount != 44 {
			t.Errorf("expected total 44, got %d", o.TotalAmount)
		}
		if o.Status != domain.OrderStatusPending || o.CustomerID != "cust" || o.Assigned() {
			t.Errorf("unexpected order %+v", o)
		}
		if len(f.publisher.events) != 1 || f.publisher.events[0].Type != domain.EventOrderPlaced {
			t.Errorf("expected one placed event, got %+v", f.publisher.events)
		}
		if f.publisher.events[0].EventID == "" {
			t.Error("expected event id")
		}
	})

	t.Run("catalog items use their own price", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		body := map[string]any{
			"clothing_items": []map[string]int64{{"item_id": 1, "quantity": 3}},
			"address":        "a",
			"payment_method": "upi",
		}
		rec := f.do(t, http.MethodPost, "/orders", "cust", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if o := decodeOrder(t, rec); o.TotalAmount != 90 || len(o.ClothingItems) != 1 {
			t.Errorf("unexpected order %+v", o)
		}
	})

	rejections := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"no items", map[string]any{"address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"negative quantity", map[string]any{"shirts": -1, "pants": 2, "address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"over limit", map[string]any{"shirts": 501, "address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"missing address", map[string]any{"shirts": 1, "payment_method": "cash"}, http.StatusBadRequest},
		{"inactive item", map[string]any{"clothing_items": []map[string]int64{{"item_id": 2, "quantity": 1}}, "address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"unknown item", map[string]any{"clothing_items": []map[string]int64{{"item_id": 99, "quantity": 1}}, "address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"duplicate item", map[string]any{"clothing_items": []map[string]int64{{"item_id": 1, "quantity": 1}, {"item_id": 1, "quantity": 2}}, "address": "a", "payment_method": "cash"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"shirts": 1, "address": "a", "payment_method": "cash", "total_amount": 1}, http.StatusBadRequest},
	}
	for _, tc := range rejections {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, fakeAdmins{}, nil)
			rec := f.do(t, http.MethodPost, "/orders", "cust", tc.body)
			if rec.Code != tc.status {
				t.Errorf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if len(f.store.orders) != 0 {
				t.Error("rejected order must not be stored")
			}
		})
	}

	t.Run("blocked customer", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, fakeUsers{"cust": true})
		rec := f.do(t, http.MethodPost, "/orders", "cust", validPlacement)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		rec := f.do(t, http.MethodPost, "/orders", "", validPlacement)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("publish failure still succeeds", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		f.publisher.err = errors.New("broker down")
		rec := f.do(t, http.MethodPost, "/orders", "cust", validPlacement)
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	})
}

func place(t *testing.T, f *fixture, customer string) int64 {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/orders", customer, validPlacement)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place failed: %d %s", rec.Code, rec.Body.String())
	}
	return decodeOrder(t, rec).ID
}

func setStatus(t *testing.T, f *fixture, id int64, principal string, status domain.OrderStatus) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/status", id), principal, map[string]any{"status": status})
}

func TestHandleUpdateStatus(t *testing.T) {
	t.Run("partner walks the lifecycle", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		id := place(t, f, "cust")

		var last time.Time
		for _, s := range []domain.OrderStatus{
			domain.OrderStatusAccepted, domain.OrderStatusPickedUp,
			domain.OrderStatusIroning, domain.OrderStatusDelivered,
		} {
			rec := setStatus(t, f, id, "partner-1", s)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d: %s", s, rec.Code, rec.Body.String())
			}
			o := decodeOrder(t, rec)
			if o.Status != s || o.PartnerID != "partner-1" {
				t.Errorf("unexpected order %+v", o)
			}
			if !o.UpdatedAt.After(last) {
				t.Errorf("updated_at did not increase: %v then %v", last, o.UpdatedAt)
			}
			last = o.UpdatedAt
		}

		if got := len(f.publisher.events); got != 5 {
			t.Errorf("expected 5 events, got %d", got)
		}

		rec := setStatus(t, f, id, "partner-1", domain.OrderStatusIroning)
		if rec.Code != http.StatusConflict {
			t.Errorf("terminal: expected 409, got %d", rec.Code)
		}
	})

	t.Run("another partner cannot advance", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		id := place(t, f, "cust")
		setStatus(t, f, id, "partner-1", domain.OrderStatusAccepted)

		rec := setStatus(t, f, id, "partner-2", domain.OrderStatusPickedUp)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
		stored, _ := f.store.GetByID(context.Background(), id)
		if stored.Status != domain.OrderStatusAccepted {
			t.Errorf("rejected attempt changed status to %s", stored.Status)
		}
	})

	t.Run("skipping a step", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		id := place(t, f, "cust")
		rec := setStatus(t, f, id, "partner-1", domain.OrderStatusIroning)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("customer cannot accept own order", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		id := place(t, f, "cust")
		rec := setStatus(t, f, id, "cust", domain.OrderStatusAccepted)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("only admin cancels", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{admins: map[string]bool{"root": true}}, nil)
		id := place(t, f, "cust")

		if rec := setStatus(t, f, id, "cust", domain.OrderStatusCancelled); rec.Code != http.StatusForbidden {
			t.Errorf("customer cancel: expected 403, got %d", rec.Code)
		}
		if rec := setStatus(t, f, id, "root", domain.OrderStatusCancelled); rec.Code != http.StatusOK {
			t.Errorf("admin cancel: expected 200, got %d", rec.Code)
		}
	})

	t.Run("admin check failure is not admin", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{admins: map[string]bool{"root": true}, err: errors.New("db down")}, nil)
		id := place(t, f, "cust")
		if rec := setStatus(t, f, id, "root", domain.OrderStatusCancelled); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("blocked partner", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, fakeUsers{"partner-1": true})
		id := place(t, f, "cust")
		if rec := setStatus(t, f, id, "partner-1", domain.OrderStatusAccepted); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		id := place(t, f, "cust")
		if rec := setStatus(t, f, id, "partner-1", "lost"); rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		f := newFixture(t, fakeAdmins{}, nil)
		if rec := setStatus(t, f, 42, "partner-1", domain.OrderStatusAccepted); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t, fakeAdmins{admins: map[string]bool{"root": true}}, nil)
	id := place(t, f, "cust")
	path := fmt.Sprintf("/orders/%d", id)

	if rec := f.do(t, http.MethodGet, path, "stranger", nil); rec.Code != http.StatusOK {
		t.Errorf("pending order should be visible, got %d", rec.Code)
	}

	setStatus(t, f, id, "partner-1", domain.OrderStatusAccepted)

	cases := map[string]int{
		"cust":      http.StatusOK,
		"partner-1": http.StatusOK,
		"root":      http.StatusOK,
		"stranger":  http.StatusForbidden,
	}
	for principal, want := range cases {
		if rec := f.do(t, http.MethodGet, path, principal, nil); rec.Code != want {
			t.Errorf("%s: expected %d, got %d", principal, want, rec.Code)
		}
	}

	if rec := f.do(t, http.MethodGet, "/orders/abc", "cust", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestHandleListMine(t *testing.T) {
	f := newFixture(t, fakeAdmins{}, nil)
	place(t, f, "cust")
	place(t, f, "cust")
	place(t, f, "other")

	rec := f.do(t, http.MethodGet, "/orders/mine", "cust", nil)
	var orders []domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}

	rec = f.do(t, http.MethodGet, "/orders", "cust", nil)
	orders = nil
	_ = json.NewDecoder(rec.Body).Decode(&orders)
	if len(orders) != 3 {
		t.Errorf("expected 3 orders, got %d", len(orders))
	}
}
