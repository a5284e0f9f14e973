package pricing

import (
	"errors"
	"slices"
	"testing"

	"github.com/joao-fontenele/presswala/internal/domain"
)

func TestTotal(t *testing.T) {
	t.Run("two shirts and one dress at default prices", func(t *testing.T) {
		got := Total(LegacyLines(2, 0, 1, domain.DefaultPricing))
		if got != 44 {
			t.Errorf("expected total 44, got %d", got)
		}
	})

	t.Run("empty order totals zero", func(t *testing.T) {
		if got := Total(nil); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("invariant under reordering", func(t *testing.T) {
		lines := []Line{
			{Quantity: 3, UnitPrice: 15},
			{Quantity: 500, UnitPrice: 20},
			{Quantity: 0, UnitPrice: 99},
			{Quantity: 7, UnitPrice: 1},
		}
		want := Total(lines)

		reversed := slices.Clone(lines)
		slices.Reverse(reversed)
		if got := Total(reversed); got != want {
			t.Errorf("reversed total %d, want %d", got, want)
		}

		rotated := append(slices.Clone(lines[2:]), lines[:2]...)
		if got := Total(rotated); got != want {
			t.Errorf("rotated total %d, want %d", got, want)
		}
	})

	t.Run("never negative for valid input", func(t *testing.T) {
		prices := []int64{0, 1, 25, 100, 999, 10_000, MaxUnitPrice - 1, MaxUnitPrice}
		for q := int64(0); q <= MaxQuantity; q += 50 {
			for _, price := range append(prices, q*MaxUnitPrice/MaxQuantity) {
				if got := Total([]Line{{Quantity: q, UnitPrice: price}}); got < 0 {
					t.Fatalf("negative total %d for q=%d price=%d", got, q, price)
				}
			}
		}
	})

	t.Run("many lines at the caps stay exact", func(t *testing.T) {
		lines := make([]Line, 1000)
		for i := range lines {
			lines[i] = Line{Quantity: MaxQuantity, UnitPrice: MaxUnitPrice}
		}
		want := int64(1000) * MaxQuantity * MaxUnitPrice
		if got := Total(lines); got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	})
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		q       int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"upper bound", MaxQuantity, false},
		{"negative", -1, true},
		{"above cap", MaxQuantity + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuantity(tt.q)
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateUnitPrice(t *testing.T) {
	tests := []struct {
		name    string
		p       int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"upper bound", MaxUnitPrice, false},
		{"negative", -1, true},
		{"above cap", MaxUnitPrice + 1, true},
		{"huge", 1 << 62, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnitPrice(tt.p)
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	cases := map[int64]int64{-5: 0, 0: 0, 42: 42, 500: 500, 501: 500}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
}
