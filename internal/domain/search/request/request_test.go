package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  린넨 원피스 ", 0, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "린넨 원피스" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.K() != DefaultK {
		t.Errorf("K() = %d, want %d", r.K(), DefaultK)
	}
	if r.Criterion() != order.BySimilarity {
		t.Errorf("Criterion() = %q", r.Criterion())
	}
	if r.Filters() != nil {
		t.Errorf("Filters() = %v, want nil", r.Filters())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("코트", 20, order.ByRecency, map[string]string{
		domitem.MetaBrand:  "TIME",
		domitem.MetaSeason: " ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.K() != 20 || r.Criterion() != order.ByRecency {
		t.Errorf("K=%d criterion=%q", r.K(), r.Criterion())
	}
	if len(r.Filters()) != 1 || r.Filters()[domitem.MetaBrand] != "TIME" {
		t.Errorf("Filters() = %v", r.Filters())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		k         int
		criterion order.Criterion
		filters   map[string]string
	}{
		{name: "blank query", query: "   "},
		{name: "too long", query: strings.Repeat("가", MaxQueryLength+1)},
		{name: "k negative", query: "a", k: -1},
		{name: "k above max", query: "a", k: MaxK + 1},
		{name: "unknown criterion", query: "a", criterion: "popularity"},
		{name: "unknown filter", query: "a", filters: map[string]string{"color": "red"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.query, tc.k, tc.criterion, tc.filters)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestNew_KBounds(t *testing.T) {
	for _, k := range []int{MinK, MaxK} {
		r, err := New("a", k, "", nil)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if r.K() != k {
			t.Errorf("K() = %d, want %d", r.K(), k)
		}
	}
}

func TestNew_QueryLengthCountsRunes(t *testing.T) {
	if _, err := New(strings.Repeat("가", MaxQueryLength), 0, "", nil); err != nil {
		t.Errorf("query of exactly %d runes must be accepted: %v", MaxQueryLength, err)
	}
}
