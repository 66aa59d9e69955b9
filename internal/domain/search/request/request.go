package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 500
	DefaultK       = 10
	MinK           = 1
	MaxK           = 20
)

// Request is a validated search query.
type Request struct {
	query     string
	k         int
	criterion order.Criterion
	filters   map[string]string
}

// New validates and normalizes search parameters.
// Defaults: k=10, criterion=similarity. Filter keys are limited to domitem.FilterKeys;
// empty filter values are dropped.
func New(query string, k int, criterion order.Criterion, filters map[string]string) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if k == 0 {
		k = DefaultK
	}
	if k < MinK || k > MaxK {
		return Request{}, fmt.Errorf("%w: k must be between %d and %d", domain.ErrInvalidQuery, MinK, MaxK)
	}
	if criterion == "" {
		criterion = order.BySimilarity
	}
	if !criterion.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sort criterion %q", domain.ErrInvalidQuery, criterion)
	}

	clean, err := cleanFilters(filters)
	if err != nil {
		return Request{}, err
	}

	return Request{query: q, k: k, criterion: criterion, filters: clean}, nil
}

func cleanFilters(filters map[string]string) (map[string]string, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	allowed := make(map[string]bool, len(domitem.FilterKeys))
	for _, k := range domitem.FilterKeys {
		allowed[k] = true
	}
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		if !allowed[k] {
			return nil, fmt.Errorf("%w: unknown filter %q (allowed: %s)",
				domain.ErrInvalidQuery, k, strings.Join(domitem.FilterKeys, ", "))
		}
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Query returns the trimmed search query text.
func (r Request) Query() string { return r.query }

// K returns the number of hits to retrieve.
func (r Request) K() int { return r.k }

// Criterion returns the sort criterion.
func (r Request) Criterion() order.Criterion { return r.criterion }

// Filters returns the metadata pre-filters (nil when none).
func (r Request) Filters() map[string]string { return r.filters }
