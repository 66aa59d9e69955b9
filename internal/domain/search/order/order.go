package order

import (
	"fmt"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// Criterion selects how ranked search hits are ordered.
type Criterion string

// Sort criterion constants. The string values are the wire names.
const (
	// BySimilarity orders by ascending distance.
	BySimilarity Criterion = "similarity"
	// ByRecency orders by newest upload first.
	ByRecency Criterion = "latest"
	// ByTagCount orders by number of tags, most first.
	ByTagCount Criterion = "tag_match"
)

// All lists every criterion in display order.
func All() []Criterion {
	return []Criterion{BySimilarity, ByRecency, ByTagCount}
}

// IsValid checks if the criterion is one of the supported values.
func (c Criterion) IsValid() bool {
	return c == BySimilarity || c == ByRecency || c == ByTagCount
}

// Parse converts a wire name into a Criterion. Empty input selects BySimilarity.
func Parse(s string) (Criterion, error) {
	if s == "" {
		return BySimilarity, nil
	}
	c := Criterion(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown sort criterion %q", domain.ErrInvalidQuery, s)
	}
	return c, nil
}
