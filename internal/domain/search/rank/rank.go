// Package rank converts raw nearest-neighbour distances into confidence-scored, ordered results.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
	"github.com/kailas-cloud/lookbook/internal/domain/tags"
)

// DefaultMaxDistance is the L2 distance at which confidence reaches 0%.
const DefaultMaxDistance = 2.0

// Metadata keys read by ByRecency, in lookup order.
const (
	KeyUploadedAt = "uploaded_at"
	KeyCreatedAt  = "created_at"
)

// DistanceToConfidence maps an L2 distance to a [0,100] percentage.
// distance <= 0 is 100, distance >= maxDistance is 0, linear in between.
// A NaN distance carries no similarity and maps to 0.
func DistanceToConfidence(distance, maxDistance float64) (float64, error) {
	if err := validateMaxDistance(maxDistance); err != nil {
		return 0, err
	}
	return confidence(distance, maxDistance), nil
}

func validateMaxDistance(maxDistance float64) error {
	if math.IsNaN(maxDistance) || math.IsInf(maxDistance, 0) || maxDistance <= 0 {
		return domain.NewConfigurationError("max_distance",
			fmt.Sprintf("must be a positive finite number, got %v", maxDistance))
	}
	return nil
}

func confidence(distance, maxDistance float64) float64 {
	switch {
	case math.IsNaN(distance):
		return 0
	case distance <= 0:
		return 100
	case distance >= maxDistance:
		return 0
	}
	return math.Max(0, math.Min(100, 100*(1-distance/maxDistance)))
}

// Ranker scores and orders search hits. Safe for concurrent use.
type Ranker struct {
	maxDistance float64
}

// NewRanker validates maxDistance once so Rank and Confidence cannot fail on it.
func NewRanker(maxDistance float64) (*Ranker, error) {
	if err := validateMaxDistance(maxDistance); err != nil {
		return nil, err
	}
	return &Ranker{maxDistance: maxDistance}, nil
}

// MaxDistance returns the configured confidence scale.
func (r *Ranker) MaxDistance() float64 { return r.maxDistance }

// Confidence returns the confidence percentage for a distance.
func (r *Ranker) Confidence(distance float64) float64 {
	return confidence(distance, r.maxDistance)
}

// Rank returns a new slice of hits ordered by criterion and annotated with confidence.
// The input slice is never modified. All orderings are stable.
func (r *Ranker) Rank(hits []hit.SearchHit, criterion order.Criterion) ([]hit.RankedHit, error) {
	less, err := lessFunc(criterion)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []hit.RankedHit{}, nil
	}

	sorted := make([]hit.SearchHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	out := make([]hit.RankedHit, len(sorted))
	for i, h := range sorted {
		out[i] = hit.NewRanked(h, r.Confidence(h.Distance()))
	}
	return out, nil
}

type lessFn func(a, b hit.SearchHit) bool

func lessFunc(c order.Criterion) (lessFn, error) {
	switch c {
	case order.BySimilarity:
		return bySimilarity, nil
	case order.ByRecency:
		return byRecency, nil
	case order.ByTagCount:
		return byTagCount, nil
	default:
		return nil, domain.NewConfigurationError("criterion", fmt.Sprintf("unknown value %q", string(c)))
	}
}

// NaN distances sort after every real distance.
func distanceLess(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

func bySimilarity(a, b hit.SearchHit) bool {
	return distanceLess(a.Distance(), b.Distance())
}

func byRecency(a, b hit.SearchHit) bool {
	ka, kb := RecencyKey(a), RecencyKey(b)
	if ka != kb {
		// newer first; "" is the smallest string so it lands last
		return ka > kb
	}
	return distanceLess(a.Distance(), b.Distance())
}

func byTagCount(a, b hit.SearchHit) bool {
	ca, cb := tags.Count(a.Content()), tags.Count(b.Content())
	if ca != cb {
		return ca > cb
	}
	return distanceLess(a.Distance(), b.Distance())
}

// RecencyKey returns uploaded_at, falling back to created_at, or "".
func RecencyKey(h hit.SearchHit) string {
	if v := h.Meta(KeyUploadedAt); v != "" {
		return v
	}
	return h.Meta(KeyCreatedAt)
}
