package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
)

func mustRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker(DefaultMaxDistance)
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	return r
}

func ids(ranked []hit.RankedHit) []string {
	out := make([]string, len(ranked))
	for i, h := range ranked {
		out[i] = h.ID()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDistanceToConfidence(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{-1, 100},
		{0, 100},
		{0.5, 75},
		{1.0, 50},
		{1.5, 25},
		{2.0, 0},
		{3.7, 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 100},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got, err := DistanceToConfidence(tt.distance, DefaultMaxDistance)
		if err != nil {
			t.Fatalf("DistanceToConfidence(%v): %v", tt.distance, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DistanceToConfidence(%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}

func TestDistanceToConfidence_StrictlyDecreasing(t *testing.T) {
	prev := 100.0
	for d := 0.01; d < DefaultMaxDistance; d += 0.01 {
		got, err := DistanceToConfidence(d, DefaultMaxDistance)
		if err != nil {
			t.Fatal(err)
		}
		if got >= prev {
			t.Fatalf("confidence not strictly decreasing at %v: %v >= %v", d, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("confidence %v out of range at %v", got, d)
		}
		prev = got
	}
}

func TestDistanceToConfidence_CustomScale(t *testing.T) {
	got, err := DistanceToConfidence(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 75 {
		t.Errorf("DistanceToConfidence(1, 4) = %v, want 75", got)
	}
}

func TestDistanceToConfidence_InvalidMaxDistance(t *testing.T) {
	for _, maxDist := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		_, err := DistanceToConfidence(0.5, maxDist)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("DistanceToConfidence(0.5, %v) err = %v, want ErrConfiguration", maxDist, err)
		}
		var ce *domain.ConfigurationError
		if !errors.As(err, &ce) || ce.Param != "max_distance" {
			t.Errorf("expected ConfigurationError on max_distance, got %v", err)
		}
	}
}

func TestNewRanker_Invalid(t *testing.T) {
	r, err := NewRanker(0)
	if r != nil || !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("NewRanker(0) = %v, %v; want nil, ErrConfiguration", r, err)
	}
}

func TestRank_Empty(t *testing.T) {
	r := mustRanker(t)
	for _, c := range order.All() {
		got, err := r.Rank(nil, c)
		if err != nil {
			t.Fatalf("Rank(nil, %s): %v", c, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Rank(nil, %s) = %v, want empty slice", c, got)
		}
	}
}

func TestRank_BySimilarity(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("a", "", nil, 0.5),
		hit.New("b", "", nil, 1.0),
		hit.New("c", "", nil, 0.0),
	}

	got, err := r.Rank(hits, order.BySimilarity)
	if err != nil {
		t.Fatal(err)
	}
	wantDist := []float64{0.0, 0.5, 1.0}
	wantConf := []float64{100, 75, 50}
	for i, h := range got {
		if h.Distance() != wantDist[i] {
			t.Errorf("pos %d distance = %v, want %v", i, h.Distance(), wantDist[i])
		}
		if h.Confidence() != wantConf[i] {
			t.Errorf("pos %d confidence = %v, want %v", i, h.Confidence(), wantConf[i])
		}
	}
}

func TestRank_BySimilarity_StableTies(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("first", "", nil, 0.3),
		hit.New("second", "", nil, 0.3),
		hit.New("closest", "", nil, 0.1),
		hit.New("third", "", nil, 0.3),
	}
	got, err := r.Rank(hits, order.BySimilarity)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"closest", "first", "second", "third"}
	if !equalStrings(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestRank_BySimilarity_NaNLast(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("nan", "", nil, math.NaN()),
		hit.New("far", "", nil, 1.9),
		hit.New("near", "", nil, 0.2),
	}
	got, err := r.Rank(hits, order.BySimilarity)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"near", "far", "nan"}
	if !equalStrings(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
	if got[2].Confidence() != 0 {
		t.Errorf("NaN confidence = %v, want 0", got[2].Confidence())
	}
}

func TestRank_ByRecency(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("jan", "", map[string]string{KeyUploadedAt: "2024-01-01"}, 0.1),
		hit.New("jun", "", map[string]string{KeyUploadedAt: "2024-06-01"}, 0.9),
		hit.New("none", "", map[string]string{KeyUploadedAt: ""}, 0.0),
	}
	got, err := r.Rank(hits, order.ByRecency)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"jun", "jan", "none"}
	if !equalStrings(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestRank_ByRecency_CreatedAtFallbackAndTies(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("created", "", map[string]string{KeyCreatedAt: "2024-03-01"}, 0.5),
		hit.New("same-far", "", map[string]string{KeyUploadedAt: "2024-05-01"}, 1.2),
		hit.New("same-near", "", map[string]string{KeyUploadedAt: "2024-05-01"}, 0.4),
		hit.New("missing-far", "", nil, 1.5),
		hit.New("missing-near", "", nil, 0.2),
	}
	got, err := r.Rank(hits, order.ByRecency)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"same-near", "same-far", "created", "missing-near", "missing-far"}
	if !equalStrings(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestRank_ByRecency_UploadedAtWinsOverCreatedAt(t *testing.T) {
	h := hit.New("x", "", map[string]string{KeyUploadedAt: "2024-01-01", KeyCreatedAt: "2025-01-01"}, 0)
	if got := RecencyKey(h); got != "2024-01-01" {
		t.Errorf("RecencyKey() = %q, want uploaded_at", got)
	}
}

func TestRank_ByTagCount(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("two", "원피스, 네이비", nil, 0.1),
		hit.New("four-far", "코트，트위드 오버사이즈, 블랙", nil, 1.0),
		hit.New("empty", "", nil, 0.0),
		hit.New("four-near", "셔츠, 화이트, 린넨, 미니멀", nil, 0.3),
	}
	got, err := r.Rank(hits, order.ByTagCount)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"four-near", "four-far", "two", "empty"}
	if !equalStrings(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestRank_UnknownCriterion(t *testing.T) {
	r := mustRanker(t)
	_, err := r.Rank([]hit.SearchHit{hit.New("a", "", nil, 0)}, order.Criterion("popularity"))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
	_, err = r.Rank(nil, order.Criterion("popularity"))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("empty input err = %v, want ErrConfiguration", err)
	}
}

func TestRank_DoesNotMutateInputAndKeepsIdentities(t *testing.T) {
	r := mustRanker(t)
	hits := []hit.SearchHit{
		hit.New("a", "x y z", map[string]string{KeyUploadedAt: "2024-02-01"}, 1.4),
		hit.New("b", "x", map[string]string{KeyUploadedAt: "2024-09-01"}, 0.2),
		hit.New("c", "x y", nil, 0.7),
	}
	before := make([]string, len(hits))
	for i, h := range hits {
		before[i] = h.ID()
	}

	for _, c := range order.All() {
		got, err := r.Rank(hits, c)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(hits) {
			t.Fatalf("%s: len = %d, want %d", c, len(got), len(hits))
		}
		seen := map[string]int{}
		for _, h := range got {
			seen[h.ID()]++
		}
		for _, id := range before {
			if seen[id] != 1 {
				t.Errorf("%s: id %q appears %d times", c, id, seen[id])
			}
		}
		for i, h := range hits {
			if h.ID() != before[i] {
				t.Fatalf("%s: input mutated at %d", c, i)
			}
		}
	}
}

func TestRanker_ConfidenceMatchesFunction(t *testing.T) {
	r, err := NewRanker(4)
	if err != nil {
		t.Fatal(err)
	}
	if r.MaxDistance() != 4 {
		t.Errorf("MaxDistance() = %v", r.MaxDistance())
	}
	for _, d := range []float64{-1, 0, 1, 2, 3.99, 4, 10} {
		want, _ := DistanceToConfidence(d, 4)
		if got := r.Confidence(d); got != want {
			t.Errorf("Confidence(%v) = %v, want %v", d, got, want)
		}
	}
}
