package hit

// SearchHit is one nearest-neighbour match returned by a vector store.
// Distance follows the L2 convention: smaller means more similar.
type SearchHit struct {
	id       string
	content  string
	metadata map[string]string
	distance float64
}

// New creates a search hit. metadata is copied so the hit stays immutable.
func New(id, content string, metadata map[string]string, distance float64) SearchHit {
	return SearchHit{id: id, content: content, metadata: cloneMap(metadata), distance: distance}
}

// ID returns the stored item identifier.
func (h SearchHit) ID() string { return h.id }

// Content returns the comma/whitespace separated tag list.
func (h SearchHit) Content() string { return h.content }

// Metadata returns the item metadata. Callers must not modify the map.
func (h SearchHit) Metadata() map[string]string { return h.metadata }

// Meta returns a single metadata value, or "" when absent.
func (h SearchHit) Meta(key string) string { return h.metadata[key] }

// Distance returns the raw store distance.
func (h SearchHit) Distance() float64 { return h.distance }

// RankedHit is a SearchHit annotated with a confidence percentage.
type RankedHit struct {
	SearchHit
	confidence float64
}

// NewRanked annotates a hit with its confidence.
func NewRanked(h SearchHit, confidence float64) RankedHit {
	return RankedHit{SearchHit: h, confidence: confidence}
}

// Confidence returns the [0,100] confidence derived from the distance.
func (r RankedHit) Confidence() float64 { return r.confidence }

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
