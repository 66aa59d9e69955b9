// Package item stores tagged items as Valkey/Redis hashes behind an FT vector index.
package item

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/lookbook/internal/db"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
)

// Hash field names.
const (
	fieldContent = "content"
	fieldVector  = "vector"
)

// metaFields are stored next to content and returned with every hit.
var metaFields = []string{
	domitem.MetaSource,
	domitem.MetaImageType,
	domitem.MetaCategory,
	domitem.MetaBrand,
	domitem.MetaSeason,
	domitem.MetaUploadedAt,
}

// store is the consumer interface for item storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options configures key layout and the vector index.
type Options struct {
	Prefix         string // e.g. "lookbook:"
	Dimensions     int
	M              int
	EFConstruction int
}

// Repo implements the vector store on the FT index.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
	opts      Options
}

// New creates an item repository.
func New(s store, opts Options) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: opts.Prefix + "item:",
		indexName: opts.Prefix + "items:idx",
		opts:      opts,
	}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string { return r.indexName }

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	b := db.NewIndex(r.indexName).Prefix(r.keyPrefix).Text(fieldContent)
	for _, k := range []string{domitem.MetaBrand, domitem.MetaSeason, domitem.MetaCategory, domitem.MetaImageType} {
		b = b.TagWithOpts(k, "|", true)
	}
	def, err := b.VectorHNSW(fieldVector, r.opts.Dimensions, db.DistanceL2, r.opts.M, r.opts.EFConstruction).Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Add stores an item with its embedding.
func (r *Repo) Add(ctx context.Context, it domitem.Item, vector []float32) error {
	if len(vector) != r.opts.Dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), r.opts.Dimensions)
	}
	fields := make(map[string]string, len(metaFields)+2)
	for _, k := range metaFields {
		if v := it.Meta(k); v != "" {
			fields[k] = v
		}
	}
	fields[fieldContent] = it.Tags()
	fields[fieldVector] = vectorToBytes(vector)

	key := r.keyPrefix + it.ID()
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Query returns the k nearest items. Distance is the raw FT L2 score (squared Euclidean).
func (r *Repo) Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]hit.SearchHit, error) {
	returnFields := append([]string{fieldContent}, metaFields...)
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
		RawScores:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]hit.SearchHit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, r.toHit(e))
	}
	return hits, nil
}

// toHit is the single mapping from an FT.SEARCH entry to a search hit.
func (r *Repo) toHit(e db.SearchEntry) hit.SearchHit {
	meta := make(map[string]string, len(metaFields))
	for _, k := range metaFields {
		if v, ok := e.Fields[k]; ok {
			meta[k] = v
		}
	}
	return hit.New(strings.TrimPrefix(e.Key, r.keyPrefix), e.Fields[fieldContent], meta, e.Score)
}

// Corpus returns the stored tag strings of every item.
func (r *Repo) Corpus(ctx context.Context) ([]any, error) {
	hashes, _, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(hashes))
	for _, h := range hashes {
		if c, ok := h[fieldContent]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Items returns every stored item in no particular order.
func (r *Repo) Items(ctx context.Context) ([]domitem.Item, error) {
	hashes, keys, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domitem.Item, 0, len(hashes))
	for i, h := range hashes {
		meta := make(map[string]string, len(metaFields))
		for _, k := range metaFields {
			if v, ok := h[k]; ok {
				meta[k] = v
			}
		}
		out = append(out, domitem.New(strings.TrimPrefix(keys[i], r.keyPrefix), h[fieldContent], meta))
	}
	return out, nil
}

// Count returns the number of stored items.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan items: %w", err)
	}
	return len(keys), nil
}

// loadAll returns non-empty item hashes with their keys, aligned by index.
func (r *Repo) loadAll(ctx context.Context) ([]map[string]string, []string, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return nil, nil, fmt.Errorf("scan items: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}
	raw, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("load items: %w", err)
	}

	hashes := make([]map[string]string, 0, len(raw))
	kept := make([]string, 0, len(raw))
	for i, h := range raw {
		// keys deleted between SCAN and HGETALL come back empty
		if len(h) == 0 {
			continue
		}
		hashes = append(hashes, h)
		kept = append(kept, keys[i])
	}
	return hashes, kept, nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
