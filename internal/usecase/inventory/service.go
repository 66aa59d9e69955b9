// Package inventory reports what the item store holds.
package inventory

import (
	"context"
	"fmt"
	"sort"

	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
)

// DefaultPreviewSize is the number of newest items shown when no size is given.
const DefaultPreviewSize = 5

// ItemReader lists stored items.
type ItemReader interface {
	Count(ctx context.Context) (int, error)
	Items(ctx context.Context) ([]domitem.Item, error)
}

// Preview is the total item count plus the newest items.
type Preview struct {
	Total int
	Items []domitem.Item
}

// Service builds inventory previews.
type Service struct {
	items ItemReader
}

// New creates an inventory service.
func New(items ItemReader) *Service {
	return &Service{items: items}
}

// Preview returns the item count and the n most recently uploaded items.
// Items without an upload time sort last.
func (s *Service) Preview(ctx context.Context, n int) (Preview, error) {
	if n <= 0 {
		n = DefaultPreviewSize
	}
	total, err := s.items.Count(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("count items: %w", err)
	}
	all, err := s.items.Items(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("list items: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].UploadedAt(), all[j].UploadedAt()
		if a != b {
			return a > b
		}
		return all[i].ID() < all[j].ID()
	})
	if len(all) > n {
		all = all[:n]
	}
	return Preview{Total: total, Items: all}, nil
}
