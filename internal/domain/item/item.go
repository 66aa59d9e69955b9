// Package item defines a tagged product image as stored in the vector store.
package item

import (
	"time"

	"github.com/kailas-cloud/lookbook/internal/domain/tags"
)

// Metadata keys stored alongside every item.
const (
	MetaSource     = "source"
	MetaImageType  = "image_type"
	MetaCategory   = "category"
	MetaBrand      = "brand"
	MetaSeason     = "season"
	MetaUploadedAt = "uploaded_at"
)

// ImageTypeFashion is the only image type ingested today.
const ImageTypeFashion = "fashion"

// FilterKeys lists the metadata keys a search may pre-filter on.
var FilterKeys = []string{MetaBrand, MetaSeason, MetaCategory}

// Item is a stored product: its normalised tag string plus metadata.
type Item struct {
	id       string
	tags     string
	metadata map[string]string
}

// New restores an item from storage. metadata is copied.
func New(id, tagString string, metadata map[string]string) Item {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	return Item{id: id, tags: tagString, metadata: meta}
}

// FromUpload builds a new item for an uploaded file. Brand and season come from the filename,
// category is the first tag, uploaded_at is RFC3339 UTC so it sorts lexicographically.
func FromUpload(id, filename, tagString string, uploadedAt time.Time) Item {
	name := NormalizeFilename(filename)
	return Item{
		id:   id,
		tags: tagString,
		metadata: map[string]string{
			MetaSource:     name,
			MetaImageType:  ImageTypeFashion,
			MetaCategory:   tags.First(tagString),
			MetaBrand:      Brand(name),
			MetaSeason:     Season(name),
			MetaUploadedAt: uploadedAt.UTC().Format(time.RFC3339),
		},
	}
}

// ID returns the item identifier.
func (i Item) ID() string { return i.id }

// Tags returns the normalised "a, b, c" tag string.
func (i Item) Tags() string { return i.tags }

// Metadata returns the metadata map. Callers must not modify it.
func (i Item) Metadata() map[string]string { return i.metadata }

// Meta returns one metadata value or "".
func (i Item) Meta(key string) string { return i.metadata[key] }

// Source returns the original filename.
func (i Item) Source() string { return i.metadata[MetaSource] }

// UploadedAt returns the RFC3339 upload timestamp, or "" for legacy items.
func (i Item) UploadedAt() string { return i.metadata[MetaUploadedAt] }
