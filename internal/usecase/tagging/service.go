package tagging

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	dombatch "github.com/kailas-cloud/lookbook/internal/domain/batch"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/tags"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Defaults for Options.
const (
	DefaultMaxFiles = 4
	DefaultWorkers  = 2
)

// supportedTypes maps accepted MIME types to the type sent to the tagger.
var supportedTypes = map[string]string{
	"image/png":  "image/png",
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
}

// Upload is one file of a multi-file upload.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options bounds a single upload.
type Options struct {
	MaxFiles int
	Workers  int
}

// Service tags uploaded product photos and stores them as searchable items.
type Service struct {
	tagger   Tagger
	embed    Embedder
	items    ItemWriter
	pool     *ants.Pool
	maxFiles int
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// New creates a tagging service with its worker pool. Call Close to release the pool.
func New(tagger Tagger, embed Embedder, items ItemWriter, opts Options, logger *zap.Logger) (*Service, error) {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create tagging pool: %w", err)
	}
	return &Service{
		tagger:   tagger,
		embed:    embed,
		items:    items,
		pool:     pool,
		maxFiles: opts.MaxFiles,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// MaxFiles returns the per-upload file limit.
func (s *Service) MaxFiles() int { return s.maxFiles }

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Ingest processes every upload and returns one result per file in input order.
// Limits are checked up front: nothing is processed when they are exceeded.
func (s *Service) Ingest(ctx context.Context, uploads []Upload) ([]dombatch.Result, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files uploaded: %w", domain.ErrInvalidRequest)
	}
	if len(uploads) > s.maxFiles {
		return nil, fmt.Errorf("%d files, at most %d allowed: %w", len(uploads), s.maxFiles, domain.ErrTooManyFiles)
	}

	results := make([]dombatch.Result, len(uploads))
	var wg sync.WaitGroup
	for i := range uploads {
		wg.Add(1)
		idx := i
		task := func() {
			defer wg.Done()
			results[idx] = s.ingestOne(ctx, uploads[idx])
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			results[idx] = dombatch.NewError(uploads[idx].Filename, "", fmt.Errorf("submit tagging task: %w", err))
		}
	}
	wg.Wait()

	ok, failed := dombatch.Count(results)
	metrics.IngestItemsTotal.WithLabelValues(string(dombatch.StatusOK)).Add(float64(ok))
	metrics.IngestItemsTotal.WithLabelValues(string(dombatch.StatusError)).Add(float64(failed))
	s.logger.Info("upload processed",
		zap.Int("files", len(uploads)), zap.Int("succeeded", ok), zap.Int("failed", failed))

	return results, nil
}

func (s *Service) ingestOne(ctx context.Context, up Upload) dombatch.Result {
	filename := domitem.NormalizeFilename(up.Filename)
	log := s.logger.With(zap.String("file", filename))

	contentType, err := resolveContentType(up)
	if err != nil {
		return dombatch.NewError(filename, "", err)
	}

	tr, err := s.tagger.Tag(ctx, domain.Image{Filename: filename, ContentType: contentType, Data: up.Data})
	if err != nil {
		log.Warn("tagging failed", zap.Error(err))
		return dombatch.NewError(filename, "", fmt.Errorf("tag image: %w", err))
	}
	domain.UsageFromContext(ctx).AddTaggingTokens(tr.TotalTokens)

	tagString := tags.Normalize(tr.Text)
	if tagString == "" {
		log.Warn("model answer has no tags", zap.String("answer", tr.Text))
		return dombatch.NewError(filename, "", fmt.Errorf("no tags in model answer: %w", domain.ErrTaggingProviderError))
	}

	it := domitem.FromUpload(s.newID(), filename, tagString, s.now())

	emb, err := s.embed.Embed(ctx, it.Tags())
	if err != nil {
		log.Warn("embedding failed", zap.Error(err))
		return dombatch.NewError(filename, tagString, fmt.Errorf("embed tags: %w", err))
	}

	if err := s.items.Add(ctx, it, emb.Embedding); err != nil {
		log.Error("store item failed", zap.String("item_id", it.ID()), zap.Error(err))
		return dombatch.NewError(filename, tagString, fmt.Errorf("store item: %w: %w", domain.ErrVectorStoreError, err))
	}

	log.Debug("item stored",
		zap.String("item_id", it.ID()),
		zap.String("brand", it.Meta(domitem.MetaBrand)),
		zap.String("season", it.Meta(domitem.MetaSeason)))
	return dombatch.NewOK(filename, it.ID(), tagString)
}

// resolveContentType trusts a declared image type and sniffs the bytes otherwise.
func resolveContentType(up Upload) (string, error) {
	if len(up.Data) == 0 {
		return "", fmt.Errorf("empty file: %w", domain.ErrUnsupportedImage)
	}
	declared := up.ContentType
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" || declared == "application/octet-stream" {
		declared, _, _ = mime.ParseMediaType(http.DetectContentType(up.Data))
	}
	if ct, ok := supportedTypes[declared]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("content type %q: %w", declared, domain.ErrUnsupportedImage)
}
