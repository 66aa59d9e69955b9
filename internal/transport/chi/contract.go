package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/lookbook/internal/domain/batch"
	"github.com/kailas-cloud/lookbook/internal/domain/search/request"
	domsession "github.com/kailas-cloud/lookbook/internal/domain/session"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
	inventoryuc "github.com/kailas-cloud/lookbook/internal/usecase/inventory"
	searchuc "github.com/kailas-cloud/lookbook/internal/usecase/search"
	tagginguc "github.com/kailas-cloud/lookbook/internal/usecase/tagging"
)

// Ingester tags and stores uploaded images.
type Ingester interface {
	Ingest(ctx context.Context, uploads []tagginguc.Upload) ([]dombatch.Result, error)
	MaxFiles() int
}

// Searcher runs ranked searches and serves the tag vocabulary.
type Searcher interface {
	Search(ctx context.Context, sess domsession.Context, req request.Request) (
		searchuc.Outcome, domsession.Context, error)
	Suggestions(ctx context.Context, sess domsession.Context) searchuc.Suggestions
	Vocabulary(ctx context.Context) []string
}

// Previewer lists the newest stored items.
type Previewer interface {
	Preview(ctx context.Context, n int) (inventoryuc.Preview, error)
}

// SessionStore persists per-merchandiser search sessions.
type SessionStore interface {
	Load(ctx context.Context, id string) (domsession.Context, error)
	Save(ctx context.Context, sess domsession.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
