package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
	"github.com/kailas-cloud/lookbook/internal/domain/search/rank"
	"github.com/kailas-cloud/lookbook/internal/domain/search/request"
	"github.com/kailas-cloud/lookbook/internal/domain/session"
	"github.com/kailas-cloud/lookbook/internal/domain/tags"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Display limits for suggestions.
const (
	DisplayTags   = 12
	DisplayRecent = 5
)

// FallbackPhrases seed the vocabulary while the store has no usable tags.
var FallbackPhrases = []string{
	"원피스, 네이비, 오피스룩",
	"여름에 입기 좋은 흰색 원피스",
	"린넨, 캐주얼, 미니멀",
	"코트, 트위드, 오버사이즈",
}

// Outcome is a ranked search result.
type Outcome struct {
	Query     string
	Criterion order.Criterion
	Hits      []hit.RankedHit
}

// Suggestions are the search hints shown under the query box.
type Suggestions struct {
	Tags   []string
	Recent []string
}

// Service runs searches and keeps the session's query history.
type Service struct {
	store    VectorStore
	embed    Embedder
	ranker   *rank.Ranker
	fallback []string
	logger   *zap.Logger
}

// New creates a search service.
func New(store VectorStore, embed Embedder, ranker *rank.Ranker, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		embed:    embed,
		ranker:   ranker,
		fallback: tags.FromPhrases(FallbackPhrases),
		logger:   logger,
	}
}

// Search records the query in the session, then embeds, queries and ranks.
// The updated session is returned even when the search fails, so callers can persist it.
func (s *Service) Search(
	ctx context.Context, sess session.Context, req request.Request,
) (Outcome, session.Context, error) {
	sess = sess.WithQuery(req.Query())
	criterion := string(req.Criterion())

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(criterion, "error").Inc()
		return Outcome{}, sess, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Query(ctx, emb.Embedding, req.K(), req.Filters())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(criterion, "error").Inc()
		return Outcome{}, sess, fmt.Errorf("query: %w: %w", domain.ErrVectorStoreError, err)
	}

	ranked, err := s.ranker.Rank(hits, req.Criterion())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(criterion, "error").Inc()
		return Outcome{}, sess, fmt.Errorf("rank hits: %w", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues(criterion, "ok").Inc()
	metrics.SearchHitsReturned.Observe(float64(len(ranked)))
	if best, ok := topConfidence(ranked); ok {
		metrics.SearchTopConfidence.Observe(best)
	}

	s.logger.Debug("search completed",
		zap.String("session_id", sess.ID()),
		zap.String("sort", criterion),
		zap.Int("k", req.K()),
		zap.Int("hits", len(ranked)),
	)

	return Outcome{Query: req.Query(), Criterion: req.Criterion(), Hits: ranked}, sess, nil
}

// topConfidence returns the best confidence regardless of the display order.
func topConfidence(ranked []hit.RankedHit) (float64, bool) {
	if len(ranked) == 0 {
		return 0, false
	}
	best := ranked[0].Confidence()
	for _, r := range ranked[1:] {
		best = max(best, r.Confidence())
	}
	return best, true
}

// TagQuery builds a search query from selected tags.
func TagQuery(selected []string) string {
	parts := make([]string, 0, len(selected))
	for _, t := range selected {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, tags.Separator)
}

// Vocabulary returns every tag known to the store, or the fallback vocabulary.
func (s *Service) Vocabulary(ctx context.Context) []string {
	corpus, err := s.store.Corpus(ctx)
	if err != nil {
		s.logger.Warn("tag corpus unavailable, using fallback vocabulary", zap.Error(err))
		corpus = nil
	}
	return tags.ExtractVocabulary(corpus, s.fallback)
}

// Suggestions returns the first DisplayTags vocabulary entries and DisplayRecent recent queries.
func (s *Service) Suggestions(ctx context.Context, sess session.Context) Suggestions {
	vocab := s.Vocabulary(ctx)
	if len(vocab) > DisplayTags {
		vocab = vocab[:DisplayTags]
	}
	return Suggestions{Tags: vocab, Recent: sess.Recent().Head(DisplayRecent)}
}
