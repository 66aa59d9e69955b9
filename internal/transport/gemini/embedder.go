package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Embedding defaults.
const (
	DefaultEmbeddingModel = "text-embedding-004"

	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

const providerName = "gemini"

// EmbedderConfig configures one Gemini embedder. Stored items and queries use separate
// embedders that differ only in TaskType.
type EmbedderConfig struct {
	Model      string
	Dimensions int
	TaskType   string
	Logger     *zap.Logger
}

// Embedder implements domain.Embedder with the Gemini embedding API.
type Embedder struct {
	models     models
	model      string
	dimensions int
	taskType   string
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(m models, cfg EmbedderConfig) *Embedder {
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = DefaultEmbeddingModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		models:     m,
		model:      model,
		dimensions: cfg.Dimensions,
		taskType:   cfg.TaskType,
		logger:     logger,
	}
}

// Embed implements domain.Embedder. The Gemini API does not report token usage for embeddings.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty text: %w", domain.ErrInvalidRequest)
	}

	start := time.Now()
	resp, err := e.models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, e.requestConfig())
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "api_error").Inc()
		return domain.EmbeddingResult{}, wrapAPIError("embed content", err, domain.ErrEmbeddingProviderError)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: resp.Embeddings[0].Values}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	_, err := e.models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)}, e.requestConfig())
	if err != nil {
		return fmt.Errorf("gemini embed probe: %w", err)
	}
	return nil
}

func (e *Embedder) requestConfig() *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		d := int32(e.dimensions)
		cfg.OutputDimensionality = &d
	}
	return cfg
}
