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

// DefaultTaggingModel is used when no tagging model is configured.
const DefaultTaggingModel = "gemini-flash-latest"

// DefaultPrompt asks for a bare keyword list covering category, colour, material, pattern and mood.
const DefaultPrompt = `너는 패션 브랜드의 상품 MD다.
이미지 속 상품을 보고 쇼핑몰 검색에 쓸 태그를 뽑아라.

태그에 포함할 것:
- 카테고리 (원피스, 셔츠, 코트 등)
- 색상 (네이비, 아이보리, 파스텔톤 등)
- 소재 (실크, 데님, 니트, 트위드 등)
- 패턴 (스트라이프, 플로럴, 무지 등)
- 스타일과 무드 (캐주얼, 오피스룩, 미니멀, 빈티지 등)

첫 번째 태그는 반드시 카테고리로 하고, 쉼표로 구분된 키워드만 출력해라. 설명 문장은 쓰지 마라.
예: 원피스, 네이비, 롱기장, 린넨, 여름, 오피스룩, 반팔`

// TaggerConfig configures the multimodal tagger.
type TaggerConfig struct {
	Model  string
	Prompt string
	Logger *zap.Logger
}

// Tagger implements domain.Tagger with a Gemini multimodal model.
type Tagger struct {
	models models
	model  string
	prompt string
	logger *zap.Logger
}

// NewTagger creates a Gemini tagger. Empty model and prompt fall back to the defaults.
func NewTagger(m models, cfg TaggerConfig) *Tagger {
	model := cfg.Model
	if model == "" {
		model = DefaultTaggingModel
	}
	prompt := cfg.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tagger{models: m, model: model, prompt: prompt, logger: logger}
}

// Tag sends the prompt and the image bytes and returns the raw model answer.
func (t *Tagger) Tag(ctx context.Context, img domain.Image) (domain.TagResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(t.prompt),
		genai.NewPartFromBytes(img.Data, img.ContentType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	resp, err := t.models.GenerateContent(ctx, t.model, contents, nil)
	duration := time.Since(start)

	if err != nil {
		metrics.TaggingRequestsTotal.WithLabelValues(t.model, "error").Inc()
		t.logger.Warn("tagging request failed",
			zap.String("file", img.Filename), zap.Duration("duration", duration), zap.Error(err))
		return domain.TagResult{}, wrapAPIError("generate content", err, domain.ErrTaggingProviderError)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.TaggingRequestsTotal.WithLabelValues(t.model, "error").Inc()
		return domain.TagResult{}, fmt.Errorf("empty tagging response for %s: %w",
			img.Filename, domain.ErrTaggingProviderError)
	}

	metrics.TaggingRequestsTotal.WithLabelValues(t.model, "success").Inc()
	metrics.TaggingRequestDuration.WithLabelValues(t.model).Observe(duration.Seconds())

	var total int
	if resp.UsageMetadata != nil {
		total = int(resp.UsageMetadata.TotalTokenCount)
		metrics.TaggingTokensTotal.WithLabelValues(t.model).Add(float64(total))
	}

	return domain.TagResult{Text: text, TotalTokens: total}, nil
}
