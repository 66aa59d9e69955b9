// Package gemini talks to the Gemini API: multimodal image tagging and text embeddings.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// models is the subset of *genai.Models used here.
type models interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	EmbedContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
}

// ClientConfig holds connection settings shared by the tagger and the embedder.
type ClientConfig struct {
	APIKey  string
	BaseURL string // optional, for proxies and tests
}

// NewModels creates a Gemini API client and returns its models service.
func NewModels(ctx context.Context, cfg ClientConfig) (*genai.Models, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("gemini.api_key", "is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client.Models, nil
}

// wrapAPIError keeps the HTTP status of a genai.APIError and attaches the domain sentinel.
func wrapAPIError(op string, err, sentinel error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: gemini API error %d: %s: %w", op, apiErr.Code, apiErr.Message, sentinel)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, sentinel)
}
