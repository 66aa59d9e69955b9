package domain

import (
	"context"
	"sync"
)

type modelUsageKey struct{}

// ModelUsage collects model token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// services write after each model call; the handler reads it for response headers.
// Tagging workers write concurrently; read the fields only after the service call returns.
type ModelUsage struct {
	mu              sync.Mutex
	EmbeddingTokens int
	TaggingTokens   int
	Used            bool // true if a model was called, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with a usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ModelUsage) {
	u := &ModelUsage{}
	return context.WithValue(ctx, modelUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ModelUsage {
	u, _ := ctx.Value(modelUsageKey{}).(*ModelUsage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens.
func (u *ModelUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddTaggingTokens records consumed tagging tokens.
func (u *ModelUsage) AddTaggingTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.TaggingTokens += n
		u.Used = true
	}
}
