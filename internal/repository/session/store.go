// Package session persists search sessions in the key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/db"
	domsession "github.com/kailas-cloud/lookbook/internal/domain/session"
)

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type sessionDTO struct {
	Recent    []string  `json:"recent"`
	LastQuery string    `json:"last_query,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store loads and saves session contexts as JSON documents with a TTL.
type Store struct {
	store     store
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a session store. Keys look like <prefix>session:<id>; every save refreshes ttl.
func New(s store, prefix string, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		store:     s,
		keyPrefix: prefix + "session:",
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Load returns the stored session or a fresh one when the key is missing or unreadable.
// Only storage failures are returned as errors; the returned context is usable either way.
func (s *Store) Load(ctx context.Context, id string) (domsession.Context, error) {
	data, err := s.store.Get(ctx, s.keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.New(id), nil
		}
		return domsession.New(id), fmt.Errorf("load session %s: %w", id, err)
	}

	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.logger.Warn("corrupt session document, starting fresh",
			zap.String("session_id", id), zap.Error(err))
		return domsession.New(id), nil
	}
	return domsession.Restore(id, dto.Recent, dto.LastQuery), nil
}

// Save writes the session and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sess domsession.Context) error {
	dto := sessionDTO{
		Recent:    sess.Recent(),
		LastQuery: sess.LastQuery(),
		UpdatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, s.keyPrefix+sess.ID(), data, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID(), err)
	}
	return nil
}
