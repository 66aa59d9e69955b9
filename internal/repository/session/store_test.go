package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/db"
	domsession "github.com/kailas-cloud/lookbook/internal/domain/session"
)

type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrKeyNotFound}
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestRoundTrip(t *testing.T) {
	ms := newMemStore()
	s := New(ms, "lookbook:", 24*time.Hour, zap.NewNop())

	sess := domsession.New("abc").WithQuery("린넨 원피스").WithQuery("네이비 코트")
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ms.ttls["lookbook:session:abc"] != 24*time.Hour {
		t.Errorf("ttl = %v", ms.ttls["lookbook:session:abc"])
	}

	got, err := s.Load(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID() != "abc" || got.LastQuery() != "네이비 코트" {
		t.Errorf("session = id %q last %q", got.ID(), got.LastQuery())
	}
	recent := got.Recent()
	if len(recent) != 2 || recent[0] != "네이비 코트" || recent[1] != "린넨 원피스" {
		t.Errorf("recent = %v", recent)
	}
}

func TestLoad_MissingIsFresh(t *testing.T) {
	s := New(newMemStore(), "lookbook:", time.Hour, zap.NewNop())
	got, err := s.Load(context.Background(), "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != "new" || len(got.Recent()) != 0 || got.LastQuery() != "" {
		t.Errorf("expected fresh session, got %+v", got)
	}
}

func TestLoad_CorruptIsFresh(t *testing.T) {
	ms := newMemStore()
	ms.data["lookbook:session:x"] = []byte("{not json")
	s := New(ms, "lookbook:", time.Hour, zap.NewNop())

	got, err := s.Load(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Recent()) != 0 {
		t.Errorf("expected fresh session, got recent %v", got.Recent())
	}
}

func TestLoad_OversizedLogIsBounded(t *testing.T) {
	ms := newMemStore()
	ms.data["lookbook:session:x"] = []byte(
		`{"recent":["a","b","a","c","d","e","f","g","h","i","j","k","l"],"last_query":"a"}`)
	s := New(ms, "lookbook:", time.Hour, zap.NewNop())

	got, err := s.Load(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent := got.Recent()
	if len(recent) != domsession.MaxRecentQueries {
		t.Fatalf("len(recent) = %d, want %d", len(recent), domsession.MaxRecentQueries)
	}
	if recent[0] != "a" || recent[1] != "b" {
		t.Errorf("recent = %v", recent)
	}
}

func TestLoad_StoreError(t *testing.T) {
	ms := newMemStore()
	ms.getErr = errors.New("connection refused")
	s := New(ms, "lookbook:", time.Hour, zap.NewNop())

	got, err := s.Load(context.Background(), "x")
	if !errors.Is(err, ms.getErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if got.ID() != "x" {
		t.Errorf("expected usable fresh session, got id %q", got.ID())
	}
}

func TestSave_StoreError(t *testing.T) {
	ms := newMemStore()
	ms.setErr = errors.New("readonly replica")
	s := New(ms, "lookbook:", time.Hour, zap.NewNop())
	if err := s.Save(context.Background(), domsession.New("x")); !errors.Is(err, ms.setErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
