package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Store is the interface for session storage.
type Store interface {
	// Get returns the session, or ErrNotFound if it is missing or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// ===== Memory store =====

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates an empty store. Set extends a session's expiry
// by ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{sessions: make(map[string]*Session), ttl: ttl}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ExpiresAt = time.Now().Add(s.ttl)
	s.sessions[sess.ID] = sess
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ===== Cache store =====

// Record is the persisted form of a session. The tree and mapping are kept
// as text so a session survives the loss of its original sources.
type Record struct {
	ID           string           `json:"id"`
	Options      pipeline.Options `json:"options"`
	Newick       string           `json:"newick,omitempty"`
	TreeHash     string           `json:"tree_hash,omitempty"`
	Mapping      string           `json:"mapping,omitempty"`
	MetadataHash string           `json:"metadata_hash,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
}

// Record returns the persisted form of sess.
func (s *Session) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Record{
		ID:        s.ID,
		Options:   s.options,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if in := s.input; in != nil {
		r.Newick = in.Tree.Newick()
		r.TreeHash = in.TreeHash
		r.Mapping = in.MappingText
		r.MetadataHash = in.MetadataHash
	}
	return r
}

// Restore rebuilds a session from r and lays out its tree again.
func Restore(ctx context.Context, runner *pipeline.Runner, r Record) (*Session, error) {
	sess, err := New(runner, r.Options, time.Until(r.ExpiresAt))
	if err != nil {
		return nil, err
	}
	sess.ID, sess.CreatedAt, sess.ExpiresAt = r.ID, r.CreatedAt, r.ExpiresAt
	if r.Newick == "" {
		return sess, nil
	}

	t, err := tree.ParseString(r.Newick)
	if err != nil {
		return nil, err
	}
	in := &pipeline.Input{Tree: t, TreeHash: r.TreeHash}
	if r.Mapping != "" {
		table, err := metadata.Parse(strings.NewReader(r.Mapping))
		if err != nil {
			return nil, err
		}
		in.Table, in.MappingText, in.MetadataHash = table, r.Mapping, r.MetadataHash
	}
	if err := sess.Commit(ctx, sess.Begin(), in); err != nil {
		return nil, err
	}
	return sess, nil
}

// CacheStore persists sessions in a cache backend, so that several server
// instances sharing a redis cache see the same sessions.
type CacheStore struct {
	cache  cache.Cache
	runner *pipeline.Runner
	ttl    time.Duration
}

// NewCacheStore creates a store on c. Restored sessions render through
// runner.
func NewCacheStore(c cache.Cache, runner *pipeline.Runner, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheStore{cache: c, runner: runner, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

// Get implements Store.
func (s *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	data, ok, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCache, err, "read session %s", id)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		_ = s.cache.Delete(ctx, sessionKey(id))
		return nil, ErrNotFound
	}
	if time.Now().After(r.ExpiresAt) {
		_ = s.cache.Delete(ctx, sessionKey(id))
		return nil, ErrNotFound
	}
	return Restore(ctx, s.runner, r)
}

// Set implements Store.
func (s *CacheStore) Set(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = time.Now().Add(s.ttl)
	data, err := json.Marshal(sess.Record())
	if err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "encode session %s", sess.ID)
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), data, s.ttl); err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "write session %s", sess.ID)
	}
	return nil
}

// Delete implements Store.
func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKey(id))
}

// Cleanup implements Store. Expiry is left to the backend.
func (s *CacheStore) Cleanup(ctx context.Context) error { return nil }
