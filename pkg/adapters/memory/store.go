package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/google/uuid"
)

// DefaultTTL is the session lifetime applied when none is configured.
const DefaultTTL = 24 * time.Hour

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.FormationSession
	mu   sync.RWMutex

	ttl time.Duration
	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the session lifetime applied at Create.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock injects a time source. Used by tests to cross expiry
// boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]*domain.FormationSession),
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a unique ID and persists a fresh session.
func (s *Store) Create(ctx context.Context) (*domain.FormationSession, error) {
	sess := domain.NewSession(uuid.NewString(), s.now(), s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.SessionID] = sess.Clone()
	return sess, nil
}

// Get retrieves a session by ID. Returns a copy so the caller cannot
// mutate store state directly by pointer.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.FormationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Save refreshes UpdatedAt and overwrites unconditionally.
func (s *Store) Save(ctx context.Context, session *domain.FormationSession) error {
	session.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.SessionID] = session.Clone()
	return nil
}

// Delete removes the session, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[sessionID]
	delete(s.data, sessionID)
	return ok, nil
}

// List returns copies of all sessions.
func (s *Store) List(ctx context.Context) ([]*domain.FormationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*domain.FormationSession, 0, len(s.data))
	for _, sess := range s.data {
		sessions = append(sessions, sess.Clone())
	}
	return sessions, nil
}

// Cleanup evicts sessions whose ExpiresAt has passed and returns the count
// removed.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, sess := range s.data {
		if sess.Expired(now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}
