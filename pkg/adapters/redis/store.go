package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTTL is the session lifetime applied when none is configured.
const DefaultTTL = 24 * time.Hour

// Store implements ports.SessionStore using Redis. Sessions are stored as
// JSON values with a per-key TTL, plus a ZSET index scored by expiry so
// List and Cleanup can scan without KEYS.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the session lifetime applied at Create.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "charter:session:",
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Create allocates a unique ID and persists a fresh session.
func (s *Store) Create(ctx context.Context) (*domain.FormationSession, error) {
	sess := domain.NewSession(uuid.NewString(), s.now(), s.ttl)
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get retrieves the session from Redis.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.FormationSession, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sess domain.FormationSession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save refreshes UpdatedAt and overwrites unconditionally.
func (s *Store) Save(ctx context.Context, session *domain.FormationSession) error {
	session.UpdatedAt = s.now()
	return s.write(ctx, session)
}

func (s *Store) write(ctx context.Context, session *domain.FormationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Key TTL tracks the session's fixed expiry, never extended by saves.
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(session.SessionID), data, ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(session.ExpiresAt.Unix()),
		Member: session.SessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes the session, reporting whether a key was removed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	pipe := s.client.Pipeline()
	delCmd := pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return delCmd.Val() > 0, nil
}

// List returns all sessions still present in the index.
func (s *Store) List(ctx context.Context) ([]*domain.FormationSession, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.FormationSession, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err == domain.ErrSessionNotFound {
			// Key TTL fired before the index was pruned.
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Cleanup prunes expired sessions from the index and deletes their keys.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	now := s.now().Unix()

	expired, err := s.client.ZRangeByScore(ctx, s.indexKey(), &backend.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, id := range expired {
		pipe.Del(ctx, s.key(id))
	}
	pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%d", now))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to prune expired sessions: %w", err)
	}
	return len(expired), nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
