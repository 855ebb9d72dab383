package ports

import (
	"context"

	"github.com/aretw0/charter/pkg/domain"
)

// SessionStore defines the interface for persisting formation sessions.
// The store is dumb persistence: it never validates business rules. All
// "not found" and "expired" interpretation happens one layer up, in the
// session loading gate shared by every handler.
type SessionStore interface {
	// Create allocates a new unique session ID and persists a fresh
	// session with the store's TTL. Always succeeds barring I/O failure.
	Create(ctx context.Context) (*domain.FormationSession, error)

	// Get retrieves a session by ID. It never mutates and returns
	// domain.ErrSessionNotFound if the session does not exist. Absence
	// is a normal, expected outcome.
	Get(ctx context.Context, sessionID string) (*domain.FormationSession, error)

	// Save refreshes UpdatedAt and persists by ID, overwriting any prior
	// value unconditionally (last write wins). Callers needing isolation
	// wrap handler bodies in the session lock manager.
	Save(ctx context.Context, session *domain.FormationSession) error

	// Delete removes the session. Returns true when a session was
	// actually removed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// List returns all persisted sessions. Debug/administrative.
	List(ctx context.Context) ([]*domain.FormationSession, error)

	// Cleanup evicts every session whose ExpiresAt is in the past and
	// returns the number removed. Intended to be invoked periodically by
	// a collaborator, not by the core itself.
	Cleanup(ctx context.Context) (int, error)
}
