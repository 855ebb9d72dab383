package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/charter/pkg/adapters/memory"
	"github.com/aretw0/charter/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	ctx := context.Background()

	current := time.Now()
	store := memory.NewStore(
		memory.WithTTL(time.Hour),
		memory.WithClock(func() time.Time { return current }),
	)

	live, err := store.Create(ctx)
	require.NoError(t, err)

	// Move past the first session's expiry, then create a second one
	// that is still alive at the new clock position.
	current = current.Add(2 * time.Hour)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	removed, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, live.SessionID)
	assert.Error(t, err)

	_, err = store.Get(ctx, fresh.SessionID)
	assert.NoError(t, err)
}

func TestMemoryStore_ExpiryIsInclusive(t *testing.T) {
	ctx := context.Background()

	current := time.Now()
	store := memory.NewStore(
		memory.WithTTL(time.Hour),
		memory.WithClock(func() time.Time { return current }),
	)

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	// One unit before expiry the session is alive.
	assert.False(t, sess.Expired(sess.ExpiresAt.Add(-time.Nanosecond)))
	// Exactly at expiry it is dead.
	assert.True(t, sess.Expired(sess.ExpiresAt))
	assert.True(t, sess.Expired(sess.ExpiresAt.Add(time.Minute)))

	// Cleanup honors the same boundary.
	current = sess.ExpiresAt
	removed, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
