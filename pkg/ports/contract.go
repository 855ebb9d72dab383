package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a
// SessionStore implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()

	t.Run("Create allocates unique ids", func(t *testing.T) {
		a, err := store.Create(ctx)
		require.NoError(t, err)
		b, err := store.Create(ctx)
		require.NoError(t, err)

		assert.NotEmpty(t, a.SessionID)
		assert.NotEqual(t, a.SessionID, b.SessionID)
		assert.Equal(t, domain.StatusCreated, a.Status)
		assert.Equal(t, domain.StepCreated, a.CurrentStep)
		assert.NotNil(t, a.Shareholders)
		assert.True(t, a.ExpiresAt.After(a.CreatedAt))
	})

	t.Run("Get missing session", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-session")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save and Get round trip", func(t *testing.T) {
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		sess.Status = domain.StatusInProgress
		sess.CurrentStep = domain.StepStateSelected
		sess.CompanyDetails = &domain.CompanyDetails{State: "DE"}
		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, loaded.Status)
		assert.Equal(t, domain.StepStateSelected, loaded.CurrentStep)
		require.NotNil(t, loaded.CompanyDetails)
		assert.Equal(t, "DE", loaded.CompanyDetails.State)
	})

	t.Run("Save refreshes UpdatedAt", func(t *testing.T) {
		sess, err := store.Create(ctx)
		require.NoError(t, err)
		created := sess.UpdatedAt

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.True(t, loaded.UpdatedAt.After(created), "UpdatedAt should move forward on save")
	})

	t.Run("Get isolates store state", func(t *testing.T) {
		sess, err := store.Create(ctx)
		require.NoError(t, err)
		sess.Shareholders = append(sess.Shareholders, domain.Shareholder{ID: "sh-1", Name: "A", OwnershipPercentage: 50})
		require.NoError(t, store.Save(ctx, sess))

		first, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		first.Shareholders[0].Name = "mutated"

		second, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "A", second.Shareholders[0].Name, "caller mutation must not leak into the store")
	})

	t.Run("Delete", func(t *testing.T) {
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		removed, err := store.Delete(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = store.Get(ctx, sess.SessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		removed, err = store.Delete(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("List includes saved sessions", func(t *testing.T) {
		sess, err := store.Create(ctx)
		require.NoError(t, err)

		all, err := store.List(ctx)
		require.NoError(t, err)

		var found bool
		for _, s := range all {
			if s.SessionID == sess.SessionID {
				found = true
			}
		}
		assert.True(t, found)
	})
}
