package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	key := "+1555" + time.Now().Format("150405")

	t.Run("Save and Load", func(t *testing.T) {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		s := domain.NewSession(now)
		s.Step = domain.StepAmount
		s.Set(domain.FieldCongregation, "Bais Shalom")
		s.Set(domain.FieldPersonName, "John Doe")
		s.Set(domain.FieldNote, "")
		s.EditingField = domain.FieldAmount

		require.NoError(t, store.Save(ctx, key, s, time.Hour), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.Step, loaded.Step)
		assert.Equal(t, s.Data, loaded.Data)
		assert.Equal(t, s.EditingField, loaded.EditingField)
		assert.True(t, s.LastMessageAt.Equal(loaded.LastMessageAt))
		assert.True(t, loaded.Has(domain.FieldNote), "an empty collected value must survive the round trip")
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		loaded.Set(domain.FieldTaxID, "12-3456789")

		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.False(t, again.Has(domain.FieldTaxID))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.NewSession(time.Now()), 0))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})
}

// RunJobIndexContract verifies a JobIndex implementation.
func RunJobIndexContract(t *testing.T, index JobIndex) {
	ctx := context.Background()
	key := "+1555" + time.Now().Format("150405")

	t.Run("Missing", func(t *testing.T) {
		_, err := index.GetJob(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})

	t.Run("Set Get Delete", func(t *testing.T) {
		require.NoError(t, index.SetJob(ctx, key, "job-1", time.Hour))
		id, err := index.GetJob(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "job-1", id)

		require.NoError(t, index.SetJob(ctx, key, "job-2", time.Hour))
		id, err = index.GetJob(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "job-2", id, "a new job replaces the previous one")

		require.NoError(t, index.DeleteJob(ctx, key))
		_, err = index.GetJob(ctx, key)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}
