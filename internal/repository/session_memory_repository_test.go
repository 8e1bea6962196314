package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

func TestMemorySessionRepositoryLifecycle(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	staged := &models.StagedSession{ID: "s1", ClassID: "class-1", Snapshot: models.SessionSnapshot{AbsentIDs: []string{"e1"}}}
	require.NoError(t, repo.Save(ctx, staged, time.Minute))
	assert.Equal(t, int64(1), staged.Version)
	staged.Snapshot.AbsentIDs[0] = "mutated"

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, got.Snapshot.AbsentIDs)
	assert.Equal(t, int64(1), got.Version)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepositoryExpiry(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.StagedSession{ID: "s1"}, 20*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepositoryRejectsStaleVersion(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &models.StagedSession{ID: "s1"}, time.Minute))

	first, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "s1")
	require.NoError(t, err)

	first.Snapshot.Phase = models.PhaseConfirming
	require.NoError(t, repo.Save(ctx, first, time.Minute))
	assert.Equal(t, int64(2), first.Version)

	second.Snapshot.AbsentIDs = []string{"e1"}
	assert.ErrorIs(t, repo.Save(ctx, second, time.Minute), ErrVersionConflict)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseConfirming, got.Snapshot.Phase)
	assert.Empty(t, got.Snapshot.AbsentIDs)

	assert.ErrorIs(t, repo.Save(ctx, &models.StagedSession{ID: "s1"}, time.Minute), ErrVersionConflict)
	assert.ErrorIs(t, repo.Save(ctx, &models.StagedSession{ID: "gone", Version: 3}, time.Minute), ErrSessionNotFound)
}
