package redis_store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boostbot/internal/models"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func newSession(userID int64) *models.BoostSession {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.BoostSession{
		ID:             "session-1",
		UserID:         userID,
		IsActive:       true,
		StartTime:      start,
		EndTime:        start.Add(24 * time.Hour),
		LastUpdate:     start.Add(time.Hour),
		LastNotified:   start,
		StartBalance:   100,
		CurrentBalance: 113,
		BoostCount:     2,
		Platform:       models.PlatformBybit,
		FreeBoostUsed:  true,
	}
}

func TestSaveAndGetBoostSession(t *testing.T) {
	_, client := newMiniRedisClient(t)
	ctx := context.Background()

	_, err := SaveBoostSession(ctx, client, newSession(7))
	require.NoError(t, err)

	got, err := GetBoostSession(ctx, client, 7)
	require.NoError(t, err)

	want := newSession(7)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.CurrentBalance, got.CurrentBalance)
	assert.Equal(t, want.Platform, got.Platform)
	assert.Equal(t, want.BoostCount, got.BoostCount)
	assert.True(t, want.EndTime.Equal(got.EndTime))
	assert.True(t, want.LastUpdate.Equal(got.LastUpdate))
	assert.Nil(t, got.FinalBalance)
}

func TestGetBoostSessionMissing(t *testing.T) {
	_, client := newMiniRedisClient(t)

	_, err := GetBoostSession(context.Background(), client, 7)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestGetBoostSessionValidatesRecord(t *testing.T) {
	_, client := newMiniRedisClient(t)
	ctx := context.Background()

	broken := newSession(7)
	broken.CurrentBalance = 50
	_, err := SaveBoostSession(ctx, client, broken)
	require.NoError(t, err)

	_, err = GetBoostSession(ctx, client, 7)
	assert.ErrorIs(t, err, models.ErrInvalidBoostSession)
}

func TestListPendingBoostSessionUserIDs(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := SaveBoostSession(ctx, client, newSession(id))
		require.NoError(t, err)
	}
	_, err := SaveBoostSession(ctx, client, newSession(2))
	require.NoError(t, err)
	_, err = mr.SAdd("boost:sessions:pending", "garbage")
	require.NoError(t, err)

	ids, err := ListPendingBoostSessionUserIDs(ctx, client)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestSaveBoostSessionPrunesSettledSessions(t *testing.T) {
	_, client := newMiniRedisClient(t)
	ctx := context.Background()

	stopped := newSession(1)
	stopped.Finish(models.StopReasonManual)

	awaiting := newSession(2)
	awaiting.Finish(models.StopReasonExpired)

	notified := newSession(3)
	notified.Finish(models.StopReasonExpired)
	notified.FinishedNotified = true

	for _, id := range []int64{1, 2, 3} {
		_, err := SaveBoostSession(ctx, client, newSession(id))
		require.NoError(t, err)
	}
	for _, v := range []*models.BoostSession{stopped, awaiting, notified} {
		_, err := SaveBoostSession(ctx, client, v)
		require.NoError(t, err)
	}

	ids, err := ListPendingBoostSessionUserIDs(ctx, client)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2}, ids)

	got, err := GetBoostSession(ctx, client, 3)
	require.NoError(t, err)
	assert.True(t, got.FinishedNotified)
}

func TestSaveBoostSessionRequiresUser(t *testing.T) {
	_, client := newMiniRedisClient(t)

	_, err := SaveBoostSession(context.Background(), client, &models.BoostSession{})
	assert.Error(t, err)
}
