package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"boostbot/internal/models"
)

const userID int64 = 4242

func TestStartBoost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformPocketOption)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.True(t, session.IsActive)
	assert.True(t, session.StartTime.Equal(t0))
	assert.True(t, session.EndTime.Equal(t0.Add(24*time.Hour)))
	assert.True(t, session.LastUpdate.Equal(t0))
	assert.True(t, session.LastNotified.Equal(t0))
	assert.Equal(t, 100.0, session.StartBalance)
	assert.Equal(t, 100.0, session.CurrentBalance)
	assert.Nil(t, session.FinalBalance)
	assert.Equal(t, 1, session.BoostCount)
	assert.False(t, session.FinishedNotified)
	assert.Equal(t, "1d 0h 0m", session.RemainingTime)

	profile, err := env.profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, profile.FreeBoostUsed)

	stored := env.session(t, userID)
	assert.Equal(t, session.ID, stored.ID)
}

func TestStartBoostOverwritesPreviousSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)

	env.clock.Advance(5 * time.Hour)
	_, err = env.boost.UpdateBalanceOnDemand(ctx, userID)
	require.NoError(t, err)
	_, _, err = env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)

	second, err := env.boost.StartBoost(ctx, userID, 50, models.PlatformBybit)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.BoostCount)
	assert.True(t, second.IsActive)
	assert.Equal(t, 50.0, second.CurrentBalance)
	assert.Equal(t, 50.0, second.StartBalance)
	assert.Nil(t, second.FinalBalance)
	assert.False(t, second.FinishedNotified)
	assert.Equal(t, models.StopReasonNone, second.StopReason)
	assert.True(t, second.StartTime.Equal(t0.Add(5*time.Hour)))
}

func TestStartBoostRejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		balance  float64
		platform models.Platform
	}{
		{"negative balance", -1, models.PlatformBinance},
		{"nan balance", math.NaN(), models.PlatformBinance},
		{"infinite balance", math.Inf(1), models.PlatformBinance},
		{"unknown platform", 100, models.Platform("kraken")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.boost.StartBoost(ctx, userID, tt.balance, tt.platform)
			assert.ErrorIs(t, err, ErrInvalidBoostInput)
		})
	}

	_, err := env.boost.GetUserSession(ctx, userID)
	assert.ErrorIs(t, err, ErrBoostNotFound)
}

func TestStartBoostAcceptsZeroBalance(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.boost.StartBoost(context.Background(), userID, 0, models.PlatformBinance)
	require.NoError(t, err)
	assert.Equal(t, 0.0, session.CurrentBalance)
}

func TestStopBoost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, stopped, err := env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Nil(t, session)

	_, err = env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(2*time.Hour + 10*time.Minute)

	session, stopped, err = env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)
	require.True(t, stopped)
	assert.False(t, session.IsActive)
	assert.Equal(t, models.StopReasonManual, session.StopReason)
	require.NotNil(t, session.FinalBalance)
	assert.InDelta(t, 100*1.13*1.13, *session.FinalBalance, 1e-6)
	assert.Equal(t, session.CurrentBalance, *session.FinalBalance)

	profile, err := env.profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, profile.FreeBoostUsed)
	require.NotNil(t, profile.LastFinalBalance)
	assert.Equal(t, *session.FinalBalance, *profile.LastFinalBalance)

	final := *session.FinalBalance
	env.clock.Advance(3 * time.Hour)

	again, stopped, err := env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Equal(t, final, *again.FinalBalance)
	assert.Equal(t, final, again.CurrentBalance)
}

func TestFinalizeBoostAndNotifyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(25 * time.Hour)

	sent, err := env.boost.FinalizeBoostAndNotify(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sent)

	session := env.session(t, userID)
	assert.False(t, session.IsActive)
	assert.True(t, session.FinishedNotified)
	assert.Equal(t, models.StopReasonExpired, session.StopReason)
	assert.True(t, session.LastUpdate.Equal(session.EndTime))
	require.NotNil(t, session.FinalBalance)
	assert.InDelta(t, 100*math.Pow(1.13, 24), *session.FinalBalance, 1e-6)

	sent, err = env.boost.FinalizeBoostAndNotify(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sent)

	assert.Len(t, env.gateway.messages(models.MessageBoostFinished), 1)
}

func TestFinalizeBoostAndNotifyReleasesOnTransientFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(25 * time.Hour)

	env.gateway.failWith(NewTransientError(errors.New("timeout")))
	sent, err := env.boost.FinalizeBoostAndNotify(ctx, userID)
	assert.False(t, sent)
	assert.ErrorIs(t, err, ErrDeliveryTransient)

	session := env.session(t, userID)
	assert.False(t, session.IsActive)
	assert.False(t, session.FinishedNotified)
	assert.Equal(t, models.StopReasonExpired, session.StopReason)
	assert.True(t, session.AwaitingFinishNotice(env.clock.Now()))
	final := *session.FinalBalance

	sent, err = env.boost.FinalizeBoostAndNotify(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sent)

	session = env.session(t, userID)
	assert.True(t, session.FinishedNotified)
	assert.Equal(t, final, *session.FinalBalance)
	assert.Len(t, env.gateway.messages(models.MessageBoostFinished), 1)
}

func TestFinalizeBoostAndNotifyUnreachableRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(25 * time.Hour)

	env.gateway.failWith(ClassifySendError(tele.ErrBlockedByUser))
	sent, err := env.boost.FinalizeBoostAndNotify(ctx, userID)
	assert.False(t, sent)
	assert.ErrorIs(t, err, ErrRecipientUnreachable)

	session := env.session(t, userID)
	assert.True(t, session.FinishedNotified)

	profile, err := env.profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, profile.ChatStatus)
	assert.Equal(t, models.ChatStatusBlocked, *profile.ChatStatus)

	sent, err = env.boost.FinalizeBoostAndNotify(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, env.gateway.messages(models.MessageBoostFinished))
}

func TestFinalizeBoostAndNotifySkipsManualStop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	_, _, err = env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)
	env.clock.Advance(25 * time.Hour)

	sent, err := env.boost.FinalizeBoostAndNotify(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, models.StopReasonManual, env.session(t, userID).StopReason)
	assert.Empty(t, env.gateway.messages(models.MessageBoostFinished))
}

func TestFinalizeBoostAndNotifyWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	sent, err := env.boost.FinalizeBoostAndNotify(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestUpdateBalanceOnDemand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(3*time.Hour + 20*time.Minute)

	session, err := env.boost.UpdateBalanceOnDemand(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 144.29, session.CurrentBalance, 0.01)
	assert.True(t, session.LastUpdate.Equal(t0.Add(3*time.Hour)))
	assert.Equal(t, "0d 20h 40m", session.RemainingTime)

	stored := env.session(t, userID)
	assert.Equal(t, session.CurrentBalance, stored.CurrentBalance)
}

func TestGetUserSessionDoesNotReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.boost.StartBoost(ctx, userID, 100, models.PlatformBinance)
	require.NoError(t, err)
	env.clock.Advance(5 * time.Hour)

	session := env.session(t, userID)
	assert.Equal(t, 100.0, session.CurrentBalance)
	assert.True(t, session.LastUpdate.Equal(t0))
}

func TestGetUserSessionRejectsInvalidRecord(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.mr.Set("boost:session:4242", "not msgpack"))

	_, err := env.boost.GetUserSession(context.Background(), userID)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestStartBoostReplacesInvalidRecord(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.mr.Set("boost:session:4242", "not msgpack"))

	session, err := env.boost.StartBoost(context.Background(), userID, 10, models.PlatformBybit)
	require.NoError(t, err)
	assert.Equal(t, 1, session.BoostCount)
	assert.Equal(t, session.ID, env.session(t, userID).ID)
}

func TestStorageFailureSurfaces(t *testing.T) {
	env := newTestEnv(t)
	env.mr.SetError("ERR backend unavailable")

	_, err := env.boost.GetUserSession(context.Background(), userID)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestQuoteBoost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quote, err := env.boost.QuoteBoost(ctx, userID)
	require.NoError(t, err)
	assert.True(t, quote.FreeAvailable)
	assert.Equal(t, 0.0, quote.AmountToPay)

	_, err = env.boost.StartBoost(ctx, userID, 200, models.PlatformBinance)
	require.NoError(t, err)
	_, _, err = env.boost.StopBoost(ctx, userID)
	require.NoError(t, err)

	quote, err = env.boost.QuoteBoost(ctx, userID)
	require.NoError(t, err)
	assert.False(t, quote.FreeAvailable)
	assert.Equal(t, 200.0, quote.LastFinalBalance)
	assert.Equal(t, 210.0, quote.AmountToPay)
}

func TestQuoteBoostFallsBackToProfileBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.profiles.SetFreeBoostUsed(ctx, userID, true))
	require.NoError(t, env.profiles.SetLastFinalBalance(ctx, userID, 1000))

	quote, err := env.boost.QuoteBoost(ctx, userID)
	require.NoError(t, err)
	assert.False(t, quote.FreeAvailable)
	assert.Equal(t, 450.0, quote.AmountToPay)
}
