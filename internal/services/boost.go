package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/gojek/heimdall/v7"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"boostbot/internal/datastore/redis_store"
	"boostbot/internal/interfaces"
	"boostbot/internal/models"
	"boostbot/internal/pkg"
)

type ServiceBoost struct {
	container *do.Injector
	redisDB   redis.UniversalClient
	rs        *redsync.Redsync
	profiles  interfaces.ProfileStore
	notifier  *ServiceNotifier
	settings  models.BoostSettings
	accrual   *Accrual
	retrier   heimdall.Retriable
	logger    zerolog.Logger
	now       func() time.Time
}

func NewServiceBoost(container *do.Injector) (*ServiceBoost, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	profiles, err := do.Invoke[interfaces.ProfileStore](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[*ServiceNotifier](container)
	if err != nil {
		return nil, err
	}

	settings, err := do.Invoke[models.BoostSettings](container)
	if err != nil {
		return nil, err
	}

	rates, err := do.Invoke[RateSource](container)
	if err != nil {
		return nil, err
	}

	logger, err := do.Invoke[zerolog.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBoost{
		container: container,
		redisDB:   db,
		rs:        rs,
		profiles:  profiles,
		notifier:  notifier,
		settings:  settings,
		accrual:   NewAccrual(settings, rates),
		retrier:   newStorageRetrier(),
		logger:    logger.With().Str("service", "boost").Logger(),
		now:       time.Now,
	}, nil
}

func (service *ServiceBoost) Settings() models.BoostSettings {
	return service.settings
}

func (service *ServiceBoost) lock(ctx context.Context, userID int64) (*redsync.Mutex, error) {
	mutex := service.rs.NewMutex(LockKeyUserBoost(userID), redsync.WithExpiry(service.settings.LockExpiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, errorx.Wrap(ErrUserBoostLock, errorx.Invalid)
	}
	return mutex, nil
}

// load returns nil without error when the user has no session.
func (service *ServiceBoost) load(ctx context.Context, userID int64) (*models.BoostSession, error) {
	session, err := withStorageRetry(ctx, service.retrier, STORAGE_RETRY_ATTEMPT, func() (*models.BoostSession, error) {
		return redis_store.GetBoostSession(ctx, service.redisDB, userID)
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return session, err
}

func (service *ServiceBoost) save(ctx context.Context, session *models.BoostSession) error {
	_, err := withStorageRetry(ctx, service.retrier, STORAGE_RETRY_ATTEMPT, func() (*models.BoostSession, error) {
		return redis_store.SaveBoostSession(ctx, service.redisDB, session)
	})
	return err
}

// mutate runs fn on the stored session while holding the user lock and persists the
// record when fn reports a change. The returned session is a copy taken after fn.
func (service *ServiceBoost) mutate(ctx context.Context, userID int64, fn func(session *models.BoostSession) (bool, error)) (*models.BoostSession, error) {
	mutex, err := service.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.UnlockContext(ctx)

	session, err := service.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrBoostNotFound
	}

	dirty, err := fn(session)
	if err != nil {
		return nil, err
	}
	if dirty {
		if err := service.save(ctx, session); err != nil {
			return nil, err
		}
	}

	v := *session
	return &v, nil
}

func (service *ServiceBoost) withRemaining(session *models.BoostSession) *models.BoostSession {
	if session == nil {
		return nil
	}
	session.RemainingTime = pkg.RemainingTimeString(session.Remaining(service.now()))
	return session
}

func (service *ServiceBoost) StartBoost(ctx context.Context, userID int64, initialBalance float64, platform models.Platform) (*models.BoostSession, error) {
	if userID == 0 || math.IsNaN(initialBalance) || math.IsInf(initialBalance, 0) || initialBalance < 0 {
		return nil, ErrInvalidBoostInput
	}
	if !platform.Valid() {
		return nil, ErrInvalidBoostInput
	}

	mutex, err := service.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer mutex.UnlockContext(ctx)

	boostCount := 0
	previous, err := service.load(ctx, userID)
	switch {
	case errors.Is(err, ErrInvariantViolation):
		service.logger.Warn().Err(err).Int64("user_id", userID).Msg("overwriting invalid boost session")
	case err != nil:
		return nil, err
	case previous != nil:
		boostCount = previous.BoostCount
	}

	now := service.now()
	session := &models.BoostSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		IsActive:       true,
		StartTime:      now,
		EndTime:        now.Add(service.settings.Duration),
		LastUpdate:     now,
		LastNotified:   now,
		StartBalance:   initialBalance,
		CurrentBalance: initialBalance,
		BoostCount:     boostCount + 1,
		Platform:       platform,
		FreeBoostUsed:  true,
	}
	if err := service.save(ctx, session); err != nil {
		return nil, err
	}

	if err := service.profiles.SetFreeBoostUsed(ctx, userID, true); err != nil {
		service.logger.Error().Err(err).Int64("user_id", userID).Msg("mirror free boost flag")
	}

	service.logger.Info().
		Int64("user_id", userID).
		Str("session_id", session.ID).
		Str("platform", platform.String()).
		Float64("initial_balance", initialBalance).
		Int("boost_count", session.BoostCount).
		Msg("boost started")

	return service.withRemaining(session), nil
}

// StopBoost ends an active session on user request. The second result reports whether a
// session was actually stopped; missing and inactive sessions are a no-op.
func (service *ServiceBoost) StopBoost(ctx context.Context, userID int64) (*models.BoostSession, bool, error) {
	return service.deactivate(ctx, userID, models.StopReasonManual)
}

// DeactivateUnreachable ends the session of a user that can no longer receive messages.
func (service *ServiceBoost) DeactivateUnreachable(ctx context.Context, userID int64) (*models.BoostSession, bool, error) {
	return service.deactivate(ctx, userID, models.StopReasonUnreachable)
}

func (service *ServiceBoost) deactivate(ctx context.Context, userID int64, reason models.StopReason) (*models.BoostSession, bool, error) {
	stopped := false
	session, err := service.mutate(ctx, userID, func(session *models.BoostSession) (bool, error) {
		if !session.IsActive {
			return false, nil
		}
		service.accrual.Reconcile(session, service.now())
		session.Finish(reason)
		stopped = true
		return true, nil
	})
	if errors.Is(err, ErrBoostNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if stopped {
		service.mirrorFinal(ctx, session)
		service.logger.Info().
			Int64("user_id", userID).
			Str("session_id", session.ID).
			Str("reason", string(reason)).
			Float64("final_balance", *session.FinalBalance).
			Msg("boost stopped")
	}

	return service.withRemaining(session), stopped, nil
}

func (service *ServiceBoost) mirrorFinal(ctx context.Context, session *models.BoostSession) {
	if err := service.profiles.SetFreeBoostUsed(ctx, session.UserID, true); err != nil {
		service.logger.Error().Err(err).Int64("user_id", session.UserID).Msg("mirror free boost flag")
	}
	if session.FinalBalance == nil {
		return
	}
	if err := service.profiles.SetLastFinalBalance(ctx, session.UserID, *session.FinalBalance); err != nil {
		service.logger.Error().Err(err).Int64("user_id", session.UserID).Msg("mirror final balance")
	}
}

// FinalizeBoostAndNotify closes an expired session and sends its terminal message at most
// once. It reports whether the message was delivered by this call.
func (service *ServiceBoost) FinalizeBoostAndNotify(ctx context.Context, userID int64) (bool, error) {
	var claimed *models.BoostSession
	_, err := service.mutate(ctx, userID, func(session *models.BoostSession) (bool, error) {
		if session.FinishedNotified {
			return false, nil
		}
		if session.IsActive {
			service.accrual.Reconcile(session, service.now())
			session.Finish(models.StopReasonExpired)
		} else if session.StopReason != models.StopReasonExpired {
			return false, nil
		}
		session.FinishedNotified = true

		v := *session
		claimed = &v
		return true, nil
	})
	if errors.Is(err, ErrBoostNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if claimed == nil {
		return false, nil
	}

	service.mirrorFinal(ctx, claimed)

	logger := service.logger.With().Int64("user_id", userID).Str("session_id", claimed.ID).Logger()

	err = service.notifier.NotifyFinished(ctx, claimed)
	if err == nil {
		logger.Info().Float64("final_balance", *claimed.FinalBalance).Msg("boost finalized")
		return true, nil
	}

	if IsUnreachable(err) {
		logger.Warn().Err(err).Msg("finish notice undeliverable")
		return false, err
	}

	logger.Warn().Err(err).Msg("finish notice failed, releasing for retry")
	_, rerr := service.mutate(ctx, userID, func(session *models.BoostSession) (bool, error) {
		if session.ID != claimed.ID || !session.FinishedNotified {
			return false, nil
		}
		session.FinishedNotified = false
		return true, nil
	})
	if rerr != nil {
		logger.Error().Err(rerr).Msg("release finish notice")
	}
	return false, err
}

// GetUserSession returns the stored session without reconciling it.
func (service *ServiceBoost) GetUserSession(ctx context.Context, userID int64) (*models.BoostSession, error) {
	session, err := service.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrBoostNotFound
	}
	return service.withRemaining(session), nil
}

// UpdateBalanceOnDemand reconciles the session to now and returns it.
func (service *ServiceBoost) UpdateBalanceOnDemand(ctx context.Context, userID int64) (*models.BoostSession, error) {
	session, _, _, err := service.reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.withRemaining(session), nil
}

// reconcile returns the session after accrual, the balance before it and the number of
// intervals applied.
func (service *ServiceBoost) reconcile(ctx context.Context, userID int64) (*models.BoostSession, float64, int, error) {
	var (
		previous  float64
		intervals int
	)
	session, err := service.mutate(ctx, userID, func(session *models.BoostSession) (bool, error) {
		previous = session.CurrentBalance
		intervals = service.accrual.Reconcile(session, service.now())
		return intervals > 0, nil
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return session, previous, intervals, nil
}

// markNotified advances LastNotified by one interval unless another writer already moved it
// or the session was replaced.
func (service *ServiceBoost) markNotified(ctx context.Context, sent *models.BoostSession) error {
	_, err := service.mutate(ctx, sent.UserID, func(session *models.BoostSession) (bool, error) {
		if session.ID != sent.ID || !session.LastNotified.Equal(sent.LastNotified) {
			return false, nil
		}
		session.LastNotified = session.LastNotified.Add(service.settings.Interval)
		return true, nil
	})
	return err
}

// ListPendingUserIDs returns the users whose sessions the sweeps still have to visit.
func (service *ServiceBoost) ListPendingUserIDs(ctx context.Context) ([]int64, error) {
	return withStorageRetry(ctx, service.retrier, STORAGE_RETRY_ATTEMPT, func() ([]int64, error) {
		return redis_store.ListPendingBoostSessionUserIDs(ctx, service.redisDB)
	})
}

// QuoteBoost prices the next boost: free until the first one is used, then a base fee plus
// a share of the last final balance.
func (service *ServiceBoost) QuoteBoost(ctx context.Context, userID int64) (*models.BoostQuote, error) {
	profile, err := service.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := service.load(ctx, userID)
	if err != nil && !errors.Is(err, ErrInvariantViolation) {
		return nil, err
	}

	freeUsed := profile.FreeBoostUsed || (session != nil && session.BoostCount > 0)
	if !freeUsed {
		return &models.BoostQuote{FreeAvailable: true}, nil
	}

	last := 0.0
	switch {
	case session != nil && session.FinalBalance != nil:
		last = *session.FinalBalance
	case profile.LastFinalBalance != nil:
		last = *profile.LastFinalBalance
	}

	return &models.BoostQuote{
		LastFinalBalance: last,
		AmountToPay:      math.Round((PAID_BOOST_BASE_FEE+last*PAID_BOOST_FEE_SHARE)*100) / 100,
	}, nil
}
