package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"boostbot/internal/models"
)

type SweepKind string

const (
	SweepFine   SweepKind = "fine"
	SweepCoarse SweepKind = "coarse"
)

// ServiceScheduler runs the periodic reconciliation passes over all stored sessions.
type ServiceScheduler struct {
	container *do.Injector
	boost     *ServiceBoost
	notifier  *ServiceNotifier
	settings  models.BoostSettings
	logger    zerolog.Logger
}

func NewServiceScheduler(container *do.Injector) (*ServiceScheduler, error) {
	boost, err := do.Invoke[*ServiceBoost](container)
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

	logger, err := do.Invoke[zerolog.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceScheduler{
		container: container,
		boost:     boost,
		notifier:  notifier,
		settings:  settings,
		logger:    logger.With().Str("service", "scheduler").Logger(),
	}, nil
}

// Register adds both sweeps to c. Overlapping runs of the same sweep are skipped.
func (service *ServiceScheduler) Register(ctx context.Context, c *cron.Cron) error {
	cronLogger := cron.PrintfLogger(&service.logger)
	chain := cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))

	jobs := []struct {
		kind   SweepKind
		period time.Duration
	}{
		{SweepFine, service.settings.FineSweepPeriod},
		{SweepCoarse, service.settings.CoarseSweepPeriod},
	}
	for _, job := range jobs {
		kind := job.kind
		c.Schedule(cron.Every(job.period), chain.Then(cron.FuncJob(func() {
			service.Run(ctx, kind)
		})))
		service.logger.Info().Str("sweep", string(kind)).Dur("period", job.period).Msg("sweep scheduled")
	}
	return nil
}

func (service *ServiceScheduler) Run(ctx context.Context, kind SweepKind) models.SweepReport {
	start := time.Now()

	var report models.SweepReport
	switch kind {
	case SweepCoarse:
		report = service.CoarseSweep(ctx)
	default:
		report = service.FineSweep(ctx)
	}

	service.logger.Info().
		Str("sweep", string(kind)).
		Int("scanned", report.Scanned).
		Int("reconciled", report.Reconciled).
		Int("notified", report.Notified).
		Int("finalized", report.Finalized).
		Int("failed", report.Failed).
		Dur("took", time.Since(start)).
		Msg("sweep done")
	return report
}

// FineSweep reconciles every running session, finalizes expired ones and sends throttled
// progress notices.
func (service *ServiceScheduler) FineSweep(ctx context.Context) models.SweepReport {
	var report models.SweepReport
	service.each(ctx, &report, func(session *models.BoostSession) error {
		if !session.IsActive || session.FinishedNotified {
			return nil
		}
		report.Scanned++
		return service.fine(ctx, session.UserID, &report)
	})
	return report
}

func (service *ServiceScheduler) fine(ctx context.Context, userID int64, report *models.SweepReport) error {
	session, previous, intervals, err := service.boost.reconcile(ctx, userID)
	if err != nil {
		return err
	}
	if intervals > 0 {
		report.Reconciled++
	}
	if !session.IsActive || session.FinishedNotified {
		return nil
	}

	now := service.boost.now()
	if session.Expired(now) {
		sent, err := service.boost.FinalizeBoostAndNotify(ctx, userID)
		if sent {
			report.Finalized++
		}
		return err
	}

	if !ShouldNotifyProgress(session, previous, now, service.settings.Interval) {
		return nil
	}

	err = service.notifier.NotifyProgress(ctx, session)
	if IsUnreachable(err) {
		if _, _, derr := service.boost.DeactivateUnreachable(ctx, userID); derr != nil {
			return derr
		}
		return err
	}
	if err != nil {
		return err
	}

	report.Notified++
	return service.boost.markNotified(ctx, session)
}

// CoarseSweep finalizes sessions past their end time, including finalized sessions whose
// terminal message still has to go out.
func (service *ServiceScheduler) CoarseSweep(ctx context.Context) models.SweepReport {
	var report models.SweepReport
	service.each(ctx, &report, func(session *models.BoostSession) error {
		if !session.AwaitingFinishNotice(service.boost.now()) {
			return nil
		}
		report.Scanned++

		sent, err := service.boost.FinalizeBoostAndNotify(ctx, session.UserID)
		if sent {
			report.Finalized++
		}
		return err
	})
	return report
}

// each loads every pending session and hands it to fn. Errors are counted and logged per
// user and never stop the pass.
func (service *ServiceScheduler) each(ctx context.Context, report *models.SweepReport, fn func(session *models.BoostSession) error) {
	userIDs, err := service.boost.ListPendingUserIDs(ctx)
	if err != nil {
		service.logger.Error().Err(err).Msg("list boost sessions")
		report.Failed++
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}

		session, err := service.boost.load(ctx, userID)
		if err == nil && session != nil {
			err = fn(session)
		}
		if err != nil {
			report.Failed++
			service.logger.Warn().Err(err).Int64("user_id", userID).Msg("sweep user")
		}
	}
}
