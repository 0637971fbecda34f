package handler

import (
	"errors"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"boostbot/internal/services"
)

func wrapBoostError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrBoostNotFound):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, services.ErrInvalidBoostInput):
		return errorx.Wrap(err, errorx.Validation)
	case errors.Is(err, services.ErrInvariantViolation), errors.Is(err, services.ErrStorage):
		return errorx.Wrap(err, errorx.Service)
	}
	return err
}

type groupBoost struct {
	container *do.Injector
}

func (gr *groupBoost) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	session, err := serviceBoost.UpdateBalanceOnDemand(ctx, user.ID)
	return httpx.RestAbort(c, session, wrapBoostError(err))
}

func (gr *groupBoost) Quote(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quote, err := serviceBoost.QuoteBoost(ctx, user.ID)
	return httpx.RestAbort(c, quote, wrapBoostError(err))
}

func (gr *groupBoost) Stop(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return stopAndNotify(c, gr.container, user.ID)
}

// logNotifyFailure reports a message that could not be delivered after the operation
// itself succeeded.
func logNotifyFailure(container *do.Injector, userID int64, what string, err error) {
	logger, lerr := do.Invoke[zerolog.Logger](container)
	if lerr != nil {
		return
	}
	logger.Warn().Err(err).Int64("user_id", userID).Msg(what + " failed")
}

func stopAndNotify(c echo.Context, container *do.Injector, userID int64) error {
	ctx := c.Request().Context()

	serviceBoost, err := do.Invoke[*services.ServiceBoost](container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	session, stopped, err := serviceBoost.StopBoost(ctx, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapBoostError(err))
	}

	if stopped {
		notifier, err := do.Invoke[*services.ServiceNotifier](container)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
		}
		// the stop itself succeeded, a failed confirmation is only reported
		if err := notifier.NotifyStopped(ctx, session); err != nil {
			logNotifyFailure(container, userID, "stop notice", err)
		}
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"stopped": stopped,
		"session": session,
	}, nil)
}
