package handler

import (
	"errors"
	"strconv"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"boostbot/internal/models"
	"boostbot/internal/services"
)

type groupAdmin struct {
	container *do.Injector
}

type startBoostRequest struct {
	InitialBalance float64         `json:"initial_balance"`
	Platform       models.Platform `json:"platform"`
	Notify         bool            `json:"notify"`
}

func paramUserID(c echo.Context) (int64, error) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		return 0, errorx.Wrap(errors.New("invalid user id"), errorx.Validation)
	}
	return userID, nil
}

func (gr *groupAdmin) GetSession(c echo.Context) error {
	userID, err := paramUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	session, err := serviceBoost.GetUserSession(c.Request().Context(), userID)
	return httpx.RestAbort(c, session, wrapBoostError(err))
}

func (gr *groupAdmin) Start(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := paramUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req startBoostRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	session, err := serviceBoost.StartBoost(ctx, userID, req.InitialBalance, req.Platform)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapBoostError(err))
	}

	if req.Notify {
		notifier, err := do.Invoke[*services.ServiceNotifier](gr.container)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
		}
		if err := notifier.NotifyStarted(ctx, session); err != nil {
			logNotifyFailure(gr.container, userID, "start notice", err)
		}
	}

	return httpx.RestAbort(c, session, nil)
}

func (gr *groupAdmin) Stop(c echo.Context) error {
	userID, err := paramUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	return stopAndNotify(c, gr.container, userID)
}

func (gr *groupAdmin) Finalize(c echo.Context) error {
	userID, err := paramUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	sent, err := serviceBoost.FinalizeBoostAndNotify(c.Request().Context(), userID)
	if err != nil && !errors.Is(err, services.ErrRecipientUnreachable) {
		return httpx.RestAbort(c, nil, wrapBoostError(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"notified": sent,
	}, nil)
}

func (gr *groupAdmin) Sweep(c echo.Context) error {
	kind := services.SweepKind(c.Param("kind"))
	if kind != services.SweepFine && kind != services.SweepCoarse {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("unknown sweep"), errorx.Validation))
	}

	scheduler, err := do.Invoke[*services.ServiceScheduler](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, scheduler.Run(c.Request().Context(), kind), nil)
}
