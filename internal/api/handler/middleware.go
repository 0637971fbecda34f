package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"

	"boostbot/internal/api"
	"boostbot/internal/models"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

func bearer(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	parts := strings.Split(header, "Bearer")
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authn resolves the user from a bearer credential. Unauthenticated requests are rejected.
func Authn(verify func(credential string) (*models.UserFromAuth, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearer(c)
			if token == "" {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("missing access token"), errorx.Authn), -1)
				return nil
			}

			user, err := verify(token)
			if err != nil {
				// although it's a client error, we don't want to detailed information
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidUser(ctx context.Context) (*models.UserFromAuth, error) {
	userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return userAuth, nil
}

// AuthnAdmin checks the X-Api-Key header against key. An empty key disables the routes.
func AuthnAdmin(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("X-Api-Key")
			if key == "" || header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(key)) != 1 {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}
			return next(c)
		}
	}
}

// RateLimitUser throttles authenticated requests per user.
func RateLimitUser(limiter api.Limiter, limit redis_rate.Limit) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := ResolveValidUser(c.Request().Context())
			if err != nil {
				return next(c)
			}

			key := fmt.Sprintf("limit:api:user:%d", user.ID)
			if err := limiter.Allow(c.Request().Context(), key, limit); err != nil {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(err, errorx.RateLimiting), -1)
				return nil
			}
			return next(c)
		}
	}
}
