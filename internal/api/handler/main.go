package handler

import (
	"net/http"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"

	"boostbot/internal/interfaces"
	"boostbot/internal/services"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
	AdminKey  string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🚀")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		limiter, err := do.Invoke[interfaces.Limiter](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.GET("", Hello)

		routesAPIv1Auth := routesAPIv1.Group("/auth")
		routesAPIv1Auth.Use(Authn(authentication.ValidateInitData))
		{
			a := groupAuth{cfg.Container}
			routesAPIv1Auth.GET("/me", a.Me)
		}

		routesAPIv1Boost := routesAPIv1.Group("/boost/me")
		routesAPIv1Boost.Use(Authn(authentication.Validate))
		routesAPIv1Boost.Use(RateLimitUser(limiter, redis_rate.PerMinute(60)))
		{
			b := groupBoost{cfg.Container}
			routesAPIv1Boost.GET("", b.Me)
			routesAPIv1Boost.GET("/quote", b.Quote)
			routesAPIv1Boost.POST("/stop", b.Stop)
		}

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		routesAPIv1Admin.Use(AuthnAdmin(cfg.AdminKey))
		{
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.GET("/boost/:user_id", a.GetSession)
			routesAPIv1Admin.POST("/boost/:user_id/start", a.Start)
			routesAPIv1Admin.POST("/boost/:user_id/stop", a.Stop)
			routesAPIv1Admin.POST("/boost/:user_id/finalize", a.Finalize)
			routesAPIv1Admin.POST("/sweep/:kind", a.Sweep)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
