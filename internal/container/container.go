package container

import (
	"database/sql"
	"math/rand"
	"os"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	tele "gopkg.in/telebot.v3"

	"boostbot/internal/interfaces"
	"boostbot/internal/models"
	"boostbot/internal/pkg/caching"
	"boostbot/internal/pkg/limiter"
	"boostbot/internal/pkg/logger"
	"boostbot/internal/services"
)

const (
	localCacheSize = 1000
	localCacheTTL  = time.Minute
)

// NewContainer wires every service of the boost engine. vs holds the required environment
// variables, optional ones are read here with their defaults.
func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["API_MODE"] = os.Getenv("API_MODE")
	vs["API_ORIGINS"] = os.Getenv("API_ORIGINS")
	vs["ADMIN_API_KEY"] = os.Getenv("ADMIN_API_KEY")
	vs["LOG_LEVEL"] = os.Getenv("LOG_LEVEL")
	vs["IMAGES_DIR"] = os.Getenv("IMAGES_DIR")

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}
	if vs["IMAGES_DIR"] == "" {
		vs["IMAGES_DIR"] = "./images"
	}

	do.ProvideNamedValue(injector, "envs", vs)
	do.ProvideNamedValue(injector, "images-dir", vs["IMAGES_DIR"])

	do.Provide(injector, func(i *do.Injector) (zerolog.Logger, error) {
		return logger.New(vs["LOG_LEVEL"], vs["API_MODE"] == "debug"), nil
	})

	do.Provide(injector, func(i *do.Injector) (models.BoostSettings, error) {
		return services.LoadBoostSettings(os.Getenv)
	})

	do.Provide(injector, func(i *do.Injector) (services.RateSource, error) {
		return rand.New(rand.NewSource(time.Now().UnixNano())), nil
	})

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(vs["DB_DSN"]),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		if dsn == "" {
			return do.Invoke[*bun.DB](i)
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD_READONLY")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_BOOST", "REDIS_BOOST")
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE")
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_LIMITER", "REDIS_LIMITER")
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_MUTEX", "REDIS_MUTEX")
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, localCacheSize, localCacheTTL), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (*tele.Bot, error) {
		log := do.MustInvoke[zerolog.Logger](i)
		return tele.NewBot(tele.Settings{
			Token:  vs["BOT_TOKEN"],
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c tele.Context) {
				log.Error().Err(err).Msg("telegram bot")
			},
		})
	})

	do.Provide(injector, func(i *do.Injector) (*services.Authentication, error) {
		return services.NewAuthentication(vs["BOT_TOKEN"], vs["JWT_SECRET"])
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceConfig, error) {
		return services.NewServiceConfig(i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.ConfigReader, error) {
		return do.Invoke[*services.ServiceConfig](i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceProfile, error) {
		return services.NewServiceProfile(i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.ProfileStore, error) {
		return do.Invoke[*services.ServiceProfile](i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.TemplateProvider, error) {
		return services.NewServiceTemplate(i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.MediaResolver, error) {
		return services.NewServiceMedia(i)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Gateway, error) {
		return services.NewTelegramGateway(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceNotifier, error) {
		return services.NewServiceNotifier(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceBoost, error) {
		return services.NewServiceBoost(i)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceScheduler, error) {
		return services.NewServiceScheduler(i)
	})

	return injector
}

func newRedis(clusterKey, urlKey string) (redis.UniversalClient, error) {
	clusterURL := os.Getenv(clusterKey)
	if clusterURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv(urlKey),
	})
}
