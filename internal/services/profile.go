package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/do"
	"github.com/uptrace/bun"

	"boostbot/internal/datastore"
	"boostbot/internal/models"
	"boostbot/internal/pkg/caching"
)

type ServiceProfile struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
}

func NewServiceProfile(container *do.Injector) (*ServiceProfile, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceProfile{container, postgresDB, readonlyPostgresDB, cache}, nil
}

// GetProfile never fails for unknown users, they get a default english profile.
func (service *ServiceProfile) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	callback := func() (*models.UserProfile, error) {
		profile, err := datastore.FindUserProfile(ctx, service.readonlyPostgresDB, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserProfile{UserID: userID, Language: models.LanguageEnglish}, nil
		}
		return profile, err
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserProfile(userID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceProfile) SetFreeBoostUsed(ctx context.Context, userID int64, used bool) error {
	if err := datastore.UpsertFreeBoostUsed(ctx, service.postgresDB, userID, used); err != nil {
		return err
	}
	return service.cache.Delete(ctx, DBKeyUserProfile(userID))
}

func (service *ServiceProfile) SetLastFinalBalance(ctx context.Context, userID int64, balance float64) error {
	if err := datastore.UpsertLastFinalBalance(ctx, service.postgresDB, userID, balance); err != nil {
		return err
	}
	return service.cache.Delete(ctx, DBKeyUserProfile(userID))
}

func (service *ServiceProfile) SetChatStatus(ctx context.Context, userID int64, status string) error {
	if err := datastore.UpsertChatStatus(ctx, service.postgresDB, userID, status); err != nil {
		return err
	}
	return service.cache.Delete(ctx, DBKeyUserProfile(userID))
}

func (service *ServiceProfile) SetLanguage(ctx context.Context, userID int64, language string) error {
	if err := datastore.UpdateUserProfileLanguage(ctx, service.postgresDB, userID, NormalizeLanguage(language)); err != nil {
		return err
	}
	return service.cache.Delete(ctx, DBKeyUserProfile(userID))
}
