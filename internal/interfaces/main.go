package interfaces

import (
	"context"

	"github.com/go-redis/redis_rate/v10"

	"boostbot/internal/models"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
	Wait(ctx context.Context, key string, limit redis_rate.Limit) error
}

// ProfileStore keeps per-user facts that outlive a boost session overwrite.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	SetFreeBoostUsed(ctx context.Context, userID int64, used bool) error
	SetLastFinalBalance(ctx context.Context, userID int64, balance float64) error
	SetChatStatus(ctx context.Context, userID int64, status string) error
}

// Gateway delivers messages to a user chat. Failures are reported as *services.DeliveryError.
type Gateway interface {
	SendText(ctx context.Context, userID int64, text string, buttons [][]models.Button) error
	SendPhoto(ctx context.Context, userID int64, photo models.Photo, caption string, buttons [][]models.Button) (string, error)
}

type TemplateProvider interface {
	Render(ctx context.Context, kind models.MessageKind, language string, fields map[string]string) (string, error)
}

// MediaResolver maps a message kind to the photo attached to it, if any.
type MediaResolver interface {
	Resolve(ctx context.Context, kind models.MessageKind) (*models.Photo, error)
	Remember(ctx context.Context, kind models.MessageKind, fileID string) error
}

type ConfigReader interface {
	GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error)
}
