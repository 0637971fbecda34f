package datastore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"boostbot/internal/models"
)

func CreateTableUserProfile(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserProfile)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table user_profile
			add if not exists chat_status varchar default null;
		alter table user_profile
			add if not exists last_final_balance double precision default null;`).Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserProfile)(nil)).Index("index_user_profile_chat_status").IfNotExists().Column("chat_status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserProfile(ctx context.Context, db bun.IDB, userID int64) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := db.NewSelect().Model(&profile).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func UpsertFreeBoostUsed(ctx context.Context, db bun.IDB, userID int64, used bool) error {
	profile := &models.UserProfile{
		UserID:        userID,
		Language:      models.LanguageEnglish,
		FreeBoostUsed: used,
		UpdatedAt:     time.Now(),
	}

	_, err := db.NewInsert().Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("free_boost_used = EXCLUDED.free_boost_used").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func UpsertLastFinalBalance(ctx context.Context, db bun.IDB, userID int64, balance float64) error {
	profile := &models.UserProfile{
		UserID:           userID,
		Language:         models.LanguageEnglish,
		LastFinalBalance: &balance,
		UpdatedAt:        time.Now(),
	}

	_, err := db.NewInsert().Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("last_final_balance = EXCLUDED.last_final_balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func UpsertChatStatus(ctx context.Context, db bun.IDB, userID int64, status string) error {
	_, err := upsertChatStatusQuery(db, userID, status).Exec(ctx)
	return err
}

func upsertChatStatusQuery(db bun.IDB, userID int64, status string) *bun.InsertQuery {
	profile := &models.UserProfile{
		UserID:     userID,
		Language:   models.LanguageEnglish,
		ChatStatus: &status,
		UpdatedAt:  time.Now(),
	}

	return db.NewInsert().Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("chat_status = EXCLUDED.chat_status").
		Set("updated_at = EXCLUDED.updated_at")
}

func UpdateUserProfileLanguage(ctx context.Context, db bun.IDB, userID int64, language string) error {
	profile := &models.UserProfile{
		UserID:    userID,
		Language:  language,
		UpdatedAt: time.Now(),
	}

	_, err := db.NewInsert().Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("language = EXCLUDED.language").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
