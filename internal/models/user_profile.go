package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ChatStatusBlocked      = "blocked"
	ChatStatusChatNotFound = "chat_not_found"
	ChatStatusDeactivated  = "deactivated"

	LanguageEnglish   = "en"
	LanguageUkrainian = "uk"
)

type UserProfile struct {
	bun.BaseModel    `bun:"table:user_profile"`
	UserID           int64     `bun:"user_id,pk" json:"user_id"`
	Language         string    `bun:"language,default:'en'" json:"language"`
	FreeBoostUsed    bool      `bun:"free_boost_used,default:false" json:"free_boost_used"`
	LastFinalBalance *float64  `bun:"last_final_balance" json:"last_final_balance"`
	ChatStatus       *string   `bun:"chat_status" json:"chat_status"`
	CreatedAt        time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}
