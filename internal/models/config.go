package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Config is a key/value override row. Template overrides live under TEMPLATE_<KIND>_<LANG>.
type Config struct {
	bun.BaseModel `bun:"table:config"`
	Key           string    `bun:"key,pk" json:"key"`
	Value         string    `bun:"value,notnull" json:"value"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
