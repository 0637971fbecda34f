package services

import (
	"fmt"
	"time"
)

const (
	DEFAULT_BOOST_DURATION         = 24 * time.Hour
	DEFAULT_BOOST_INTERVAL         = time.Hour
	DEFAULT_BOOST_RATE_MIN         = 0.12
	DEFAULT_BOOST_RATE_MAX         = 0.15
	DEFAULT_FINE_SWEEP_PERIOD      = 1600 * time.Second
	DEFAULT_COARSE_SWEEP_PERIOD    = 1800 * time.Second
	DEFAULT_NOTIFY_RATE_PER_SECOND = 25
	DEFAULT_BOOST_LOCK_EXPIRY      = 30 * time.Second

	BALANCE_EPSILON = 1e-6

	PAID_BOOST_BASE_FEE   = 150.0
	PAID_BOOST_FEE_SHARE  = 0.30
	STORAGE_RETRY_ATTEMPT = 3

	CACHE_TTL_5_MINS = 5 * time.Minute
	CACHE_TTL_7_DAYS = 7 * 24 * time.Hour

	CONFIG_TEMPLATE_PREFIX = "TEMPLATE_"

	LIMIT_KEY_GATEWAY = "limit:gateway:send"
)

func LockKeyUserBoost(userID int64) string {
	return fmt.Sprintf("lock:user-boost:%d", userID)
}

func DBKeyUserProfile(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", key)
}

func DBKeyMediaFileID(name string) string {
	return fmt.Sprintf("media:file_id:%s", name)
}
