package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"boostbot/internal/models"
)

func DefaultBoostSettings() models.BoostSettings {
	return models.BoostSettings{
		Duration:            DEFAULT_BOOST_DURATION,
		Interval:            DEFAULT_BOOST_INTERVAL,
		RateMin:             DEFAULT_BOOST_RATE_MIN,
		RateMax:             DEFAULT_BOOST_RATE_MAX,
		FineSweepPeriod:     DEFAULT_FINE_SWEEP_PERIOD,
		CoarseSweepPeriod:   DEFAULT_COARSE_SWEEP_PERIOD,
		NotifyRatePerSecond: DEFAULT_NOTIFY_RATE_PER_SECOND,
		LockExpiry:          DEFAULT_BOOST_LOCK_EXPIRY,
	}
}

// LoadBoostSettings reads the tunables through getenv. Durations accept Go syntax ("24h")
// or a plain number of seconds ("1600"); unset values keep their defaults.
func LoadBoostSettings(getenv func(string) string) (models.BoostSettings, error) {
	settings := DefaultBoostSettings()

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"BOOST_DURATION", &settings.Duration},
		{"BOOST_INTERVAL", &settings.Interval},
		{"FINE_SWEEP_PERIOD", &settings.FineSweepPeriod},
		{"COARSE_SWEEP_PERIOD", &settings.CoarseSweepPeriod},
		{"BOOST_LOCK_EXPIRY", &settings.LockExpiry},
	}
	for _, d := range durations {
		raw := strings.TrimSpace(getenv(d.key))
		if raw == "" {
			continue
		}
		v, err := parseDuration(raw)
		if err != nil {
			return settings, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.target = v
	}

	rates := []struct {
		key    string
		target *float64
	}{
		{"BOOST_RATE_MIN", &settings.RateMin},
		{"BOOST_RATE_MAX", &settings.RateMax},
	}
	for _, r := range rates {
		raw := strings.TrimSpace(getenv(r.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return settings, fmt.Errorf("%s: %w", r.key, err)
		}
		*r.target = v
	}

	if raw := strings.TrimSpace(getenv("NOTIFY_RATE_PER_SECOND")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return settings, fmt.Errorf("NOTIFY_RATE_PER_SECOND: %w", err)
		}
		settings.NotifyRatePerSecond = v
	}

	return settings, ValidateBoostSettings(settings)
}

func ValidateBoostSettings(settings models.BoostSettings) error {
	if settings.Interval <= 0 {
		return fmt.Errorf("boost interval must be positive")
	}
	if settings.Duration < settings.Interval {
		return fmt.Errorf("boost duration %s shorter than interval %s", settings.Duration, settings.Interval)
	}
	if settings.RateMin < 0 || settings.RateMax < settings.RateMin {
		return fmt.Errorf("invalid growth rate range [%v, %v]", settings.RateMin, settings.RateMax)
	}
	if settings.FineSweepPeriod <= 0 || settings.CoarseSweepPeriod <= 0 {
		return fmt.Errorf("sweep periods must be positive")
	}
	if settings.NotifyRatePerSecond <= 0 {
		return fmt.Errorf("notify rate must be positive")
	}
	if settings.LockExpiry <= 0 {
		return fmt.Errorf("lock expiry must be positive")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
