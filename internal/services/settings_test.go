package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoadBoostSettingsDefaults(t *testing.T) {
	settings, err := LoadBoostSettings(envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultBoostSettings(), settings)
	assert.Equal(t, 24*time.Hour, settings.Duration)
	assert.Equal(t, 1600*time.Second, settings.FineSweepPeriod)
	assert.Equal(t, 1800*time.Second, settings.CoarseSweepPeriod)
}

func TestLoadBoostSettingsOverrides(t *testing.T) {
	settings, err := LoadBoostSettings(envOf(map[string]string{
		"BOOST_DURATION":         "12h",
		"BOOST_INTERVAL":         "1800",
		"BOOST_RATE_MIN":         "0.01",
		"BOOST_RATE_MAX":         "0.02",
		"FINE_SWEEP_PERIOD":      "5m",
		"NOTIFY_RATE_PER_SECOND": "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, settings.Duration)
	assert.Equal(t, 30*time.Minute, settings.Interval)
	assert.Equal(t, 0.01, settings.RateMin)
	assert.Equal(t, 0.02, settings.RateMax)
	assert.Equal(t, 5*time.Minute, settings.FineSweepPeriod)
	assert.Equal(t, DEFAULT_COARSE_SWEEP_PERIOD, settings.CoarseSweepPeriod)
	assert.Equal(t, 10, settings.NotifyRatePerSecond)
}

func TestLoadBoostSettingsRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"garbage duration": {"BOOST_DURATION": "forever"},
		"garbage rate":     {"BOOST_RATE_MIN": "abc"},
		"inverted rates":   {"BOOST_RATE_MIN": "0.2", "BOOST_RATE_MAX": "0.1"},
		"zero interval":    {"BOOST_INTERVAL": "0"},
		"short duration":   {"BOOST_DURATION": "30m"},
		"zero notify rate": {"NOTIFY_RATE_PER_SECOND": "0"},
		"negative sweep":   {"FINE_SWEEP_PERIOD": "-5"},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBoostSettings(envOf(values))
			assert.Error(t, err)
		})
	}
}
