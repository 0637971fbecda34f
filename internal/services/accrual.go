package services

import (
	"sync"
	"time"

	"boostbot/internal/models"
)

// RateSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RateSource interface {
	Float64() float64
}

// Accrual advances a session balance by whole intervals.
type Accrual struct {
	interval time.Duration
	rateMin  float64
	rateMax  float64

	mu    sync.Mutex
	rates RateSource
}

func NewAccrual(settings models.BoostSettings, rates RateSource) *Accrual {
	return &Accrual{
		interval: settings.Interval,
		rateMin:  settings.RateMin,
		rateMax:  settings.RateMax,
		rates:    rates,
	}
}

// Reconcile applies every whole interval elapsed between LastUpdate and min(now, EndTime)
// and returns how many were applied. LastUpdate moves by exactly intervals*interval so the
// remainder carries over to the next call. Inactive sessions and negative elapsed time are
// left untouched.
func (a *Accrual) Reconcile(session *models.BoostSession, now time.Time) int {
	if session == nil || !session.IsActive || a.interval <= 0 {
		return 0
	}

	effective := now
	if session.EndTime.Before(effective) {
		effective = session.EndTime
	}

	elapsed := effective.Sub(session.LastUpdate)
	if elapsed < a.interval {
		return 0
	}
	intervals := int(elapsed / a.interval)

	a.mu.Lock()
	balance := session.CurrentBalance
	for i := 0; i < intervals; i++ {
		balance *= 1 + a.rate()
	}
	a.mu.Unlock()

	session.CurrentBalance = balance
	session.LastUpdate = session.LastUpdate.Add(time.Duration(intervals) * a.interval)
	return intervals
}

func (a *Accrual) rate() float64 {
	return a.rateMin + a.rates.Float64()*(a.rateMax-a.rateMin)
}

// ShouldNotifyProgress is the progress throttle: a full interval since the last notice
// and a balance that actually moved.
func ShouldNotifyProgress(session *models.BoostSession, previousBalance float64, now time.Time, interval time.Duration) bool {
	if session == nil || !session.IsActive || session.FinishedNotified {
		return false
	}
	if now.Sub(session.LastNotified) < interval {
		return false
	}
	diff := session.CurrentBalance - previousBalance
	if diff < 0 {
		diff = -diff
	}
	return diff > BALANCE_EPSILON
}
