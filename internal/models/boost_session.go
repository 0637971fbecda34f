package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type Platform string

const (
	PlatformPocketOption Platform = "pocket_option"
	PlatformBinance      Platform = "binance"
	PlatformBybit        Platform = "bybit"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformPocketOption, PlatformBinance, PlatformBybit:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// StopReason records why a session left the active state. Empty while active.
type StopReason string

const (
	StopReasonNone        StopReason = ""
	StopReasonExpired     StopReason = "expired"
	StopReasonManual      StopReason = "manual"
	StopReasonUnreachable StopReason = "unreachable"
)

var ErrInvalidBoostSession = errors.New("invalid boost session")

type BoostSession struct {
	ID               string     `msgpack:"id" json:"id"`
	UserID           int64      `msgpack:"user_id" json:"user_id"`
	IsActive         bool       `msgpack:"is_active" json:"is_active"`
	StartTime        time.Time  `msgpack:"start_time" json:"start_time"`
	EndTime          time.Time  `msgpack:"end_time" json:"end_time"`
	LastUpdate       time.Time  `msgpack:"last_update" json:"last_update"`
	LastNotified     time.Time  `msgpack:"last_notified" json:"last_notified"`
	StartBalance     float64    `msgpack:"start_balance" json:"start_balance"`
	CurrentBalance   float64    `msgpack:"current_balance" json:"current_balance"`
	FinalBalance     *float64   `msgpack:"final_balance" json:"final_balance"`
	BoostCount       int        `msgpack:"boost_count" json:"boost_count"`
	Platform         Platform   `msgpack:"platform" json:"platform"`
	FinishedNotified bool       `msgpack:"finished_notified" json:"finished_notified"`
	FreeBoostUsed    bool       `msgpack:"free_boost_used" json:"free_boost_used"`
	StopReason       StopReason `msgpack:"stop_reason" json:"stop_reason"`

	RemainingTime string `msgpack:"-" json:"remaining_time,omitempty"`
}

func (s *BoostSession) Expired(now time.Time) bool {
	return !now.Before(s.EndTime)
}

// Remaining is the time left until EndTime, never negative.
func (s *BoostSession) Remaining(now time.Time) time.Duration {
	if s.Expired(now) {
		return 0
	}
	return s.EndTime.Sub(now)
}

// AwaitingFinishNotice reports a session that expired but whose terminal message
// has not been delivered yet.
func (s *BoostSession) AwaitingFinishNotice(now time.Time) bool {
	if s.FinishedNotified {
		return false
	}
	if s.IsActive {
		return s.Expired(now)
	}
	return s.StopReason == StopReasonExpired
}

// NeedsSweep reports a session the background sweeps still have work for: a running boost
// or an expired one whose terminal message is pending.
func (s *BoostSession) NeedsSweep() bool {
	if s.FinishedNotified {
		return false
	}
	return s.IsActive || s.StopReason == StopReasonExpired
}

func (s *BoostSession) Finish(reason StopReason) {
	final := s.CurrentBalance
	s.IsActive = false
	s.FinalBalance = &final
	s.StopReason = reason
}

// Validate checks the record invariants. It is applied to every record read from storage.
func (s *BoostSession) Validate() error {
	if s.UserID == 0 {
		return fmt.Errorf("%w: missing user id", ErrInvalidBoostSession)
	}
	if !s.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidBoostSession, s.Platform)
	}
	if s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("%w: end_time before start_time", ErrInvalidBoostSession)
	}
	if s.LastUpdate.Before(s.StartTime) || s.LastUpdate.After(s.EndTime) {
		return fmt.Errorf("%w: last_update outside session window", ErrInvalidBoostSession)
	}
	for _, v := range []float64{s.StartBalance, s.CurrentBalance} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: malformed balance", ErrInvalidBoostSession)
		}
	}
	if s.CurrentBalance < s.StartBalance {
		return fmt.Errorf("%w: current_balance below start_balance", ErrInvalidBoostSession)
	}
	if s.FinalBalance != nil && s.IsActive {
		return fmt.Errorf("%w: final_balance set on active session", ErrInvalidBoostSession)
	}
	return nil
}

// BoostSettings holds the engine tunables.
type BoostSettings struct {
	Duration            time.Duration
	Interval            time.Duration
	RateMin             float64
	RateMax             float64
	FineSweepPeriod     time.Duration
	CoarseSweepPeriod   time.Duration
	NotifyRatePerSecond int
	LockExpiry          time.Duration
}

type BoostQuote struct {
	FreeAvailable    bool    `json:"free_available"`
	LastFinalBalance float64 `json:"last_final_balance"`
	AmountToPay      float64 `json:"amount_to_pay"`
}

type SweepReport struct {
	Scanned    int `json:"scanned"`
	Reconciled int `json:"reconciled"`
	Notified   int `json:"notified"`
	Finalized  int `json:"finalized"`
	Failed     int `json:"failed"`
}
