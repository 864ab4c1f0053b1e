package services

import (
	"time"

	"livescore-engine/internal/config"
	"livescore-engine/internal/models"
)

// MinuteSource tags how a minute estimate was produced, so downstream
// consumers and audits know its confidence.
type MinuteSource string

const (
	// MinuteSourceProvider means the provider reported the minute directly.
	MinuteSourceProvider MinuteSource = "provider"
	// MinuteSourceSmart means the minute was computed from a known kickoff
	// anchor.
	MinuteSourceSmart MinuteSource = "smart"
	// MinuteSourceFallback means the minute was derived from a coarse
	// anchor (scheduled kickoff plus a configured offset) because no real
	// anchor was known.
	MinuteSourceFallback MinuteSource = "fallback"
)

// MinuteEstimate is a derived current minute with its confidence tag.
type MinuteEstimate struct {
	Minute int          `json:"minute"`
	Source MinuteSource `json:"source"`
}

const (
	firstHalfMinMinute  = 0
	firstHalfMaxMinute  = 50
	secondHalfMinMinute = 46
	secondHalfMaxMinute = 120
	halfTimeMinute      = 45
)

// MinuteEstimator derives a current minute for a live match and derives
// missing kickoff anchors after process restarts or provider gaps. The
// fallback offsets are configuration, not constants.
type MinuteEstimator struct {
	firstHalfStartOffset time.Duration
	secondHalfRegulation time.Duration
	now                  func() time.Time
}

func NewMinuteEstimator(cfg config.EstimatorConfig) *MinuteEstimator {
	return &MinuteEstimator{
		firstHalfStartOffset: cfg.FirstHalfStartOffset,
		secondHalfRegulation: cfg.SecondHalfRegulation,
		now:                  time.Now,
	}
}

// Estimate computes the current minute for a match. The second return value
// is false when no minute applies (not started, abnormal or ended fixtures
// with nothing derivable).
//
// Priority: HALF_TIME pins the minute at 45, then the provider-reported
// minute when it is consistent with the current half, then the known anchor
// for the current half, then coarse fallbacks from whatever anchor exists.
func (e *MinuteEstimator) Estimate(m *models.Match) (MinuteEstimate, bool) {
	switch {
	case m.Status == models.MatchStatusNotStarted,
		m.Status == models.MatchStatusPostponed,
		m.Status == models.MatchStatusCancelled,
		m.Status == models.MatchStatusEnded:
		return MinuteEstimate{}, false
	}

	if m.Status == models.MatchStatusHalfTime {
		return MinuteEstimate{Minute: halfTimeMinute, Source: MinuteSourceSmart}, true
	}

	// The stored minute survives sparse merges, so it can date from an
	// earlier half. Trust it only while it is consistent with the current
	// status; otherwise fall through to the anchors.
	if m.Minute != nil {
		minute := *m.Minute
		stale := (m.Status == models.MatchStatusFirstHalf && minute > firstHalfMaxMinute) ||
			(m.Status.SecondHalfOrLater() && minute < halfTimeMinute)
		if !stale {
			return MinuteEstimate{Minute: minute, Source: MinuteSourceProvider}, true
		}
	}

	now := e.now()

	if m.Status == models.MatchStatusFirstHalf {
		if m.FirstHalfKickoff != nil {
			minute := clamp(elapsedMinutes(now, *m.FirstHalfKickoff), firstHalfMinMinute, firstHalfMaxMinute)
			return MinuteEstimate{Minute: minute, Source: MinuteSourceSmart}, true
		}
		if anchor, ok := e.DeriveFirstHalfKickoff(m); ok {
			minute := clamp(elapsedMinutes(now, anchor), firstHalfMinMinute, firstHalfMaxMinute)
			return MinuteEstimate{Minute: minute, Source: MinuteSourceFallback}, true
		}
		return MinuteEstimate{}, false
	}

	// SECOND_HALF, OVERTIME or PENALTY_SHOOTOUT from here on.
	if m.SecondHalfKickoff != nil {
		minute := clamp(halfTimeMinute+elapsedMinutes(now, *m.SecondHalfKickoff), secondHalfMinMinute, secondHalfMaxMinute)
		return MinuteEstimate{Minute: minute, Source: MinuteSourceSmart}, true
	}
	if anchor, ok := e.DeriveSecondHalfKickoff(m); ok {
		minute := clamp(halfTimeMinute+elapsedMinutes(now, anchor), secondHalfMinMinute, secondHalfMaxMinute)
		return MinuteEstimate{Minute: minute, Source: MinuteSourceFallback}, true
	}
	return MinuteEstimate{}, false
}

// DeriveFirstHalfKickoff estimates the first-half kickoff instant from the
// scheduled kickoff. Used when the match is already live but the real anchor
// was never observed (typically right after a cold start).
func (e *MinuteEstimator) DeriveFirstHalfKickoff(m *models.Match) (time.Time, bool) {
	if m.ScheduledKickoff == nil {
		return time.Time{}, false
	}
	return m.ScheduledKickoff.Add(e.firstHalfStartOffset), true
}

// DeriveSecondHalfKickoff estimates the second-half kickoff instant from the
// first-half anchor, falling back further to the scheduled kickoff when even
// that anchor is missing.
func (e *MinuteEstimator) DeriveSecondHalfKickoff(m *models.Match) (time.Time, bool) {
	if m.FirstHalfKickoff != nil {
		return m.FirstHalfKickoff.Add(e.secondHalfRegulation), true
	}
	if m.ScheduledKickoff != nil {
		return m.ScheduledKickoff.Add(e.secondHalfRegulation), true
	}
	return time.Time{}, false
}

func elapsedMinutes(now, anchor time.Time) int {
	elapsed := now.Sub(anchor)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
