package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"livescore-engine/internal/models"
	"livescore-engine/internal/repository"

	"github.com/shopspring/decimal"
)

// SettlementService evaluates pending predictions against evolving match
// state and commits terminal outcomes exactly once. It only reads match
// state; the ledger's conditional write is what makes double settlement
// impossible.
type SettlementService struct {
	predictions *repository.PredictionRepository
	estimator   *MinuteEstimator
}

func NewSettlementService(predictions *repository.PredictionRepository, estimator *MinuteEstimator) *SettlementService {
	return &SettlementService{
		predictions: predictions,
		estimator:   estimator,
	}
}

// EvaluateMatch re-evaluates every pending prediction linked to the match.
// A failure on one prediction must not abort the rest.
func (s *SettlementService) EvaluateMatch(ctx context.Context, m *models.Match) error {
	pending, err := s.predictions.ListPendingByMatch(ctx, m.ExternalID)
	if err != nil {
		return fmt.Errorf("list pending predictions for %s: %w", m.ExternalID, err)
	}

	for _, p := range pending {
		if err := s.evaluate(ctx, m, p); err != nil {
			log.Printf("[Settlement] Error evaluating prediction %s on match %s: %v", p.ID, m.ExternalID, err)
			continue
		}
	}
	return nil
}

// evaluate decides whether one pending prediction is an instant win, an
// instant loss, settled by its period closing, or still pending.
func (s *SettlementService) evaluate(ctx context.Context, m *models.Match, p *models.Prediction) error {
	estimate, minuteKnown := s.estimator.Estimate(m)

	period := s.resolvePeriod(p.Period, m, estimate, minuteKnown)
	total, totalExact := s.periodTotal(m, period)
	closed := s.periodClosed(m, period, estimate, minuteKnown)

	lineBroken := decimal.NewFromInt(int64(total)).GreaterThan(p.Threshold)

	var result models.PredictionResult
	switch {
	case p.LineType == models.LineOver && lineBroken:
		// The line is already beaten regardless of what happens later.
		result = models.ResultWon
	case p.LineType == models.LineUnder && lineBroken:
		result = models.ResultLost
	case closed && p.LineType == models.LineOver:
		result = models.ResultLost
	case closed && p.LineType == models.LineUnder:
		result = models.ResultWon
	default:
		// Line intact and period still open.
		return nil
	}

	reason := s.buildReason(m, p, period, total, totalExact, estimate, minuteKnown)

	err := s.predictions.Settle(ctx, p.ID, result, reason)
	if errors.Is(err, repository.ErrAlreadySettled) {
		log.Printf("[Settlement] Prediction %s already settled, skipping duplicate write", p.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("settle prediction %s: %w", p.ID, err)
	}

	log.Printf("[Settlement] Prediction %s settled %s: %s", p.ID, result, reason)
	return nil
}

// resolvePeriod maps an AUTO period onto FIRST_HALF or FULL_MATCH based on
// the match minute at evaluation time. Once the match has passed the first
// half, AUTO always means FULL_MATCH so the period closes deterministically.
func (s *SettlementService) resolvePeriod(
	period models.PredictionPeriod,
	m *models.Match,
	estimate MinuteEstimate,
	minuteKnown bool,
) models.PredictionPeriod {
	if period != models.PeriodAuto {
		return period
	}
	if m.Status == models.MatchStatusFirstHalf || m.Status == models.MatchStatusHalfTime {
		if !minuteKnown || estimate.Minute <= halfTimeMinute {
			return models.PeriodFirstHalf
		}
	}
	return models.PeriodFullMatch
}

// periodTotal computes the goal count relevant to the resolved period. For a
// first-half line after the half closed it prefers the captured half-time
// snapshot; when the snapshot was missed during a provider gap, the current
// total is the documented best-effort stand-in (exact=false).
func (s *SettlementService) periodTotal(m *models.Match, period models.PredictionPeriod) (total int, exact bool) {
	if period != models.PeriodFirstHalf {
		return m.TotalGoals(), true
	}
	if ht, ok := m.HalfTimeTotal(); ok {
		return ht, true
	}
	if !m.Status.SecondHalfOrLater() {
		// Half still running (or at its boundary): the running total is
		// exactly the first-half total.
		return m.TotalGoals(), true
	}
	return m.TotalGoals(), false
}

// periodClosed reports whether the resolved period can no longer change the
// relevant goal count. First-half lines are force-closed at minute 45 or
// HALF_TIME, whichever is observed first.
func (s *SettlementService) periodClosed(
	m *models.Match,
	period models.PredictionPeriod,
	estimate MinuteEstimate,
	minuteKnown bool,
) bool {
	switch period {
	case models.PeriodFirstHalf:
		if m.Status.Rank() >= models.MatchStatusHalfTime.Rank() {
			return true
		}
		return m.Status == models.MatchStatusFirstHalf && minuteKnown && estimate.Minute >= halfTimeMinute
	case models.PeriodFullMatch:
		return m.Status == models.MatchStatusEnded
	default:
		return false
	}
}

// buildReason produces the human-readable audit line recorded with every
// settlement, e.g. "score 2-0, total 2 > line 1.5 (OVER FULL_MATCH) at minute 23".
func (s *SettlementService) buildReason(
	m *models.Match,
	p *models.Prediction,
	period models.PredictionPeriod,
	total int,
	totalExact bool,
	estimate MinuteEstimate,
	minuteKnown bool,
) string {
	comparison := "<="
	if decimal.NewFromInt(int64(total)).GreaterThan(p.Threshold) {
		comparison = ">"
	}

	at := fmt.Sprintf("status %s", m.Status)
	if minuteKnown {
		at = fmt.Sprintf("minute %d (%s)", estimate.Minute, estimate.Source)
	}

	reason := fmt.Sprintf("score %d-%d, total %d %s line %s (%s %s) at %s",
		m.HomeScore, m.AwayScore, total, comparison, p.Threshold.String(), p.LineType, period, at)
	if !totalExact {
		reason += "; half-time snapshot unavailable, total assumed from current score"
	}
	return reason
}
