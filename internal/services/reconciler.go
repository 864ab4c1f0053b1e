package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"livescore-engine/internal/feed"
	"livescore-engine/internal/models"
	"livescore-engine/internal/repository"

	"gorm.io/gorm"
)

// Reconciler diffs provider snapshots against the match store and applies
// only forward-safe updates. It is the sole writer of live match state
// during normal operation.
type Reconciler struct {
	feed       feed.Client
	matches    *repository.MatchRepository
	estimator  *MinuteEstimator
	settlement *SettlementService
	now        func() time.Time
}

func NewReconciler(
	feedClient feed.Client,
	matches *repository.MatchRepository,
	estimator *MinuteEstimator,
	settlement *SettlementService,
) *Reconciler {
	return &Reconciler{
		feed:       feedClient,
		matches:    matches,
		estimator:  estimator,
		settlement: settlement,
		now:        time.Now,
	}
}

// RunCycle performs one full poll cycle: ingest the live list, then escalate
// fixtures that should be live but are not showing up in it. A failure on
// one match never aborts the rest of the batch.
func (r *Reconciler) RunCycle(ctx context.Context) error {
	snapshots, err := r.feed.ListLiveMatches(ctx)
	if err != nil {
		return fmt.Errorf("list live matches: %w", err)
	}

	for i := range snapshots {
		if err := r.ProcessSnapshot(ctx, &snapshots[i]); err != nil {
			log.Printf("[Reconciler] Error processing match %s: %v", snapshots[i].ExternalID, err)
			continue
		}
	}

	r.escalateOverdue(ctx)
	return nil
}

// ProcessSnapshot applies one provider snapshot to the store: upsert of live
// fields, guarded status transition, kickoff anchoring, half-time capture,
// and a settlement pass when anything relevant changed.
func (r *Reconciler) ProcessSnapshot(ctx context.Context, snap *feed.MatchSnapshot) error {
	existing, err := r.matches.GetByExternalID(ctx, snap.ExternalID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load match: %w", err)
	}

	if existing != nil && !models.CanTransition(existing.Status, snap.Status) {
		// Provider glitch reporting an earlier state for an advanced
		// match. The whole snapshot is stale; reject it, never apply.
		log.Printf("[Reconciler] Rejected backward transition for %s: %s -> %s",
			snap.ExternalID, existing.Status, snap.Status)
		return nil
	}

	// Capture the half-time score before the merge when the snapshot jumps
	// past the break: the stored score is the last one observed during the
	// first half, which is the break score as far as we ever saw it. A match
	// first seen beyond half time has no trustworthy break score at all;
	// settlement then falls back to the current total and discloses it.
	if existing != nil && snap.Status.SecondHalfOrLater() &&
		(existing.Status == models.MatchStatusFirstHalf || existing.Status == models.MatchStatusHalfTime) {
		if err := r.matches.CaptureHalfTimeScore(ctx, snap.ExternalID); err != nil {
			log.Printf("[Reconciler] Error capturing half-time score for %s: %v", snap.ExternalID, err)
		}
	}

	match, err := r.matches.Upsert(ctx, snap)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	statusChanged := false
	if existing != nil && existing.Status != snap.Status {
		advanced, err := r.matches.AdvanceStatus(ctx, snap.ExternalID, existing.Status, snap.Status)
		if err != nil {
			return fmt.Errorf("advance status: %w", err)
		}
		if !advanced {
			// A concurrent poller moved the match first; the next cycle
			// reconverges on whichever state is further along.
			log.Printf("[Reconciler] Lost status race for %s (%s -> %s), skipping",
				snap.ExternalID, existing.Status, snap.Status)
			return nil
		}
		statusChanged = true
	}

	if err := r.anchorKickoffs(ctx, match, snap, existing); err != nil {
		log.Printf("[Reconciler] Error anchoring kickoffs for %s: %v", snap.ExternalID, err)
	}

	// While the match sits at the break the current score is the break
	// score, so capture is safe even on first observation.
	if snap.Status == models.MatchStatusHalfTime {
		if err := r.matches.CaptureHalfTimeScore(ctx, snap.ExternalID); err != nil {
			log.Printf("[Reconciler] Error capturing half-time score for %s: %v", snap.ExternalID, err)
		}
	}

	scoreChanged := existing == nil ||
		(snap.HomeScore != nil && *snap.HomeScore != existing.HomeScore) ||
		(snap.AwayScore != nil && *snap.AwayScore != existing.AwayScore)

	if statusChanged || scoreChanged {
		match, err = r.matches.GetByExternalID(ctx, snap.ExternalID)
		if err != nil {
			return fmt.Errorf("reload match: %w", err)
		}
		if err := r.settlement.EvaluateMatch(ctx, match); err != nil {
			return fmt.Errorf("settlement pass: %w", err)
		}
	}
	return nil
}

// anchorKickoffs records kickoff instants. Provider-reported anchors arrive
// through the upsert; this fills the gaps: the first time a match is
// observed in a half with no anchor for it, "now" is the best available
// kickoff instant. Fills never overwrite a known anchor.
func (r *Reconciler) anchorKickoffs(ctx context.Context, match *models.Match, snap *feed.MatchSnapshot, existing *models.Match) error {
	enteredFirstHalf := snap.Status == models.MatchStatusFirstHalf &&
		(existing == nil || existing.Status == models.MatchStatusNotStarted)
	if enteredFirstHalf && match.FirstHalfKickoff == nil && snap.FirstHalfKickoff == nil {
		if err := r.matches.SetFirstHalfKickoffIfNull(ctx, snap.ExternalID, r.now()); err != nil {
			return err
		}
	}

	enteredSecondHalf := snap.Status.SecondHalfOrLater() && snap.Status != models.MatchStatusEnded &&
		(existing == nil || !existing.Status.SecondHalfOrLater())
	if enteredSecondHalf && match.SecondHalfKickoff == nil && snap.SecondHalfKickoff == nil {
		if err := r.matches.SetSecondHalfKickoffIfNull(ctx, snap.ExternalID, r.now()); err != nil {
			return err
		}
	}
	return nil
}

// escalateOverdue fetches match detail directly for fixtures whose
// scheduled kickoff has passed while the store still says NOT_STARTED. The
// bulk live list can lag at kickoff; waiting for the next cycle would delay
// anchors and settlement.
func (r *Reconciler) escalateOverdue(ctx context.Context) {
	overdue, err := r.matches.ListOverdueNotStarted(ctx, r.now())
	if err != nil {
		log.Printf("[Reconciler] Error listing overdue fixtures: %v", err)
		return
	}

	for _, match := range overdue {
		snap, err := r.feed.GetMatchDetail(ctx, match.ExternalID)
		if errors.Is(err, feed.ErrMatchNotFound) {
			log.Printf("[Reconciler] Overdue fixture %s unknown to provider", match.ExternalID)
			continue
		}
		if err != nil {
			// Treated as "no update this cycle", never as a regression.
			log.Printf("[Reconciler] Error fetching detail for overdue %s: %v", match.ExternalID, err)
			continue
		}
		if err := r.ProcessSnapshot(ctx, snap); err != nil {
			log.Printf("[Reconciler] Error processing overdue %s: %v", match.ExternalID, err)
		}
	}
}

// BackfillAnchors restores missing kickoff anchors for matches that are
// already live or finished, typically after a process cold-start. Only
// NULL anchors are filled; a known anchor is never touched.
func (r *Reconciler) BackfillAnchors(ctx context.Context) error {
	live, err := r.matches.ListLive(ctx)
	if err != nil {
		return fmt.Errorf("list live matches: %w", err)
	}

	filled := 0
	for _, m := range live {
		if m.FirstHalfKickoff == nil {
			if anchor, ok := r.estimator.DeriveFirstHalfKickoff(m); ok {
				if err := r.matches.SetFirstHalfKickoffIfNull(ctx, m.ExternalID, anchor); err != nil {
					log.Printf("[Reconciler] Error backfilling first-half anchor for %s: %v", m.ExternalID, err)
					continue
				}
				filled++
			}
		}
		if m.Status.SecondHalfOrLater() && m.SecondHalfKickoff == nil {
			if anchor, ok := r.estimator.DeriveSecondHalfKickoff(m); ok {
				if err := r.matches.SetSecondHalfKickoffIfNull(ctx, m.ExternalID, anchor); err != nil {
					log.Printf("[Reconciler] Error backfilling second-half anchor for %s: %v", m.ExternalID, err)
					continue
				}
				filled++
			}
		}
	}

	if filled > 0 {
		log.Printf("[Reconciler] Backfilled %d kickoff anchors", filled)
	}
	return nil
}
