package repository

import (
	"context"
	"fmt"
	"time"

	"livescore-engine/internal/feed"
	"livescore-engine/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository owns the relational mirror of match state.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetByExternalID retrieves a match by its provider id.
func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Upsert inserts the snapshot if the match is unknown, otherwise updates
// only the columns the snapshot actually provides. A sparse payload never
// erases previously known data, and applying the same snapshot twice
// produces the same stored state as applying it once. Insert races between
// concurrent pollers collapse into the update path via ON CONFLICT.
//
// Status is intentionally not part of the conflict update; status moves only
// through AdvanceStatus so the forward-only guard cannot be bypassed.
func (r *MatchRepository) Upsert(ctx context.Context, snap *feed.MatchSnapshot) (*models.Match, error) {
	if err := r.upsertTx(r.db.WithContext(ctx), snap); err != nil {
		return nil, err
	}
	return r.GetByExternalID(ctx, snap.ExternalID)
}

// UpsertBatch wraps N upserts in one transaction so a partial failure never
// leaves the store half-updated.
func (r *MatchRepository) UpsertBatch(ctx context.Context, snaps []*feed.MatchSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, snap := range snaps {
			if err := r.upsertTx(tx, snap); err != nil {
				return fmt.Errorf("upsert %s: %w", snap.ExternalID, err)
			}
		}
		return nil
	})
}

func (r *MatchRepository) upsertTx(tx *gorm.DB, snap *feed.MatchSnapshot) error {
	match := models.Match{
		ExternalID: snap.ExternalID,
		Status:     snap.Status,
	}
	if snap.HomeTeam != nil {
		match.HomeTeam = *snap.HomeTeam
	}
	if snap.AwayTeam != nil {
		match.AwayTeam = *snap.AwayTeam
	}
	if snap.Competition != nil {
		match.Competition = *snap.Competition
	}
	match.SeasonID = snap.SeasonID
	if snap.HomeScore != nil {
		match.HomeScore = *snap.HomeScore
	}
	if snap.AwayScore != nil {
		match.AwayScore = *snap.AwayScore
	}
	match.Minute = snap.Minute
	match.ScheduledKickoff = snap.ScheduledKickoff
	match.FirstHalfKickoff = snap.FirstHalfKickoff
	match.SecondHalfKickoff = snap.SecondHalfKickoff

	// Only columns present in the snapshot participate in the conflict
	// update; last known value wins over an absent field.
	assignments := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if snap.HomeTeam != nil {
		assignments["home_team"] = *snap.HomeTeam
	}
	if snap.AwayTeam != nil {
		assignments["away_team"] = *snap.AwayTeam
	}
	if snap.Competition != nil {
		assignments["competition"] = *snap.Competition
	}
	if snap.SeasonID != nil {
		assignments["season_id"] = *snap.SeasonID
	}
	if snap.HomeScore != nil {
		assignments["home_score"] = *snap.HomeScore
	}
	if snap.AwayScore != nil {
		assignments["away_score"] = *snap.AwayScore
	}
	if snap.Minute != nil {
		assignments["minute"] = *snap.Minute
	}
	if snap.FirstHalfKickoff != nil {
		assignments["first_half_kickoff"] = *snap.FirstHalfKickoff
	}
	if snap.SecondHalfKickoff != nil {
		assignments["second_half_kickoff"] = *snap.SecondHalfKickoff
	}
	if snap.ScheduledKickoff != nil {
		// Scheduled kickoff is immutable once set.
		assignments["scheduled_kickoff"] = gorm.Expr("COALESCE(matches.scheduled_kickoff, ?)", *snap.ScheduledKickoff)
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&match).Error
}

// AdvanceStatus moves a match from one status to another with a conditional
// write, so two pollers racing on the same match cannot interleave. Returns
// false when the stored status no longer matches the expected one.
func (r *MatchRepository) AdvanceStatus(ctx context.Context, externalID string, from, to models.MatchStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("external_id = ? AND status = ?", externalID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CaptureHalfTimeScore snapshots the current score into the half-time
// columns, only if they have not been captured yet.
func (r *MatchRepository) CaptureHalfTimeScore(ctx context.Context, externalID string) error {
	return r.db.WithContext(ctx).Model(&models.Match{}).
		Where("external_id = ? AND ht_home_score IS NULL", externalID).
		Updates(map[string]interface{}{
			"ht_home_score": gorm.Expr("home_score"),
			"ht_away_score": gorm.Expr("away_score"),
		}).Error
}

// SetFirstHalfKickoffIfNull backfills the first-half anchor without ever
// overwriting a known one.
func (r *MatchRepository) SetFirstHalfKickoffIfNull(ctx context.Context, externalID string, ts time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Match{}).
		Where("external_id = ? AND first_half_kickoff IS NULL", externalID).
		Update("first_half_kickoff", ts).Error
}

// SetSecondHalfKickoffIfNull backfills the second-half anchor without ever
// overwriting a known one.
func (r *MatchRepository) SetSecondHalfKickoffIfNull(ctx context.Context, externalID string, ts time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Match{}).
		Where("external_id = ? AND second_half_kickoff IS NULL", externalID).
		Update("second_half_kickoff", ts).Error
}

// ListLive retrieves all matches currently in play.
func (r *MatchRepository) ListLive(ctx context.Context) ([]*models.Match, error) {
	var matches []*models.Match
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.MatchStatus{
			models.MatchStatusFirstHalf,
			models.MatchStatusHalfTime,
			models.MatchStatusSecondHalf,
			models.MatchStatusOvertime,
			models.MatchStatusPenaltyShootout,
		}).
		Order("scheduled_kickoff ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ListOverdueNotStarted retrieves matches whose scheduled kickoff has passed
// but are still NOT_STARTED locally. Bulk live-list endpoints can lag at
// kickoff, so these fixtures get an escalated detail fetch.
func (r *MatchRepository) ListOverdueNotStarted(ctx context.Context, now time.Time) ([]*models.Match, error) {
	var matches []*models.Match
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_kickoff IS NOT NULL AND scheduled_kickoff < ?",
			models.MatchStatusNotStarted, now).
		Order("scheduled_kickoff ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// AdminOverride is the single audited path for manual corrections. It is
// distinct from reconciliation writes: it bypasses the forward-only guard
// and records who changed what and why.
func (r *MatchRepository) AdminOverride(
	ctx context.Context,
	externalID string,
	newStatus *models.MatchStatus,
	homeScore, awayScore *int,
	operator, reason string,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.Where("external_id = ?", externalID).First(&match).Error; err != nil {
			return fmt.Errorf("load match: %w", err)
		}

		logEntry := models.AdminOverrideLog{
			ID:              uuid.New(),
			MatchExternalID: externalID,
			Operator:        operator,
			Reason:          reason,
			PreviousStatus:  string(match.Status),
			PreviousScore:   fmt.Sprintf("%d-%d", match.HomeScore, match.AwayScore),
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if newStatus != nil {
			updates["status"] = *newStatus
			logEntry.NewStatus = string(*newStatus)
		} else {
			logEntry.NewStatus = string(match.Status)
		}
		newHome, newAway := match.HomeScore, match.AwayScore
		if homeScore != nil {
			updates["home_score"] = *homeScore
			newHome = *homeScore
		}
		if awayScore != nil {
			updates["away_score"] = *awayScore
			newAway = *awayScore
		}
		logEntry.NewScore = fmt.Sprintf("%d-%d", newHome, newAway)

		if err := tx.Model(&models.Match{}).Where("external_id = ?", externalID).Updates(updates).Error; err != nil {
			return fmt.Errorf("apply override: %w", err)
		}
		if err := tx.Create(&logEntry).Error; err != nil {
			return fmt.Errorf("write override log: %w", err)
		}
		return nil
	})
}
