package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"livescore-engine/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrAlreadySettled signals the anti-double-settlement guard fired: the
	// prediction already carries a terminal result.
	ErrAlreadySettled = errors.New("prediction already settled")

	// ErrConflictingLink signals an attempt to re-link a prediction to a
	// different match than the one it is already linked to.
	ErrConflictingLink = errors.New("prediction already linked to a different match")
)

// PredictionRepository owns the prediction ledger and its settlement
// lifecycle writes.
type PredictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create inserts a new prediction. Result defaults to PENDING.
func (r *PredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Result == "" {
		p.Result = models.ResultPending
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByID retrieves a prediction.
func (r *PredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	var p models.Prediction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LinkToMatch links a prediction to a match. Linking is monotonic and
// idempotent: re-linking to the same match is a no-op, re-linking to a
// different match returns ErrConflictingLink. The conditional write keeps
// concurrent linkers from interleaving.
func (r *PredictionRepository) LinkToMatch(ctx context.Context, id uuid.UUID, matchExternalID string) error {
	res := r.db.WithContext(ctx).Model(&models.Prediction{}).
		Where("id = ? AND (match_external_id IS NULL OR match_external_id = ?)", id, matchExternalID).
		Updates(map[string]interface{}{
			"match_external_id": matchExternalID,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row moved: either the prediction is unknown or it is linked
	// elsewhere. Distinguish the two for the caller.
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.MatchExternalID != nil && *p.MatchExternalID != matchExternalID {
		return ErrConflictingLink
	}
	return nil
}

// Settle commits a terminal result for a prediction, exactly once. The
// conditional PENDING -> terminal write acts as a compare-and-swap: of two
// concurrent settlement attempts, exactly one commits and the other gets
// ErrAlreadySettled. The audit row is written in the same transaction, so
// either the settlement and its trail both commit or the prediction stays
// PENDING for the next cycle.
func (r *PredictionRepository) Settle(ctx context.Context, id uuid.UUID, result models.PredictionResult, reason string) error {
	if result != models.ResultWon && result != models.ResultLost {
		return fmt.Errorf("invalid terminal result %q", result)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Prediction{}).
			Where("id = ? AND result = ?", id, models.ResultPending).
			Updates(map[string]interface{}{
				"result":        result,
				"result_reason": reason,
				"resulted_at":   now,
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		audit := models.SettlementAudit{
			ID:           uuid.New(),
			PredictionID: id,
			Result:       result,
			Reason:       reason,
		}
		return tx.Create(&audit).Error
	})
}

// ListPendingByMatch retrieves all unsettled predictions linked to a match.
func (r *PredictionRepository) ListPendingByMatch(ctx context.Context, matchExternalID string) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	err := r.db.WithContext(ctx).
		Where("match_external_id = ? AND result = ?", matchExternalID, models.ResultPending).
		Order("created_at ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// ListByMatch retrieves all predictions linked to a match.
func (r *PredictionRepository) ListByMatch(ctx context.Context, matchExternalID string) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	err := r.db.WithContext(ctx).
		Where("match_external_id = ?", matchExternalID).
		Order("created_at ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// ListAuditTrail retrieves the settlement audit rows for a prediction.
func (r *PredictionRepository) ListAuditTrail(ctx context.Context, predictionID uuid.UUID) ([]*models.SettlementAudit, error) {
	var audits []*models.SettlementAudit
	err := r.db.WithContext(ctx).
		Where("prediction_id = ?", predictionID).
		Order("created_at ASC").
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}
