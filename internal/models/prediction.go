package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PredictionPeriod string

const (
	PeriodFirstHalf PredictionPeriod = "FIRST_HALF"
	PeriodFullMatch PredictionPeriod = "FULL_MATCH"
	// PeriodAuto resolves to FIRST_HALF or FULL_MATCH based on the match
	// minute at evaluation time.
	PeriodAuto PredictionPeriod = "AUTO"
)

type LineType string

const (
	LineOver  LineType = "OVER"
	LineUnder LineType = "UNDER"
)

type PredictionResult string

const (
	ResultPending PredictionResult = "PENDING"
	ResultWon     PredictionResult = "WON"
	ResultLost    PredictionResult = "LOST"
)

// Prediction is one settleable goal-line claim about a match. It is created
// by an upstream process with result PENDING and owned by the settlement
// engine thereafter; result transitions PENDING -> WON|LOST exactly once.
type Prediction struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// MatchExternalID is nullable until the prediction is linked to a
	// match. Linking is monotonic: re-linking to the same match is a
	// no-op, re-linking to a different match is rejected.
	MatchExternalID *string `gorm:"size:64;index" json:"match_external_id,omitempty"`

	Period    PredictionPeriod `gorm:"size:32;not null;default:FULL_MATCH" json:"period"`
	LineType  LineType         `gorm:"size:16;not null" json:"line_type"`
	Threshold decimal.Decimal  `gorm:"type:decimal(6,2);not null" json:"threshold"`

	Result       PredictionResult `gorm:"size:16;not null;default:PENDING;index" json:"result"`
	ResultReason string           `gorm:"type:text" json:"result_reason,omitempty"`

	ScoreAtCreation  string     `gorm:"size:16" json:"score_at_creation,omitempty"`
	MinuteAtCreation *int       `json:"minute_at_creation,omitempty"`
	ResultedAt       *time.Time `json:"resulted_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}

// IsSettled reports whether the prediction reached a terminal result.
func (p *Prediction) IsSettled() bool {
	return p.Result != ResultPending
}

// SettlementAudit is an append-only trail of settlement writes.
type SettlementAudit struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	PredictionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"prediction_id"`
	Result       PredictionResult `gorm:"size:16;not null" json:"result"`
	Reason       string           `gorm:"type:text;not null" json:"reason"`
	CreatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SettlementAudit) TableName() string {
	return "settlement_audits"
}
