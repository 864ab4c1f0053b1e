package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminOverrideLog records every manual correction applied to a match
// through the store's override operation. Normal reconciliation writes never
// touch this table; it exists so corrections have one audited path.
type AdminOverrideLog struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MatchExternalID string    `gorm:"size:64;not null;index" json:"match_external_id"`
	Operator        string    `gorm:"size:255;not null" json:"operator"`
	Reason          string    `gorm:"type:text;not null" json:"reason"`
	PreviousStatus  string    `gorm:"size:32" json:"previous_status"`
	NewStatus       string    `gorm:"size:32" json:"new_status"`
	PreviousScore   string    `gorm:"size:16" json:"previous_score"`
	NewScore        string    `gorm:"size:16" json:"new_score"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AdminOverrideLog) TableName() string {
	return "admin_override_logs"
}
