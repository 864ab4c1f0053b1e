package models

import (
	"time"
)

type MatchStatus string

const (
	MatchStatusNotStarted      MatchStatus = "NOT_STARTED"
	MatchStatusFirstHalf       MatchStatus = "FIRST_HALF"
	MatchStatusHalfTime        MatchStatus = "HALF_TIME"
	MatchStatusSecondHalf      MatchStatus = "SECOND_HALF"
	MatchStatusOvertime        MatchStatus = "OVERTIME"
	MatchStatusPenaltyShootout MatchStatus = "PENALTY_SHOOTOUT"
	MatchStatusEnded           MatchStatus = "ENDED"
	MatchStatusPostponed       MatchStatus = "POSTPONED"
	MatchStatusCancelled       MatchStatus = "CANCELLED"
)

// statusRank orders the normal match lifecycle. Abnormal terminal states
// (POSTPONED, CANCELLED) are not ranked; they are only reachable from
// NOT_STARTED.
var statusRank = map[MatchStatus]int{
	MatchStatusNotStarted:      0,
	MatchStatusFirstHalf:       1,
	MatchStatusHalfTime:        2,
	MatchStatusSecondHalf:      3,
	MatchStatusOvertime:        4,
	MatchStatusPenaltyShootout: 5,
	MatchStatusEnded:           6,
}

// Rank returns the position of the status in the forward lifecycle, or -1
// for abnormal terminal states.
func (s MatchStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// IsLive reports whether the match is in play.
func (s MatchStatus) IsLive() bool {
	r := s.Rank()
	return r >= statusRank[MatchStatusFirstHalf] && r <= statusRank[MatchStatusPenaltyShootout]
}

// IsTerminal reports whether the status ends the match lifecycle.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusEnded || s == MatchStatusPostponed || s == MatchStatusCancelled
}

// SecondHalfOrLater reports whether the match has reached the second half.
func (s MatchStatus) SecondHalfOrLater() bool {
	return s.Rank() >= statusRank[MatchStatusSecondHalf]
}

// CanTransition reports whether a status change from -> to is legal.
// Status only moves forward through the lifecycle; ENDED is reachable from
// any state when the provider explicitly reports it, and POSTPONED/CANCELLED
// only from NOT_STARTED.
func CanTransition(from, to MatchStatus) bool {
	if from == to {
		return true
	}
	if to == MatchStatusEnded {
		return from != MatchStatusPostponed && from != MatchStatusCancelled
	}
	if to == MatchStatusPostponed || to == MatchStatusCancelled {
		return from == MatchStatusNotStarted
	}
	fromRank, toRank := from.Rank(), to.Rank()
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank > fromRank
}

// Match mirrors one external fixture. ExternalID is the only externally
// meaningful key; ID is a storage surrogate.
type Match struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ExternalID  string      `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Competition string      `gorm:"size:255" json:"competition,omitempty"`
	SeasonID    *string     `gorm:"size:64;index" json:"season_id,omitempty"`
	HomeTeam    string      `gorm:"size:255" json:"home_team"`
	AwayTeam    string      `gorm:"size:255" json:"away_team"`
	Status      MatchStatus `gorm:"size:32;not null;default:NOT_STARTED;index" json:"status"`
	Minute      *int        `json:"minute,omitempty"`
	HomeScore   int         `gorm:"not null;default:0" json:"home_score"`
	AwayScore   int         `gorm:"not null;default:0" json:"away_score"`

	// Half-time snapshot of the score, captured when the match reaches
	// HALF_TIME. Used to settle first-half goal lines after the half closed.
	HTHomeScore *int `json:"ht_home_score,omitempty"`
	HTAwayScore *int `json:"ht_away_score,omitempty"`

	// Kickoff anchors. ScheduledKickoff is immutable once set;
	// SecondHalfKickoff is only ever set once the match reached SECOND_HALF.
	ScheduledKickoff  *time.Time `json:"scheduled_kickoff,omitempty"`
	FirstHalfKickoff  *time.Time `json:"first_half_kickoff,omitempty"`
	SecondHalfKickoff *time.Time `json:"second_half_kickoff,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Match) TableName() string {
	return "matches"
}

// TotalGoals returns the current cumulative goal count.
func (m *Match) TotalGoals() int {
	return m.HomeScore + m.AwayScore
}

// HalfTimeTotal returns the goal count at the half-time boundary and whether
// that boundary snapshot is known.
func (m *Match) HalfTimeTotal() (int, bool) {
	if m.HTHomeScore == nil || m.HTAwayScore == nil {
		return 0, false
	}
	return *m.HTHomeScore + *m.HTAwayScore, true
}

// Standing mirrors one row of a season standings table.
type Standing struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SeasonID     string    `gorm:"size:64;not null;uniqueIndex:idx_standings_season_team" json:"season_id"`
	TeamName     string    `gorm:"size:255;not null;uniqueIndex:idx_standings_season_team" json:"team_name"`
	Position     int       `gorm:"not null" json:"position"`
	Played       int       `gorm:"not null;default:0" json:"played"`
	Wins         int       `gorm:"not null;default:0" json:"wins"`
	Draws        int       `gorm:"not null;default:0" json:"draws"`
	Losses       int       `gorm:"not null;default:0" json:"losses"`
	GoalsFor     int       `gorm:"not null;default:0" json:"goals_for"`
	GoalsAgainst int       `gorm:"not null;default:0" json:"goals_against"`
	Points       int       `gorm:"not null;default:0" json:"points"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Standing) TableName() string {
	return "standings"
}
