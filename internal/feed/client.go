package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"livescore-engine/internal/models"
)

// ErrMatchNotFound is returned when the provider does not know the fixture.
var ErrMatchNotFound = errors.New("feed: match not found")

// MatchSnapshot is one normalized point-in-time read of a match from the
// provider. Optional fields are pointers; an absent field means "unknown
// this poll", never zero.
type MatchSnapshot struct {
	ExternalID string
	Status     models.MatchStatus

	HomeTeam    *string
	AwayTeam    *string
	Competition *string
	SeasonID    *string

	HomeScore *int
	AwayScore *int
	Minute    *int

	ScheduledKickoff  *time.Time
	FirstHalfKickoff  *time.Time
	SecondHalfKickoff *time.Time
}

// StandingRow is one normalized row of a season standings table.
type StandingRow struct {
	SeasonID     string
	TeamName     string
	Position     int
	Played       int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

// Client is the contract the engine requires from the external feed.
// Implementations normalize the provider's loose payloads at this boundary;
// the core only ever sees MatchSnapshot and StandingRow.
type Client interface {
	ListLiveMatches(ctx context.Context) ([]MatchSnapshot, error)
	GetMatchDetail(ctx context.Context, externalID string) (*MatchSnapshot, error)
	GetSeasonStandings(ctx context.Context, seasonID string) ([]StandingRow, error)
}

// providerStatusMap maps the provider's status codes onto the local enum.
var providerStatusMap = map[string]models.MatchStatus{
	"NS":     models.MatchStatusNotStarted,
	"1H":     models.MatchStatusFirstHalf,
	"HT":     models.MatchStatusHalfTime,
	"2H":     models.MatchStatusSecondHalf,
	"ET":     models.MatchStatusOvertime,
	"OT":     models.MatchStatusOvertime,
	"P":      models.MatchStatusPenaltyShootout,
	"PEN":    models.MatchStatusPenaltyShootout,
	"FT":     models.MatchStatusEnded,
	"AET":    models.MatchStatusEnded,
	"FT_PEN": models.MatchStatusEnded,
	"POSTP":  models.MatchStatusPostponed,
	"CANC":   models.MatchStatusCancelled,
}

// MapProviderStatus converts a provider status code to the local enum.
func MapProviderStatus(code string) (models.MatchStatus, error) {
	status, ok := providerStatusMap[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", fmt.Errorf("feed: unknown provider status code %q", code)
	}
	return status, nil
}
