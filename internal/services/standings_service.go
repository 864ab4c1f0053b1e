package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"livescore-engine/internal/feed"
	"livescore-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StandingsService keeps the season standings mirror current on a slow
// cadence.
type StandingsService struct {
	db   *gorm.DB
	feed feed.Client
}

func NewStandingsService(db *gorm.DB, feedClient feed.Client) *StandingsService {
	return &StandingsService{db: db, feed: feedClient}
}

// SyncSeasons refreshes the standings mirror for every configured season.
// One season failing never aborts the others.
func (s *StandingsService) SyncSeasons(ctx context.Context, seasonIDs []string) {
	for _, seasonID := range seasonIDs {
		if err := s.SyncSeason(ctx, seasonID); err != nil {
			log.Printf("[Standings] Error syncing season %s: %v", seasonID, err)
			continue
		}
	}
}

// SyncSeason fetches and upserts one season's standings table in a single
// transaction.
func (s *StandingsService) SyncSeason(ctx context.Context, seasonID string) error {
	rows, err := s.feed.GetSeasonStandings(ctx, seasonID)
	if err != nil {
		return fmt.Errorf("fetch standings: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			standing := models.Standing{
				SeasonID:     row.SeasonID,
				TeamName:     row.TeamName,
				Position:     row.Position,
				Played:       row.Played,
				Wins:         row.Wins,
				Draws:        row.Draws,
				Losses:       row.Losses,
				GoalsFor:     row.GoalsFor,
				GoalsAgainst: row.GoalsAgainst,
				Points:       row.Points,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "season_id"}, {Name: "team_name"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"position":      row.Position,
					"played":        row.Played,
					"wins":          row.Wins,
					"draws":         row.Draws,
					"losses":        row.Losses,
					"goals_for":     row.GoalsFor,
					"goals_against": row.GoalsAgainst,
					"points":        row.Points,
					"updated_at":    time.Now(),
				}),
			}).Create(&standing).Error
			if err != nil {
				return fmt.Errorf("upsert standing %s/%s: %w", row.SeasonID, row.TeamName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[Standings] Synced %d rows for season %s", len(rows), seasonID)
	return nil
}
