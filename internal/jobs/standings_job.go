package jobs

import (
	"context"
	"log"
	"time"

	"livescore-engine/internal/services"
)

// StandingsJob refreshes the season standings mirror on a slow cadence.
type StandingsJob struct {
	service   *services.StandingsService
	seasonIDs []string
	interval  time.Duration
}

func NewStandingsJob(service *services.StandingsService, seasonIDs []string, interval time.Duration) *StandingsJob {
	return &StandingsJob{
		service:   service,
		seasonIDs: seasonIDs,
		interval:  interval,
	}
}

// Start begins the standings sync loop. Blocks until the context is done.
func (j *StandingsJob) Start(ctx context.Context) {
	if len(j.seasonIDs) == 0 {
		log.Println("[Standings] No seasons configured, sync disabled")
		return
	}

	log.Printf("[Standings] Starting standings sync for %d seasons (interval: %v)", len(j.seasonIDs), j.interval)

	// Run immediately on start
	j.service.SyncSeasons(ctx, j.seasonIDs)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.service.SyncSeasons(ctx, j.seasonIDs)
		case <-ctx.Done():
			log.Println("[Standings] Stopping standings sync loop")
			return
		}
	}
}
