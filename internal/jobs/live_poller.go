package jobs

import (
	"context"
	"log"
	"time"

	"livescore-engine/internal/services"
)

// LivePoller drives the reconciliation cycle on a fixed cadence. Each cycle
// runs to completion before the next one starts.
type LivePoller struct {
	reconciler *services.Reconciler
	interval   time.Duration
}

func NewLivePoller(reconciler *services.Reconciler, interval time.Duration) *LivePoller {
	return &LivePoller{
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start begins the live polling loop. Blocks until the context is done.
func (p *LivePoller) Start(ctx context.Context) {
	log.Printf("[LivePoller] Starting live poll loop (interval: %v)", p.interval)

	// Run immediately on start
	if err := p.reconciler.RunCycle(ctx); err != nil {
		log.Printf("[LivePoller] Initial cycle error: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.reconciler.RunCycle(ctx); err != nil {
				// Transient feed errors retry on the next cycle.
				log.Printf("[LivePoller] Cycle error: %v", err)
			}
		case <-ctx.Done():
			log.Println("[LivePoller] Stopping live poll loop")
			return
		}
	}
}
