package jobs

import (
	"context"
	"log"

	"livescore-engine/internal/services"
)

// ColdStartBackfill runs once at process start: matches that were live when
// the process last stopped have no in-memory state, and some may be missing
// kickoff anchors the estimator needs.
type ColdStartBackfill struct {
	reconciler *services.Reconciler
}

func NewColdStartBackfill(reconciler *services.Reconciler) *ColdStartBackfill {
	return &ColdStartBackfill{reconciler: reconciler}
}

// Run performs the one-shot backfill.
func (b *ColdStartBackfill) Run(ctx context.Context) {
	log.Println("[Backfill] Running cold-start anchor backfill")
	if err := b.reconciler.BackfillAnchors(ctx); err != nil {
		log.Printf("[Backfill] Error: %v", err)
		return
	}
	log.Println("[Backfill] Cold-start backfill complete")
}
