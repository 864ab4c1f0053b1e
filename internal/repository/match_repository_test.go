package repository

import (
	"context"
	"testing"
	"time"

	"livescore-engine/internal/feed"
	"livescore-engine/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Match{},
		&models.Standing{},
		&models.Prediction{},
		&models.SettlementAudit{},
		&models.AdminOverrideLog{},
	); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func fullSnapshot() *feed.MatchSnapshot {
	kickoff := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	return &feed.MatchSnapshot{
		ExternalID:       "m-100",
		Status:           models.MatchStatusFirstHalf,
		HomeTeam:         strPtr("Arsenal"),
		AwayTeam:         strPtr("Chelsea"),
		Competition:      strPtr("Premier League"),
		HomeScore:        intPtr(1),
		AwayScore:        intPtr(0),
		Minute:           intPtr(23),
		ScheduledKickoff: timePtr(kickoff),
	}
}

func TestUpsertIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	snap := fullSnapshot()
	first, err := repo.Upsert(ctx, snap)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, snap)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected one row, got ids %d and %d", first.ID, second.ID)
	}
	if second.HomeScore != 1 || second.AwayScore != 0 {
		t.Errorf("unexpected score after repeat upsert: %d-%d", second.HomeScore, second.AwayScore)
	}
	if second.Minute == nil || *second.Minute != 23 {
		t.Errorf("unexpected minute after repeat upsert: %v", second.Minute)
	}

	var count int64
	db.Model(&models.Match{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 match row, got %d", count)
	}
}

func TestUpsertSparsePayloadKeepsKnownData(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	sparse := &feed.MatchSnapshot{
		ExternalID: "m-100",
		Status:     models.MatchStatusFirstHalf,
	}
	match, err := repo.Upsert(ctx, sparse)
	if err != nil {
		t.Fatalf("sparse upsert: %v", err)
	}

	if match.HomeScore != 1 || match.AwayScore != 0 {
		t.Errorf("sparse upsert erased score: %d-%d", match.HomeScore, match.AwayScore)
	}
	if match.Minute == nil || *match.Minute != 23 {
		t.Errorf("sparse upsert erased minute: %v", match.Minute)
	}
	if match.HomeTeam != "Arsenal" {
		t.Errorf("sparse upsert erased home team: %q", match.HomeTeam)
	}
	if match.ScheduledKickoff == nil {
		t.Error("sparse upsert erased scheduled kickoff")
	}
}

func TestUpsertScheduledKickoffImmutable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	original := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	moved := fullSnapshot()
	moved.ScheduledKickoff = timePtr(original.Add(2 * time.Hour))
	match, err := repo.Upsert(ctx, moved)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if match.ScheduledKickoff == nil || !match.ScheduledKickoff.Equal(original) {
		t.Errorf("scheduled kickoff changed: %v", match.ScheduledKickoff)
	}
}

func TestUpsertDoesNotTouchStatusOnConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	if _, err := repo.AdvanceStatus(ctx, "m-100", models.MatchStatusFirstHalf, models.MatchStatusSecondHalf); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// A stale snapshot still claiming FIRST_HALF must not revert status
	// through the upsert path.
	stale := fullSnapshot()
	match, err := repo.Upsert(ctx, stale)
	if err != nil {
		t.Fatalf("stale upsert: %v", err)
	}
	if match.Status != models.MatchStatusSecondHalf {
		t.Errorf("upsert reverted status to %s", match.Status)
	}
}

func TestUpsertBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	snaps := []*feed.MatchSnapshot{
		{ExternalID: "b-1", Status: models.MatchStatusNotStarted},
		{ExternalID: "b-2", Status: models.MatchStatusFirstHalf, HomeScore: intPtr(1), AwayScore: intPtr(1)},
		{ExternalID: "b-3", Status: models.MatchStatusEnded, HomeScore: intPtr(0), AwayScore: intPtr(2)},
	}
	if err := repo.UpsertBatch(ctx, snaps); err != nil {
		t.Fatalf("batch upsert: %v", err)
	}

	var count int64
	db.Model(&models.Match{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}

	// Re-running the same batch must be a no-op.
	if err := repo.UpsertBatch(ctx, snaps); err != nil {
		t.Fatalf("repeat batch upsert: %v", err)
	}
	db.Model(&models.Match{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 rows after repeat, got %d", count)
	}
}

func TestAdvanceStatusConditional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	ok, err := repo.AdvanceStatus(ctx, "m-100", models.MatchStatusFirstHalf, models.MatchStatusHalfTime)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !ok {
		t.Fatal("expected advance from the current status to succeed")
	}

	// The same transition again must miss: the stored status moved on.
	ok, err = repo.AdvanceStatus(ctx, "m-100", models.MatchStatusFirstHalf, models.MatchStatusHalfTime)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ok {
		t.Error("expected conditional advance with stale expectation to miss")
	}

	match, _ := repo.GetByExternalID(ctx, "m-100")
	if match.Status != models.MatchStatusHalfTime {
		t.Errorf("unexpected status %s", match.Status)
	}
}

func TestCaptureHalfTimeScoreOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	if err := repo.CaptureHalfTimeScore(ctx, "m-100"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	// Score moves on in the second half; the snapshot must not change.
	later := fullSnapshot()
	later.HomeScore = intPtr(3)
	if _, err := repo.Upsert(ctx, later); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.CaptureHalfTimeScore(ctx, "m-100"); err != nil {
		t.Fatalf("second capture: %v", err)
	}

	match, _ := repo.GetByExternalID(ctx, "m-100")
	if match.HTHomeScore == nil || *match.HTHomeScore != 1 {
		t.Errorf("half-time home score overwritten: %v", match.HTHomeScore)
	}
	if match.HTAwayScore == nil || *match.HTAwayScore != 0 {
		t.Errorf("half-time away score overwritten: %v", match.HTAwayScore)
	}
}

func TestKickoffBackfillNeverOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	anchor := time.Date(2024, 3, 9, 15, 2, 0, 0, time.UTC)
	if err := repo.SetFirstHalfKickoffIfNull(ctx, "m-100", anchor); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if err := repo.SetFirstHalfKickoffIfNull(ctx, "m-100", anchor.Add(time.Hour)); err != nil {
		t.Fatalf("second backfill: %v", err)
	}

	match, _ := repo.GetByExternalID(ctx, "m-100")
	if match.FirstHalfKickoff == nil || !match.FirstHalfKickoff.Equal(anchor) {
		t.Errorf("first-half anchor overwritten: %v", match.FirstHalfKickoff)
	}
}

func TestAdminOverrideWritesLog(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, fullSnapshot()); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	ended := models.MatchStatusEnded
	if err := repo.AdminOverride(ctx, "m-100", &ended, intPtr(2), intPtr(2), "ops", "provider missed full time"); err != nil {
		t.Fatalf("override: %v", err)
	}

	match, _ := repo.GetByExternalID(ctx, "m-100")
	if match.Status != models.MatchStatusEnded {
		t.Errorf("override did not apply status: %s", match.Status)
	}
	if match.HomeScore != 2 || match.AwayScore != 2 {
		t.Errorf("override did not apply score: %d-%d", match.HomeScore, match.AwayScore)
	}

	var logs []models.AdminOverrideLog
	db.Find(&logs)
	if len(logs) != 1 {
		t.Fatalf("expected 1 override log, got %d", len(logs))
	}
	if logs[0].PreviousScore != "1-0" || logs[0].NewScore != "2-2" {
		t.Errorf("unexpected log scores: %q -> %q", logs[0].PreviousScore, logs[0].NewScore)
	}
	if logs[0].Operator != "ops" {
		t.Errorf("unexpected operator %q", logs[0].Operator)
	}
}

func TestListOverdueNotStarted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC)

	snaps := []*feed.MatchSnapshot{
		{ExternalID: "o-1", Status: models.MatchStatusNotStarted, ScheduledKickoff: timePtr(now.Add(-30 * time.Minute))},
		{ExternalID: "o-2", Status: models.MatchStatusNotStarted, ScheduledKickoff: timePtr(now.Add(time.Hour))},
		{ExternalID: "o-3", Status: models.MatchStatusFirstHalf, ScheduledKickoff: timePtr(now.Add(-30 * time.Minute))},
	}
	if err := repo.UpsertBatch(ctx, snaps); err != nil {
		t.Fatalf("seed: %v", err)
	}

	overdue, err := repo.ListOverdueNotStarted(ctx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ExternalID != "o-1" {
		t.Errorf("unexpected overdue set: %+v", overdue)
	}
}
