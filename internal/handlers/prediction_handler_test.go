package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"livescore-engine/internal/models"
	"livescore-engine/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
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

func setupPredictionRouter(t *testing.T) (*gin.Engine, *repository.PredictionRepository) {
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	repo := repository.NewPredictionRepository(db)
	handler := NewPredictionHandler(db, repo)

	router := gin.New()
	router.GET("/api/predictions", handler.GetPredictions)
	router.GET("/api/predictions/:id", handler.GetPrediction)
	return router, repo
}

type listResponse struct {
	Success bool              `json:"success"`
	Data    []json.RawMessage `json:"data"`
	Count   int               `json:"count"`
}

func TestGetPredictionsInvalidPagingFallsBackToDefaults(t *testing.T) {
	router, repo := setupPredictionRouter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := &models.Prediction{
			Period:    models.PeriodFullMatch,
			LineType:  models.LineOver,
			Threshold: decimal.NewFromFloat(2.5),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Garbage paging must not turn into Limit(0) and an empty page.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/predictions?limit=abc&offset=-5", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Count != 3 {
		t.Errorf("expected all 3 predictions with default paging, got count %d", resp.Count)
	}
}

func TestGetPredictionInvalidID(t *testing.T) {
	router, _ := setupPredictionRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/predictions/not-a-uuid", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
