package handlers

import (
	"net/http"
	"strconv"

	"livescore-engine/internal/models"
	"livescore-engine/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PredictionHandler serves read-only prediction and audit queries.
type PredictionHandler struct {
	db          *gorm.DB
	predictions *repository.PredictionRepository
}

func NewPredictionHandler(db *gorm.DB, predictions *repository.PredictionRepository) *PredictionHandler {
	return &PredictionHandler{db: db, predictions: predictions}
}

// GetPredictions returns predictions with optional filtering
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
	result := c.Query("result")
	matchID := c.Query("match")

	limitInt, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limitInt <= 0 {
		limitInt = 50
	}
	offsetInt, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offsetInt < 0 {
		offsetInt = 0
	}

	query := h.db.Model(&models.Prediction{})
	if result != "" {
		query = query.Where("result = ?", result)
	}
	if matchID != "" {
		query = query.Where("match_external_id = ?", matchID)
	}

	var predictions []models.Prediction
	if err := query.Order("created_at DESC").Limit(limitInt).Offset(offsetInt).Find(&predictions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    predictions,
		"count":   len(predictions),
	})
}

// GetPrediction returns a single prediction by id
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prediction id"})
		return
	}

	prediction, err := h.predictions.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prediction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    prediction,
	})
}

// GetPredictionAudit returns the settlement audit trail for a prediction
func (h *PredictionHandler) GetPredictionAudit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prediction id"})
		return
	}

	audits, err := h.predictions.ListAuditTrail(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    audits,
		"count":   len(audits),
	})
}
