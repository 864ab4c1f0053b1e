package handlers

import (
	"net/http"

	"livescore-engine/internal/models"
	"livescore-engine/internal/repository"
	"livescore-engine/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MatchHandler serves read-only match queries for the presentation layer.
// All writes originate from the reconciler; this surface exposes none.
type MatchHandler struct {
	db        *gorm.DB
	matches   *repository.MatchRepository
	estimator *services.MinuteEstimator
}

func NewMatchHandler(db *gorm.DB, matches *repository.MatchRepository, estimator *services.MinuteEstimator) *MatchHandler {
	return &MatchHandler{db: db, matches: matches, estimator: estimator}
}

// matchView is a match row plus the derived current minute.
type matchView struct {
	models.Match
	CurrentMinute *services.MinuteEstimate `json:"current_minute,omitempty"`
}

func (h *MatchHandler) view(m *models.Match) matchView {
	v := matchView{Match: *m}
	if estimate, ok := h.estimator.Estimate(m); ok {
		v.CurrentMinute = &estimate
	}
	return v
}

// GetLiveMatches returns all matches currently in play
func (h *MatchHandler) GetLiveMatches(c *gin.Context) {
	matches, err := h.matches.ListLive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch live matches"})
		return
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, h.view(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
		"count":   len(views),
	})
}

// GetMatch returns a single match by its external id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	externalID := c.Param("external_id")

	match, err := h.matches.GetByExternalID(c.Request.Context(), externalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch match"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.view(match),
	})
}

// GetSeasonStandings returns the mirrored standings table for a season
func (h *MatchHandler) GetSeasonStandings(c *gin.Context) {
	seasonID := c.Param("season_id")

	var standings []models.Standing
	if err := h.db.Where("season_id = ?", seasonID).Order("position ASC").Find(&standings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch standings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    standings,
		"count":   len(standings),
	})
}
