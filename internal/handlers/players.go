package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/services"
)

// PlayerHandler handles player read endpoints
type PlayerHandler struct {
	players *services.PlayerService
	records *services.RecordService
	charts  *services.ChartService
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *services.PlayerService, records *services.RecordService, charts *services.ChartService) *PlayerHandler {
	return &PlayerHandler{players: players, records: records, charts: charts}
}

// GetPlayer returns a player's public profile
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	player, err := h.players.GetPlayer(c.Request.Context(), id)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, player.Summary())
}

// GetBest returns the records behind a player's rating
func (h *PlayerHandler) GetBest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	records, err := h.records.Best19(c.Request.Context(), id)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetChart returns a chart
func (h *PlayerHandler) GetChart(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chart id"})
		return
	}

	chart, err := h.charts.GetChart(c.Request.Context(), id)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// GetLeaderboard returns a chart's leaderboard ordered by rks
func (h *PlayerHandler) GetLeaderboard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chart id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.charts.Leaderboard(c.Request.Context(), id, limit, offset)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
