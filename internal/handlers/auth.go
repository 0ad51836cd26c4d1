package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/middleware"
	"github.com/phizone/record-api/internal/services"
)

// AuthHandler handles player registration and login
type AuthHandler struct {
	players   *services.PlayerService
	jwtConfig middleware.JWTConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(players *services.PlayerService, jwtSecret string, expiration time.Duration) *AuthHandler {
	return &AuthHandler{
		players: players,
		jwtConfig: middleware.JWTConfig{
			Secret:     jwtSecret,
			Expiration: expiration,
		},
	}
}

// Register handles player registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.players.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(player.ID.String(), player.Username, h.jwtConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, services.AuthResponse{
		PlayerID: player.ID.String(),
		Username: player.Username,
		Token:    token,
	})
}

// Login handles player login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.players.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(player.ID.String(), player.Username, h.jwtConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, services.AuthResponse{
		PlayerID: player.ID.String(),
		Username: player.Username,
		Token:    token,
	})
}

// Profile returns the authenticated player
func (h *AuthHandler) Profile(c *gin.Context) {
	playerID, err := uuid.Parse(middleware.GetPlayerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	player, err := h.players.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, player)
}

// CreateConfigurationRequest represents a play-configuration creation request
type CreateConfigurationRequest struct {
	Name            string `json:"name" binding:"required,max=64"`
	PerfectJudgment int    `json:"perfect_judgment" binding:"required,min=1"`
	GoodJudgment    int    `json:"good_judgment" binding:"required,min=1"`
}

// CreateConfiguration stores a play configuration for the authenticated player
func (h *AuthHandler) CreateConfiguration(c *gin.Context) {
	var req CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID, err := uuid.Parse(middleware.GetPlayerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	cfg, err := h.players.CreateConfiguration(c.Request.Context(), playerID,
		req.Name, req.PerfectJudgment, req.GoodJudgment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, cfg)
}
