package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/phizone/record-api/internal/models"
	"github.com/phizone/record-api/internal/storage"
)

// PlayerService handles player identity and lookup
type PlayerService struct {
	db *storage.DB
}

// NewPlayerService creates a new player service
func NewPlayerService(db *storage.DB) *PlayerService {
	return &PlayerService{db: db}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Register creates a new player
func (s *PlayerService) Register(ctx context.Context, req RegisterRequest) (*models.Player, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM players WHERE email = $1 OR username = $2)",
		req.Email, req.Username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check player existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("player already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	_, err = s.db.Pool.Exec(ctx,
		`INSERT INTO players (id, username, email, password_hash, rks, experience)
		 VALUES ($1, $2, $3, $4, 0, 0)`,
		player.ID, player.Username, player.Email, player.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// Login authenticates a player
func (s *PlayerService) Login(ctx context.Context, req LoginRequest) (*models.Player, error) {
	var player models.Player
	err := s.db.Pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, rks, experience FROM players WHERE email = $1",
		req.Email).Scan(&player.ID, &player.Username, &player.Email,
		&player.PasswordHash, &player.Rks, &player.Experience)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return &player, nil
}

// GetPlayer retrieves a player by ID
func (s *PlayerService) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, rks, experience, created_at, updated_at
		 FROM players WHERE id = $1`,
		playerID).Scan(&player.ID, &player.Username, &player.Email,
		&player.Rks, &player.Experience, &player.CreatedAt, &player.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "player"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &player, nil
}

// CreateConfiguration stores a play configuration for a player
func (s *PlayerService) CreateConfiguration(ctx context.Context, ownerID uuid.UUID, name string, perfectJudgment, goodJudgment int) (*models.PlayConfiguration, error) {
	cfg := &models.PlayConfiguration{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            name,
		PerfectJudgment: perfectJudgment,
		GoodJudgment:    goodJudgment,
		CreatedAt:       time.Now(),
	}

	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO play_configurations (id, owner_id, name, perfect_judgment, good_judgment)
		 VALUES ($1, $2, $3, $4, $5)`,
		cfg.ID, cfg.OwnerID, cfg.Name, cfg.PerfectJudgment, cfg.GoodJudgment)
	if err != nil {
		return nil, fmt.Errorf("failed to create play configuration: %w", err)
	}

	return cfg, nil
}
