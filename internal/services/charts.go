package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/phizone/record-api/internal/models"
	"github.com/phizone/record-api/internal/storage"
)

// ChartService handles chart lookup and leaderboards
type ChartService struct {
	db *storage.DB
}

// NewChartService creates a new chart service
func NewChartService(db *storage.DB) *ChartService {
	return &ChartService{db: db}
}

// LeaderboardEntry is one row of a chart leaderboard
type LeaderboardEntry struct {
	Rank     int           `json:"rank"`
	Username string        `json:"username"`
	Record   models.Record `json:"record"`
}

// GetChart retrieves a chart by ID
func (s *ChartService) GetChart(ctx context.Context, id uuid.UUID) (*models.Chart, error) {
	var chart models.Chart
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, application_id, title, level, difficulty, note_count,
		        duration_seconds, file_checksum, is_ranked, play_count, created_at, updated_at
		 FROM charts WHERE id = $1`,
		id).Scan(&chart.ID, &chart.ApplicationID, &chart.Title, &chart.Level,
		&chart.Difficulty, &chart.NoteCount, &chart.DurationSeconds,
		&chart.FileChecksum, &chart.IsRanked, &chart.PlayCount,
		&chart.CreatedAt, &chart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "chart"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}
	return &chart, nil
}

// Leaderboard returns a chart's records ordered by rks descending
func (s *ChartService) Leaderboard(ctx context.Context, chartID uuid.UUID, limit, offset int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT p.username,
		        r.id, r.chart_id, r.owner_id, r.application_id,
		        r.perfect, r.good_early, r.good_late, r.bad, r.miss, r.max_combo,
		        r.score, r.accuracy, r.is_full_combo, r.rks, r.std_deviation,
		        r.perfect_judgment, r.good_judgment, r.created_at
		 FROM records r
		 JOIN players p ON p.id = r.owner_id
		 WHERE r.chart_id = $1
		 ORDER BY r.rks DESC, r.created_at ASC
		 LIMIT $2 OFFSET $3`,
		chartID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := offset
	for rows.Next() {
		var e LeaderboardEntry
		r := &e.Record
		if err := rows.Scan(&e.Username,
			&r.ID, &r.ChartID, &r.OwnerID, &r.ApplicationID,
			&r.Perfect, &r.GoodEarly, &r.GoodLate, &r.Bad, &r.Miss, &r.MaxCombo,
			&r.Score, &r.Accuracy, &r.IsFullCombo, &r.Rks, &r.StdDeviation,
			&r.PerfectJudgment, &r.GoodJudgment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
