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

// postgresRecords is the production recordRepository
type postgresRecords struct {
	db *storage.DB
}

func (r *postgresRecords) Application(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, secret, created_at FROM applications WHERE id = $1`, id,
	).Scan(&app.ID, &app.Name, &app.Secret, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "application"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	return &app, nil
}

func (r *postgresRecords) Player(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, rks, experience, created_at, updated_at
		 FROM players WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.Rks, &p.Experience, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "player"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &p, nil
}

func (r *postgresRecords) Chart(ctx context.Context, id uuid.UUID) (*models.Chart, error) {
	var c models.Chart
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, application_id, title, level, difficulty, note_count, duration_seconds,
		        file_checksum, is_ranked, play_count, created_at, updated_at
		 FROM charts WHERE id = $1`, id,
	).Scan(&c.ID, &c.ApplicationID, &c.Title, &c.Level, &c.Difficulty, &c.NoteCount,
		&c.DurationSeconds, &c.FileChecksum, &c.IsRanked, &c.PlayCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "chart"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}
	return &c, nil
}

func (r *postgresRecords) Configuration(ctx context.Context, id uuid.UUID) (*models.PlayConfiguration, error) {
	var cfg models.PlayConfiguration
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, owner_id, name, perfect_judgment, good_judgment, created_at
		 FROM play_configurations WHERE id = $1`, id,
	).Scan(&cfg.ID, &cfg.OwnerID, &cfg.Name, &cfg.PerfectJudgment, &cfg.GoodJudgment, &cfg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "play configuration"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load play configuration: %w", err)
	}
	return &cfg, nil
}

func (r *postgresRecords) BestAccuracy(ctx context.Context, playerID, chartID uuid.UUID) (*float64, error) {
	// MAX over zero rows is NULL, which is exactly "no prior record".
	var best *float64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT MAX(accuracy) FROM records WHERE owner_id = $1 AND chart_id = $2`,
		playerID, chartID,
	).Scan(&best)
	if err != nil {
		return nil, fmt.Errorf("failed to load best accuracy: %w", err)
	}
	return best, nil
}

func (r *postgresRecords) ChartRank(ctx context.Context, chartID uuid.UUID, rks float64) (int, error) {
	var rank int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM records WHERE chart_id = $1 AND rks > $2`,
		chartID, rks,
	).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("failed to compute chart rank: %w", err)
	}
	return rank, nil
}

// CreateRecord inserts the record, recomputes the owner's rating under a row
// lock so concurrent submissions by the same player serialize, applies the
// experience delta and refreshes the chart's play count, all in one
// transaction.
func (r *postgresRecords) CreateRecord(ctx context.Context, record *models.Record, experienceDelta int64) (*persistResult, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO records (id, chart_id, owner_id, application_id,
		                      perfect, good_early, good_late, bad, miss, max_combo,
		                      score, accuracy, is_full_combo, rks, std_deviation,
		                      perfect_judgment, good_judgment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		record.ID, record.ChartID, record.OwnerID, record.ApplicationID,
		record.Perfect, record.GoodEarly, record.GoodLate, record.Bad, record.Miss, record.MaxCombo,
		record.Score, record.Accuracy, record.IsFullCombo, record.Rks, record.StdDeviation,
		record.PerfectJudgment, record.GoodJudgment, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	var result persistResult
	err = tx.QueryRow(ctx,
		`SELECT rks, experience FROM players WHERE id = $1 FOR UPDATE`, record.OwnerID,
	).Scan(&result.rksBefore, &result.experienceBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player row: %w", err)
	}

	phi, err := r.phiRks(ctx, tx, record.OwnerID)
	if err != nil {
		return nil, err
	}
	best19, err := r.best19Sum(ctx, tx, record.OwnerID)
	if err != nil {
		return nil, err
	}
	newRks := (phi + best19) / 20

	_, err = tx.Exec(ctx,
		`UPDATE players SET rks = $1, experience = experience + $2, updated_at = NOW() WHERE id = $3`,
		newRks, experienceDelta, record.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE charts
		 SET play_count = (SELECT COUNT(*) FROM records WHERE chart_id = $1), updated_at = NOW()
		 WHERE id = $1`,
		record.ChartID)
	if err != nil {
		return nil, fmt.Errorf("failed to update chart play count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit record: %w", err)
	}
	return &result, nil
}

// phiRks returns the player's best rks among perfect-score plays on ranked
// charts, zero when there is none
func (r *postgresRecords) phiRks(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (float64, error) {
	var phi float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(r.rks), 0)
		 FROM records r
		 JOIN charts c ON c.id = r.chart_id
		 WHERE r.owner_id = $1 AND r.score = $2 AND c.is_ranked`,
		playerID, MaxScore,
	).Scan(&phi)
	if err != nil {
		return 0, fmt.Errorf("failed to compute phi rks: %w", err)
	}
	return phi, nil
}

// best19Sum sums the player's 19 highest-rks plays counting each chart once
func (r *postgresRecords) best19Sum(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (float64, error) {
	var sum float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(rks), 0) FROM (
		     SELECT rks FROM (
		         SELECT DISTINCT ON (chart_id) rks
		         FROM records WHERE owner_id = $1
		         ORDER BY chart_id, rks DESC
		     ) per_chart
		     ORDER BY rks DESC
		     LIMIT 19
		 ) best`,
		playerID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to compute best 19: %w", err)
	}
	return sum, nil
}

func (r *postgresRecords) Record(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	var rec models.Record
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, chart_id, owner_id, application_id,
		        perfect, good_early, good_late, bad, miss, max_combo,
		        score, accuracy, is_full_combo, rks, std_deviation,
		        perfect_judgment, good_judgment, created_at
		 FROM records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.ChartID, &rec.OwnerID, &rec.ApplicationID,
		&rec.Perfect, &rec.GoodEarly, &rec.GoodLate, &rec.Bad, &rec.Miss, &rec.MaxCombo,
		&rec.Score, &rec.Accuracy, &rec.IsFullCombo, &rec.Rks, &rec.StdDeviation,
		&rec.PerfectJudgment, &rec.GoodJudgment, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "record"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &rec, nil
}

func (r *postgresRecords) Best19(ctx context.Context, playerID uuid.UUID) ([]models.Record, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, chart_id, owner_id, application_id,
		        perfect, good_early, good_late, bad, miss, max_combo,
		        score, accuracy, is_full_combo, rks, std_deviation,
		        perfect_judgment, good_judgment, created_at
		 FROM (
		     SELECT DISTINCT ON (chart_id) *
		     FROM records WHERE owner_id = $1
		     ORDER BY chart_id, rks DESC
		 ) per_chart
		 ORDER BY rks DESC
		 LIMIT 19`,
		playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load best records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.ChartID, &rec.OwnerID, &rec.ApplicationID,
			&rec.Perfect, &rec.GoodEarly, &rec.GoodLate, &rec.Bad, &rec.Miss, &rec.MaxCombo,
			&rec.Score, &rec.Accuracy, &rec.IsFullCombo, &rec.Rks, &rec.StdDeviation,
			&rec.PerfectJudgment, &rec.GoodJudgment, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
