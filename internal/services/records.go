package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/logging"
	"github.com/phizone/record-api/internal/metrics"
	"github.com/phizone/record-api/internal/models"
	"github.com/phizone/record-api/internal/session"
	"github.com/phizone/record-api/internal/storage"
)

// EventPublisher publishes domain events after successful submissions
type EventPublisher interface {
	PublishRecordCreated(record *models.Record, player *models.Player)
}

// recordRepository is the persistence seam of the record pipeline. The
// postgres implementation lives in records_pg.go; tests swap in an in-memory
// one so the validation sequence can be exercised without a database.
type recordRepository interface {
	Application(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Player(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Chart(ctx context.Context, id uuid.UUID) (*models.Chart, error)
	Configuration(ctx context.Context, id uuid.UUID) (*models.PlayConfiguration, error)

	// BestAccuracy returns the player's best accuracy on a chart, nil if
	// the player has no record there yet.
	BestAccuracy(ctx context.Context, playerID, chartID uuid.UUID) (*float64, error)

	// ChartRank returns the 1-based position a play with the given rks
	// takes on the chart's leaderboard.
	ChartRank(ctx context.Context, chartID uuid.UUID, rks float64) (int, error)

	// CreateRecord persists the record and its side effects (player rating
	// and experience, chart play count) atomically, returning the player
	// aggregate values from before the update.
	CreateRecord(ctx context.Context, record *models.Record, experienceDelta int64) (*persistResult, error)

	Record(ctx context.Context, id uuid.UUID) (*models.Record, error)
	Best19(ctx context.Context, playerID uuid.UUID) ([]models.Record, error)
}

// persistResult carries the player aggregate as it was before a record's
// side effects were applied
type persistResult struct {
	rksBefore        float64
	experienceBefore int64
}

// RecordService validates play-result submissions and maintains player ratings
type RecordService struct {
	repo     recordRepository
	sessions *session.Store
	events   EventPublisher
}

// NewRecordService creates a record service backed by postgres
func NewRecordService(db *storage.DB, sessions *session.Store, events EventPublisher) *RecordService {
	return &RecordService{repo: &postgresRecords{db: db}, sessions: sessions, events: events}
}

// StartPlayRequest represents a play-session issuance request
type StartPlayRequest struct {
	ChartID         string `json:"chart_id" binding:"required,uuid"`
	ConfigurationID string `json:"configuration_id" binding:"required,uuid"`
}

// StartPlayResponse represents an issued play session
type StartPlayResponse struct {
	Token                  string    `json:"token"`
	IssuedAtMillis         int64     `json:"issued_at_millis"`
	EarliestCompletionTime time.Time `json:"earliest_completion_time"`
}

// SubmitRecordRequest represents a record submission payload
type SubmitRecordRequest struct {
	Token        string  `json:"token" binding:"required"`
	Checksum     string  `json:"checksum"`
	Perfect      int     `json:"perfect" binding:"min=0"`
	GoodEarly    int     `json:"good_early" binding:"min=0"`
	GoodLate     int     `json:"good_late" binding:"min=0"`
	Bad          int     `json:"bad" binding:"min=0"`
	Miss         int     `json:"miss" binding:"min=0"`
	MaxCombo     int     `json:"max_combo" binding:"min=0"`
	StdDeviation float64 `json:"std_deviation" binding:"gte=0"`
	Hmac         string  `json:"hmac" binding:"required,base64"`
}

// SubmitRecordResponse represents a persisted record. It carries the
// player's rks as it was before this submission; callers re-fetch the player
// for the updated value.
type SubmitRecordResponse struct {
	ID              uuid.UUID            `json:"id"`
	Score           int                  `json:"score"`
	Accuracy        float64              `json:"accuracy"`
	IsFullCombo     bool                 `json:"is_full_combo"`
	Player          models.PlayerSummary `json:"player"`
	ExperienceDelta int64                `json:"experience_delta"`
	RksBefore       float64              `json:"rks_before"`
	DateCreated     time.Time            `json:"date_created"`
}

// StartPlay issues a play session for a chart. The session is not redeemable
// before the chart's audio duration has elapsed.
func (s *RecordService) StartPlay(ctx context.Context, playerID uuid.UUID, req StartPlayRequest) (*StartPlayResponse, error) {
	chartID, err := uuid.Parse(req.ChartID)
	if err != nil {
		return nil, fmt.Errorf("invalid chart id")
	}
	configurationID, err := uuid.Parse(req.ConfigurationID)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration id")
	}

	chart, err := s.repo.Chart(ctx, chartID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Configuration(ctx, configurationID); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Issue(ctx, chart.ID, configurationID, chart.ApplicationID, playerID,
		time.Duration(chart.DurationSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to issue play session: %w", err)
	}

	metrics.SessionsIssued.Inc()
	log := logging.Component("records")
	log.Debug().
		Str("chart_id", chart.ID.String()).
		Str("player_id", playerID.String()).
		Msg("play session issued")

	return &StartPlayResponse{
		Token:                  sess.Token,
		IssuedAtMillis:         sess.IssuedAtMillis,
		EarliestCompletionTime: sess.EarliestCompletionTime,
	}, nil
}

// Submit validates a play-result submission against its session and, when
// everything checks out, persists the record and updates the player's rating
// and experience. Validation failures before token consumption leave no state
// behind; the token is consumed exactly once.
func (s *RecordService) Submit(ctx context.Context, req SubmitRecordRequest) (*SubmitRecordResponse, error) {
	resp, err := s.submit(ctx, req)
	if err != nil {
		metrics.SubmissionsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	metrics.SubmissionsAccepted.Inc()
	return resp, nil
}

func (s *RecordService) submit(ctx context.Context, req SubmitRecordRequest) (*SubmitRecordResponse, error) {
	sess, err := s.sessions.Get(ctx, req.Token)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load play session: %w", err)
	}

	// The chart's own audio length is the floor on claimed play time.
	if time.Now().Before(sess.EarliestCompletionTime) {
		return nil, ErrSubmittedTooEarly
	}

	app, err := s.repo.Application(ctx, sess.ApplicationID)
	if err != nil {
		return nil, err
	}
	player, err := s.repo.Player(ctx, sess.PlayerID)
	if err != nil {
		return nil, err
	}
	chart, err := s.repo.Chart(ctx, sess.ChartID)
	if err != nil {
		return nil, err
	}

	if chart.FileChecksum != nil && *chart.FileChecksum != req.Checksum {
		return nil, ErrChecksumMismatch
	}

	if !VerifyPlaySignature(sess, req.Perfect, req.GoodEarly, req.GoodLate, req.Bad, req.Miss,
		req.MaxCombo, app.Secret, req.Hmac) {
		return nil, ErrSignatureMismatch
	}

	judgmentCount := req.Perfect + req.GoodEarly + req.GoodLate + req.Bad + req.Miss
	if judgmentCount != chart.NoteCount {
		return nil, ErrJudgmentCountMismatch
	}

	minCombo, maxCombo := ComboBounds(chart.NoteCount, req.Bad, req.Miss)
	if req.MaxCombo < minCombo || req.MaxCombo > maxCombo {
		return nil, ErrMaxComboOutOfRange
	}

	// Point of no return: the token is gone no matter what happens below,
	// so a concurrent duplicate fails at the lookup above and a retry after
	// a late failure cannot double-spend it.
	if err := s.sessions.Consume(ctx, req.Token); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to consume play session: %w", err)
	}

	config, err := s.repo.Configuration(ctx, sess.ConfigurationID)
	if err != nil {
		return nil, err
	}

	accuracy := Accuracy(req.Perfect, req.GoodEarly, req.GoodLate, req.Bad, req.Miss)
	score := Score(accuracy, req.MaxCombo, chart.NoteCount)
	factor := RksFactor(config.PerfectJudgment, config.GoodJudgment)
	rks := Rks(accuracy, chart.Difficulty, req.StdDeviation, factor)

	record := &models.Record{
		ID:              uuid.New(),
		ChartID:         chart.ID,
		OwnerID:         player.ID,
		ApplicationID:   app.ID,
		Perfect:         req.Perfect,
		GoodEarly:       req.GoodEarly,
		GoodLate:        req.GoodLate,
		Bad:             req.Bad,
		Miss:            req.Miss,
		MaxCombo:        req.MaxCombo,
		Score:           score,
		Accuracy:        accuracy,
		IsFullCombo:     IsFullCombo(req.MaxCombo, judgmentCount),
		Rks:             rks,
		StdDeviation:    req.StdDeviation,
		PerfectJudgment: config.PerfectJudgment,
		GoodJudgment:    config.GoodJudgment,
		CreatedAt:       time.Now(),
	}

	priorBest, err := s.repo.BestAccuracy(ctx, player.ID, chart.ID)
	if err != nil {
		return nil, err
	}

	bonus := 0.0
	if qualifiesForBonus(record.Accuracy, priorBest) {
		rank, err := s.repo.ChartRank(ctx, chart.ID, record.Rks)
		if err != nil {
			return nil, err
		}
		bonus = LeaderboardBonus(chart.Difficulty, rank)
	}
	experienceDelta := ExperienceDelta(BaseExperience(score), factor, bonus, chart.IsRanked)

	result, err := s.repo.CreateRecord(ctx, record, experienceDelta)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishRecordCreated(record, player)
	}

	log := logging.Component("records")
	log.Info().
		Str("record_id", record.ID.String()).
		Str("player_id", player.ID.String()).
		Str("chart_id", chart.ID.String()).
		Int("score", score).
		Float64("accuracy", accuracy).
		Msg("record created")

	return &SubmitRecordResponse{
		ID:          record.ID,
		Score:       record.Score,
		Accuracy:    record.Accuracy,
		IsFullCombo: record.IsFullCombo,
		Player: models.PlayerSummary{
			ID:         player.ID,
			Username:   player.Username,
			Rks:        result.rksBefore,
			Experience: result.experienceBefore,
		},
		ExperienceDelta: experienceDelta,
		RksBefore:       result.rksBefore,
		DateCreated:     record.CreatedAt,
	}, nil
}

// qualifiesForBonus reports whether this accuracy newly crosses into
// near-perfect territory relative to the player's prior best on the chart.
func qualifiesForBonus(accuracy float64, priorBest *float64) bool {
	if accuracy >= 1.0 && (priorBest == nil || *priorBest < 1.0) {
		return true
	}
	if priorBest == nil {
		return false
	}
	if *priorBest >= 0.97 && *priorBest < 0.98 && accuracy >= 0.98 {
		return true
	}
	if *priorBest >= 0.98 && accuracy >= *priorBest+0.01 {
		return true
	}
	return false
}

// GetRecord retrieves a single record
func (s *RecordService) GetRecord(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	return s.repo.Record(ctx, id)
}

// Best19 returns the records behind a player's rating: the 19 highest-rks
// plays, at most one per chart, best first.
func (s *RecordService) Best19(ctx context.Context, playerID uuid.UUID) ([]models.Record, error) {
	return s.repo.Best19(ctx, playerID)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrSubmittedTooEarly):
		return "too_early"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, ErrJudgmentCountMismatch):
		return "judgment_count"
	case errors.Is(err, ErrMaxComboOutOfRange):
		return "max_combo"
	default:
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return "not_found"
		}
		return "internal"
	}
}
