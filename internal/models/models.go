package models

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a registered player
type Player struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Rks          float64   `db:"rks" json:"rks"`
	Experience   int64     `db:"experience" json:"experience"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PlayerSummary is the lightweight player representation embedded in responses
type PlayerSummary struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Rks        float64   `json:"rks"`
	Experience int64     `json:"experience"`
}

// Summary returns the response representation of a player
func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		ID:         p.ID,
		Username:   p.Username,
		Rks:        p.Rks,
		Experience: p.Experience,
	}
}

// Application represents a client application allowed to submit records.
// Secret is the shared key used to sign play-result payloads.
type Application struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Secret    string    `db:"secret" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Chart represents a playable chart of a song
type Chart struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ApplicationID   uuid.UUID `db:"application_id" json:"application_id"`
	Title           string    `db:"title" json:"title"`
	Level           string    `db:"level" json:"level"`
	Difficulty      float64   `db:"difficulty" json:"difficulty"`
	NoteCount       int       `db:"note_count" json:"note_count"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	FileChecksum    *string   `db:"file_checksum" json:"file_checksum,omitempty"`
	IsRanked        bool      `db:"is_ranked" json:"is_ranked"`
	PlayCount       int64     `db:"play_count" json:"play_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PlayConfiguration holds a player's timing windows, snapshotted onto records
// so later edits do not rewrite history
type PlayConfiguration struct {
	ID              uuid.UUID `db:"id" json:"id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	Name            string    `db:"name" json:"name"`
	PerfectJudgment int       `db:"perfect_judgment" json:"perfect_judgment"`
	GoodJudgment    int       `db:"good_judgment" json:"good_judgment"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Record is an immutable play result
type Record struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ChartID         uuid.UUID `db:"chart_id" json:"chart_id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	ApplicationID   uuid.UUID `db:"application_id" json:"application_id"`
	Perfect         int       `db:"perfect" json:"perfect"`
	GoodEarly       int       `db:"good_early" json:"good_early"`
	GoodLate        int       `db:"good_late" json:"good_late"`
	Bad             int       `db:"bad" json:"bad"`
	Miss            int       `db:"miss" json:"miss"`
	MaxCombo        int       `db:"max_combo" json:"max_combo"`
	Score           int       `db:"score" json:"score"`
	Accuracy        float64   `db:"accuracy" json:"accuracy"`
	IsFullCombo     bool      `db:"is_full_combo" json:"is_full_combo"`
	Rks             float64   `db:"rks" json:"rks"`
	StdDeviation    float64   `db:"std_deviation" json:"std_deviation"`
	PerfectJudgment int       `db:"perfect_judgment" json:"perfect_judgment"`
	GoodJudgment    int       `db:"good_judgment" json:"good_judgment"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PlaySession is the ephemeral state issued at play start and consumed exactly
// once at record submission. It lives in the session store, not in postgres.
type PlaySession struct {
	Token                  string    `json:"token"`
	ChartID                uuid.UUID `json:"chart_id"`
	ConfigurationID        uuid.UUID `json:"configuration_id"`
	ApplicationID          uuid.UUID `json:"application_id"`
	PlayerID               uuid.UUID `json:"player_id"`
	IssuedAtMillis         int64     `json:"issued_at_millis"`
	EarliestCompletionTime time.Time `json:"earliest_completion_time"`
}
