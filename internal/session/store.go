// Package session stores ephemeral play sessions in BadgerDB.
//
// A session is written once at play start with a TTL, read during record
// validation, and consumed (deleted) exactly once. Consume runs the read and
// the delete inside a single Badger transaction so that two racing
// submissions for the same token cannot both observe the session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/models"
)

const keyPrefix = "play_session:"

// ErrSessionNotFound is returned when a token is absent, expired or already consumed.
var ErrSessionNotFound = errors.New("play session not found")

// Store is a BadgerDB-backed play-session store
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens a session store at path. An empty path opens an in-memory store.
func Open(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Issue creates a play session for the given references. The token is
// generated server-side and collision-checked against the store before the
// entry is written. earliestCompletionTime is issuance time plus the chart's
// audio duration, making the audio length a floor on claimed play time.
func (s *Store) Issue(ctx context.Context, chartID, configurationID, applicationID, playerID uuid.UUID, chartDuration time.Duration) (*models.PlaySession, error) {
	now := time.Now()

	sess := &models.PlaySession{
		ChartID:                chartID,
		ConfigurationID:        configurationID,
		ApplicationID:          applicationID,
		PlayerID:               playerID,
		IssuedAtMillis:         now.UnixMilli(),
		EarliestCompletionTime: now.Add(chartDuration),
	}

	for {
		token, err := newToken()
		if err != nil {
			return nil, err
		}
		sess.Token = token

		data, err := json.Marshal(sess)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session: %w", err)
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			key := []byte(keyPrefix + token)
			if _, err := txn.Get(key); err == nil {
				return errTokenCollision
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.SetEntry(badger.NewEntry(key, data).WithTTL(s.ttl))
		})
		if errors.Is(err, errTokenCollision) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		return sess, nil
	}
}

// Get retrieves a session by token without consuming it
func (s *Store) Get(ctx context.Context, token string) (*models.PlaySession, error) {
	var sess models.PlaySession

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// Consume deletes the session for token, returning ErrSessionNotFound if it
// is already gone. Get and Delete share one transaction; when two submissions
// race on the same token, Badger's conflict detection fails the loser, which
// is reported as ErrSessionNotFound.
func (s *Store) Consume(ctx context.Context, token string) error {
	key := []byte(keyPrefix + token)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrSessionNotFound
	}
	return err
}

var errTokenCollision = errors.New("token collision")

func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
