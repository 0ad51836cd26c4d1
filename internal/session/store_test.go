package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", 14*24*time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_IssueAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chartID := uuid.New()
	configID := uuid.New()
	appID := uuid.New()
	playerID := uuid.New()

	before := time.Now()
	sess, err := store.Issue(ctx, chartID, configID, appID, playerID, 2*time.Minute)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, chartID, sess.ChartID)
	assert.Equal(t, configID, sess.ConfigurationID)
	assert.Equal(t, appID, sess.ApplicationID)
	assert.Equal(t, playerID, sess.PlayerID)
	assert.GreaterOrEqual(t, sess.IssuedAtMillis, before.UnixMilli())

	// The session is not redeemable before the chart's audio has played out.
	assert.True(t, sess.EarliestCompletionTime.After(before.Add(time.Minute)))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.IssuedAtMillis, got.IssuedAtMillis)
}

func TestStore_GetUnknownToken(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_TokensAreUnique(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess, err := store.Issue(ctx, uuid.New(), uuid.New(), uuid.New(), uuid.New(), time.Minute)
		require.NoError(t, err)
		assert.False(t, seen[sess.Token])
		seen[sess.Token] = true
	}
}

func TestStore_ConsumeIsSingleUse(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Issue(ctx, uuid.New(), uuid.New(), uuid.New(), uuid.New(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Consume(ctx, sess.Token))

	// Second consumption fails, and the session is gone.
	assert.ErrorIs(t, store.Consume(ctx, sess.Token), ErrSessionNotFound)
	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ConcurrentConsume(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Issue(ctx, uuid.New(), uuid.New(), uuid.New(), uuid.New(), time.Minute)
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Consume(ctx, sess.Token)
		}()
	}
	wg.Wait()
	close(results)

	// Exactly one goroutine wins the token.
	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSessionNotFound)
		}
	}
	assert.Equal(t, 1, succeeded)
}
