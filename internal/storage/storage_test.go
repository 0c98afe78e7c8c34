package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-history/pkg/database"
)

func TestOpenFallsBackToMemoryWhenUnreachable(t *testing.T) {
	cfg := &database.Config{
		URI:            "mongodb://127.0.0.1:1", // nothing listens here
		Database:       "weather_history_test",
		ConnectTimeout: 200 * time.Millisecond,
	}

	store := Open(context.Background(), cfg, testLogger(), testMetrics)

	assert.False(t, store.IsConnected())
	_, ok := store.(*MemoryStore)
	assert.True(t, ok, "fallback backend must be the in-memory store")
}

func TestOpenFallsBackOnMalformedURI(t *testing.T) {
	cfg := &database.Config{
		URI:            "not-a-uri",
		Database:       "weather_history_test",
		ConnectTimeout: 200 * time.Millisecond,
	}

	store := Open(context.Background(), cfg, testLogger(), testMetrics)

	assert.False(t, store.IsConnected())
}

func TestFallbackStoreIsFullyFunctional(t *testing.T) {
	cfg := &database.Config{
		URI:            "mongodb://127.0.0.1:1",
		Database:       "weather_history_test",
		ConnectTimeout: 200 * time.Millisecond,
	}

	store := Open(context.Background(), cfg, testLogger(), testMetrics)
	ctx := context.Background()

	id, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
}

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &StorageError{Op: "insert", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert")
	assert.True(t, err.IsTransient())
}
