package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/mk-ultron/ai-image-analysis/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.NewSQLiteDB(logger, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	return NewSQLStore(db)
}

func TestLookupMissIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	text, ok, err := s.Lookup(context.Background(), "deadbeef")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestInsertLookupRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "fp1", "A red square.", `{"make":"Unknown"}`))

	text, ok, err := s.Lookup(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A red square.", text)
}

func TestInsertFirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "fp1", "first description", "{}"))
	require.NoError(t, s.Insert(ctx, "fp1", "second description", "{}"))

	text, ok, err := s.Lookup(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first description", text, "duplicate insert must be a no-op")

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInsertSurvivesRestart(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	db, err := database.NewSQLiteDB(logger, path)
	require.NoError(t, err)
	require.NoError(t, NewSQLStore(db).Insert(ctx, "fp1", "persists", "{}"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	reopened, err := database.NewSQLiteDB(logger, path)
	require.NoError(t, err)

	text, ok, err := NewSQLStore(reopened).Lookup(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persists", text)
}

func TestRecentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "fp1", "oldest", "{}"))
	require.NoError(t, s.Insert(ctx, "fp2", "middle", "{}"))
	require.NoError(t, s.Insert(ctx, "fp3", "newest", "{}"))

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fp3", entries[0].Fingerprint)
	assert.Equal(t, "fp2", entries[1].Fingerprint)
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	require.NoError(t, s.Insert(ctx, "fp1", "one", "{}"))
	require.NoError(t, s.Insert(ctx, "fp2", "two", "{}"))

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
