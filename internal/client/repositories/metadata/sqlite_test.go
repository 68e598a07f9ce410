package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "nickname", "ann"))

	v, ok, err := r.Get(ctx, "nickname")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ann", v)
}

func TestGet_NotExists(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, v)
}

func TestGet_EmptyValueIsPresent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "avatar_url", ""))

	v, ok, err := r.Get(ctx, "avatar_url")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", "old"))
	require.NoError(t, r.Set(ctx, "k", "new"))

	v, _, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "new", v)
}

func TestList_ReturnsAllPairs(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
}

func TestDelete_RemovesKeys_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", "1"))
	require.NoError(t, r.Set(ctx, "y", "2"))
	require.NoError(t, r.Set(ctx, "z", "3"))
	require.NoError(t, r.Delete(ctx, "x", "y"))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"z": "3"}, m)

	require.NoError(t, r.Delete(ctx, "x"))
	require.NoError(t, r.Delete(ctx))
}

func TestClear_RemovesAllKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")
	require.ErrorContains(t, r.Set(ctx, "k", "v"), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")
	_, err = r.List(ctx)
	require.ErrorContains(t, err, "failed to list metadata")
}

func TestStore_SetMany(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.SetMany(ctx, map[string]string{"token": "t", "user_id": "7"}))

	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "t", "user_id": "7"}, m)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "draft_title", "kept"))

	boom := errors.New("boom")
	err := s.Update(ctx, func(ctx context.Context, r Repository) error {
		require.NoError(t, r.Set(ctx, "draft_title", "lost"))
		require.NoError(t, r.Set(ctx, "draft_body", "lost"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"draft_title": "kept"}, m)
}
