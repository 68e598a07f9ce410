// Package kvtest opens throwaway metadata stores for tests.
package kvtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophboard/internal/client/client"
	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated store in a fresh file under t.TempDir, along with
// its path so the test can reopen it to simulate a restart.
func Open(t testing.TB) (*metadata.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gophboard.db")
	return Reopen(t, path), path
}

// Reopen opens an existing database file.
func Reopen(t testing.TB, path string) *metadata.Store {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewStore(db)
}

// DB opens a raw handle on path for tests that corrupt rows directly.
func DB(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
