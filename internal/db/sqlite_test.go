package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}
