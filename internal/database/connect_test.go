package database_test

import (
	"path/filepath"
	"testing"

	"github.com/civicarchive/councilcast/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSqliteRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	manager := database.New()
	require.NoError(t, manager.Connect(database.DatabaseConfig{Dialect: database.DialectSqlite, Path: path}))
	defer manager.Close()

	assert.FileExists(t, path)

	var count int
	require.NoError(t, manager.GetSqlxDb().Get(&count, "SELECT COUNT(*) FROM uploads"))
	assert.Zero(t, count)

	// Migrations are idempotent across reconnects
	require.NoError(t, manager.ExecuteMigrations())
}

func TestConnectRejectsUnknownDialect(t *testing.T) {
	err := database.New().Connect(database.DatabaseConfig{Dialect: "oracle"})
	assert.ErrorContains(t, err, "unsupported database dialect")
}

func TestWrapTxBeforeConnect(t *testing.T) {
	err := database.New().WrapTx(nil)
	assert.ErrorIs(t, err, database.ErrNotConnected)
}
