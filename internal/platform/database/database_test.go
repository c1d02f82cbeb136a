package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-session-relay/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "relay.db")

	db, err := Open(context.Background(), config.StorageSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported database backend")

	_, err = Open(context.Background(), config.StorageSQLite, " ")
	assert.ErrorContains(t, err, "empty dsn")
}
