package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belzunces/monsieurchef/config"
	"github.com/belzunces/monsieurchef/internal/kv"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		StorageBackend: config.StorageSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := Open(cfg)
	require.NoError(t, err)
	assert.NoError(t, HealthCheck(context.Background(), db))

	store, err := kv.NewSQLStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "mcc_users", "[]"))
	got, err := store.Get(ctx, "mcc_users")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestOpenRejectsNonSQLBackend(t *testing.T) {
	_, err := Open(&config.Config{StorageBackend: config.StorageMemory})
	assert.Error(t, err)
}
