package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "test.db"), Env: "dev"})
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records;").Scan(&n))
	assert.Equal(t, 0, n)

	// Migrations are recorded and re-running them is a no-op.
	require.NoError(t, Migrate(ctx, db))
	var applied int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations;").Scan(&applied))
	assert.GreaterOrEqual(t, applied, 1)
}

func TestSeedDevIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "test.db"), Env: "dev"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, SeedDev(ctx, db))
	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records;").Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, SeedDev(ctx, db))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records;").Scan(&n))
	assert.Equal(t, 2, n)
}
