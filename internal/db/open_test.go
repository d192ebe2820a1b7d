package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "results.db")

	conn, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, DriverSQLite, conn.DriverName())
	assert.Equal(t, 1, conn.Stats().MaxOpenConnections)

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestOpenPostgresWithConfig(t *testing.T) {
	if os.Getenv("CADETQUIZ_INTEGRATION") != "1" {
		t.Skip("set CADETQUIZ_INTEGRATION=1 to run")
	}
	dsn := os.Getenv("CADETQUIZ_TEST_DSN")
	if dsn == "" {
		t.Fatalf("CADETQUIZ_TEST_DSN is required for integration tests")
	}

	conn, err := OpenPostgresWithConfig(context.Background(), dsn, PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, DriverPostgres, conn.DriverName())
	assert.Equal(t, 4, conn.Stats().MaxOpenConnections)
}
