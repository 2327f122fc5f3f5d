package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesConnectionPragmas(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	var journal string
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&journal))
	require.Equal(t, "wal", journal)

	var busy int
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&busy))
	require.Equal(t, 5000, busy)

	var synchronous int
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, `PRAGMA synchronous`).Scan(&synchronous))
	require.Equal(t, 1, synchronous, "NORMAL")
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}
