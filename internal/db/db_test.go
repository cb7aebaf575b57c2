package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDB(t *testing.T) {
	ctx := context.Background()

	for _, path := range []string{":memory:", filepath.Join(t.TempDir(), "master.db")} {
		conn, err := Connect(path)
		require.NoError(t, err)

		require.NoError(t, InitializeDB(ctx, conn))
		// Running it twice must be harmless.
		require.NoError(t, InitializeDB(ctx, conn))

		var tables []string
		err = conn.SelectContext(ctx, &tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
		require.NoError(t, err)
		require.Equal(t, []string{"game_results", "users"}, tables)

		require.NoError(t, conn.Close())
	}
}
