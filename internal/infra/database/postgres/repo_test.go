package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Миграции обязаны жить в той же схеме, в которую ходят запросы.
func TestMigrationsMatchQuerySchema(t *testing.T) {
	entries, err := EmbeddedMigrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		b, err := EmbeddedMigrations.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		require.Contains(t, string(b), schema+".", e.Name())
	}
}
