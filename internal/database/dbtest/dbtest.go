// Package dbtest opens migrated in-memory SQLite stores for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database"
	"github.com/webermont/LeiaMais/internal/database/queries"
)

// NewStore returns a store over a fresh in-memory database that is closed
// when the test ends.
func NewStore(t testing.TB) *queries.SQLStore {
	t.Helper()

	db, err := database.NewSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return db.Store()
}
