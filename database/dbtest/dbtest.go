// Package dbtest opens throwaway in-memory edge stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"friendlink/config"
	"friendlink/database"
	"friendlink/models"
)

// Open returns a fresh in-memory SQLite store with the schema created.
// A single connection keeps every query on the same in-memory database.
func Open(t testing.TB) *database.Store {
	t.Helper()
	db, err := database.Open(database.Options{
		Driver:       config.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateTables(context.Background(), db))
	return database.NewStore(db)
}

// Users creates one user per name and returns them keyed by name.
func Users(t testing.TB, store *database.Store, names ...string) map[string]*models.User {
	t.Helper()
	users := make(map[string]*models.User, len(names))
	for i, name := range names {
		u, err := store.CreateUser(context.Background(), name, fmt.Sprintf("+1555%07d", i+1))
		require.NoError(t, err)
		users[name] = u
	}
	return users
}

// Befriend makes a and b friends through the request/accept path.
func Befriend(t testing.TB, store *database.Store, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	outcome, err := store.RequestFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	if outcome == database.RequestAccepted {
		return
	}
	require.NoError(t, store.AcceptFriend(ctx, b.ID, a.ID))
}

// Graph wires an undirected friendship per pair of names.
func Graph(t testing.TB, store *database.Store, users map[string]*models.User, pairs ...[2]string) {
	t.Helper()
	for _, p := range pairs {
		a, ok := users[p[0]]
		require.True(t, ok, "unknown user %q", p[0])
		b, ok := users[p[1]]
		require.True(t, ok, "unknown user %q", p[1])
		Befriend(t, store, a, b)
	}
}

// Exec runs raw SQL against the store, for tests that need rows the
// service would never write.
func Exec(t testing.TB, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}
