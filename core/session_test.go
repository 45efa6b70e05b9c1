package core

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-login/v2/internal/auth"
)

// setupTestDB opens a fresh sqlite file in a temp dir
func setupTestDB(t *testing.T) *Database {
	t.Helper()

	db := NewDatabase(filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, db.Connect(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSession(t *testing.T, token, userJSON string) Session {
	t.Helper()
	var user auth.User
	require.NoError(t, json.Unmarshal([]byte(userJSON), &user))
	return Session{Token: token, User: user}
}

func TestSessionStores(t *testing.T) {
	stores := map[string]func(t *testing.T) SessionStore{
		"sqlite": func(t *testing.T) SessionStore { return NewSQLiteStore(setupTestDB(t)) },
		"memory": func(t *testing.T) SessionStore { return NewMemoryStore() },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, err := store.Load(ctx)
			require.ErrorIs(t, err, ErrNoSession)

			first := testSession(t, "abc123", `{"role":"Lead","username":"alice","team":"north"}`)
			require.NoError(t, store.Save(ctx, first))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc123", got.Token)
			assert.Equal(t, "Lead", got.User.Role)
			assert.Equal(t, "alice", got.User.Username)

			raw, err := json.Marshal(got.User)
			require.NoError(t, err)
			assert.JSONEq(t, `{"role":"Lead","username":"alice","team":"north"}`, string(raw))

			second := testSession(t, "def456", `{"role":"Sales"}`)
			require.NoError(t, store.Save(ctx, second))
			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "def456", got.Token)
			assert.Equal(t, "Sales", got.User.Role)

			require.NoError(t, store.Clear(ctx))
			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, ErrNoSession)

			// Clearing twice is fine.
			assert.NoError(t, store.Clear(ctx))
		})
	}
}

func TestSQLiteStorePersistsAcrossConnections(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	db := NewDatabase(path)
	require.NoError(t, db.Connect(ctx))
	require.NoError(t, NewSQLiteStore(db).Save(ctx, testSession(t, "tok", `{"role":"Sourcing"}`)))
	require.NoError(t, db.Close())

	reopened := NewDatabase(path)
	require.NoError(t, reopened.Connect(ctx))
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := NewSQLiteStore(reopened).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "Sourcing", got.User.Role)
}

func TestSQLiteStoreIncompleteSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.Conn().ExecContext(ctx, `INSERT INTO storage (key, value) VALUES ('token', 'orphan')`)
	require.NoError(t, err)

	_, err = NewSQLiteStore(db).Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestSQLiteStoreLeavesOtherKeys(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewSQLiteStore(db)

	_, err := db.Conn().ExecContext(ctx, `INSERT INTO storage (key, value) VALUES ('theme', 'dark')`)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, testSession(t, "t", `{"role":"Lead"}`)))
	require.NoError(t, store.Clear(ctx))

	var value string
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT value FROM storage WHERE key = 'theme'`).Scan(&value))
	assert.Equal(t, "dark", value)
}
