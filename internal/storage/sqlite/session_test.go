package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/brew-pos/internal/domain/auth"
	"github.com/xenking/brew-pos/internal/domain/user"
)

func newStore(t *testing.T) (*SessionStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "pos.db")
	conn, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSessionStore(conn), path
}

func TestSessionStore_Empty(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, auth.ErrNoSession)
	require.NoError(t, store.Clear(context.Background()))
}

func TestSessionStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	saved := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	sess := auth.Session{
		Token: "tok-1",
		User: user.User{
			ID:        7,
			Username:  "maria",
			FullName:  "Maria Clara",
			Role:      user.RoleManager,
			Active:    true,
			CreatedAt: saved.AddDate(0, -1, 0),
		},
		SavedAt: saved,
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, sess.User.ID, got.User.ID)
	assert.Equal(t, sess.User.Username, got.User.Username)
	assert.Equal(t, sess.User.FullName, got.User.FullName)
	assert.Equal(t, sess.User.Role, got.User.Role)
	assert.True(t, got.User.Active)
	assert.True(t, sess.User.CreatedAt.Equal(got.User.CreatedAt))
	assert.True(t, saved.Equal(got.SavedAt))

	sess.Token = "tok-2"
	sess.User.Role = user.RoleCashier
	require.NoError(t, store.Save(ctx, sess))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, user.RoleCashier, got.User.Role)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, auth.ErrNoSession)
}

func TestSessionStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	store, path := newStore(t)
	require.NoError(t, store.Save(ctx, auth.Session{
		Token:   "tok-1",
		User:    user.User{ID: 1, Username: "admin", Role: user.RoleAdmin, Active: true},
		SavedAt: time.Now(),
	}))

	conn, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	got, err := NewSessionStore(conn).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.User.Username)
	assert.True(t, got.User.CreatedAt.IsZero())
}
