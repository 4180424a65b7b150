package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore(t *testing.T) {
	t.Run("Should return an empty session when nothing is stored", func(t *testing.T) {
		store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.yaml"))
		require.NoError(t, err)
		sess, err := store.Load()
		require.NoError(t, err)
		assert.False(t, sess.Authenticated())
	})

	t.Run("Should save privately and load back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "session.yaml")
		store, err := NewSessionStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Save(&Session{Token: "tok", Username: "admin"}))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		sess, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok", sess.Token)
		assert.Equal(t, "admin", sess.Username)
	})

	t.Run("Should refuse to save without token", func(t *testing.T) {
		store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.yaml"))
		require.NoError(t, err)
		assert.Error(t, store.Save(&Session{Username: "admin"}))
	})

	t.Run("Should clear idempotently", func(t *testing.T) {
		store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.yaml"))
		require.NoError(t, err)
		require.NoError(t, store.Save(&Session{Token: "tok"}))
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())
		sess, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, sess.Token)
	})

	t.Run("Should report malformed files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.yaml")
		require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))
		store, err := NewSessionStore(path)
		require.NoError(t, err)
		_, err = store.Load()
		assert.Error(t, err)
	})
}
