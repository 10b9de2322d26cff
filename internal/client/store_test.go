package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileSessionStore(path)

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save(&StoredSession{
		AccessToken: "tok",
		ExpiresAt:   expires,
		User:        &models.AuthUser{ID: "u1", Email: "a@b.com"},
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	sess, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok", sess.AccessToken)
	assert.True(t, expires.Equal(sess.ExpiresAt))
	assert.Equal(t, "a@b.com", sess.User.Email)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	sess, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access_token: [unterminated"), 0o600))

	_, err := NewFileSessionStore(path).Load()
	assert.Error(t, err)
}
