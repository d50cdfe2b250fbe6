package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neointegratech/portal-client/internal/session"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := session.NewFileStore(path)

	require.NoError(t, store.Save("tok-123"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	// A fresh store over the same path sees the same token.
	token2, err := session.NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token2)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "absent"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStoreClearIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := session.NewFileStore(path)

	require.NoError(t, store.Save("tok"))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := session.NewFileStore(path)
	require.NoError(t, store.Save("tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := session.NewFileStore(path)

	assert.Empty(t, store.Token())
	require.NoError(t, store.Save("tok-456"))
	assert.Equal(t, "tok-456", store.Token())
}
