package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-catalog-client/storage/filestore"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s, err := filestore.Open(path, "secret")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth.token", "access-token-value"))
	require.NoError(t, s.Set(ctx, "auth.refreshToken", "refresh-token-value"))

	reopened, err := filestore.Open(path, "secret")
	require.NoError(t, err)
	v, found, err := reopened.Get(ctx, "auth.token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "access-token-value", v)
}

func TestFileStore_EncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := filestore.Open(path, "secret")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth.token", "plaintext-marker"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "plaintext-marker"))
	require.False(t, strings.Contains(string(raw), "auth.token"))
}

func TestFileStore_WrongSecret(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := filestore.Open(path, "secret")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))

	_, err = filestore.Open(path, "other")
	require.Error(t, err)
}

func TestFileStore_RequiresPathAndSecret(t *testing.T) {
	_, err := filestore.Open("", "secret")
	require.Error(t, err)
	_, err = filestore.Open(filepath.Join(t.TempDir(), "s.json"), "")
	require.Error(t, err)
}
