package storage_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/jrsteele09/go-catalog-client/storage/filestore"
	"github.com/jrsteele09/go-catalog-client/storage/memstore"
	"github.com/jrsteele09/go-catalog-client/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type testProfile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func backends(t *testing.T) map[string]func(t *testing.T) storage.Store {
	t.Helper()
	return map[string]func(t *testing.T) storage.Store{
		"memory": func(t *testing.T) storage.Store {
			return memstore.New()
		},
		"file": func(t *testing.T) storage.Store {
			s, err := filestore.Open(filepath.Join(t.TempDir(), "store.json"), "test-secret")
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) storage.Store {
			s, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			_, found, err := s.Get(ctx, storage.KeyAuthToken)
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.Set(ctx, storage.KeyAuthToken, "T1"))
			require.NoError(t, s.Set(ctx, storage.KeyAuthToken, "T2"))
			v, found, err := s.Get(ctx, storage.KeyAuthToken)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "T2", v)

			ok, err := storage.Contains(ctx, s, storage.KeyAuthToken)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, s.Delete(ctx, storage.KeyAuthToken))
			require.NoError(t, s.Delete(ctx, storage.KeyAuthToken), "deleting a missing key is not an error")
			_, found, err = s.Get(ctx, storage.KeyAuthToken)
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.Set(ctx, "a", "1"))
			require.NoError(t, s.Set(ctx, "b", "2"))
			require.NoError(t, s.Clear(ctx))
			_, found, err = s.Get(ctx, "a")
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestStore_ConcurrentSet(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			const writers, writes = 16, 50
			g, ctx := errgroup.WithContext(ctx)
			for w := range writers {
				g.Go(func() error {
					for i := range writes {
						if err := s.Set(ctx, fmt.Sprintf("k%d", w), fmt.Sprintf("v%d", i)); err != nil {
							return err
						}
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			for w := range writers {
				v, found, err := s.Get(context.Background(), fmt.Sprintf("k%d", w))
				require.NoError(t, err)
				require.True(t, found)
				require.Equal(t, fmt.Sprintf("v%d", writes-1), v)
			}
		})
	}
}

func TestObjectHelpers(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, storage.SetObject(ctx, s, storage.KeyAuthUser, testProfile{ID: 1, Username: "emilys"}))
	got, found, err := storage.GetObject[testProfile](ctx, s, storage.KeyAuthUser)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "emilys", got.Username)

	missing, found, err := storage.GetObject[testProfile](ctx, s, "nope")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, missing)

	require.NoError(t, s.Set(ctx, "corrupt", "{not json"))
	_, found, err = storage.GetObject[testProfile](ctx, s, "corrupt")
	require.Error(t, err)
	require.False(t, found)
}

func TestBoolHelpers(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	_, found, err := storage.GetBool(ctx, s, storage.KeyBiometricEnabled)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, storage.SetBool(ctx, s, storage.KeyBiometricEnabled, false))
	v, found, err := storage.GetBool(ctx, s, storage.KeyBiometricEnabled)
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, v)
}

type storageCfg struct {
	driver, path string
}

func (c storageCfg) GetStorageDriver() string { return c.driver }
func (c storageCfg) GetStoragePath() string   { return c.path }
func (c storageCfg) GetStorageSecret() string { return "test-secret" }

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s := storage.Open(storageCfg{driver: config.StorageDriverSQLite, path: filepath.Join(dir, "kv.db")}, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	require.IsType(t, &sqlite.Store{}, s)

	s = storage.Open(storageCfg{driver: config.StorageDriverFile, path: filepath.Join(dir, "kv.json")}, zerolog.Nop())
	require.IsType(t, &filestore.Store{}, s)

	s = storage.Open(storageCfg{driver: "bogus"}, zerolog.Nop())
	require.IsType(t, &memstore.Store{}, s, "unknown drivers fall back to memory")

	s = storage.Open(storageCfg{driver: config.StorageDriverFile, path: ""}, zerolog.Nop())
	require.IsType(t, &memstore.Store{}, s, "open failures fall back to memory")
}
