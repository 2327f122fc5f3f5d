package storage

import (
	"fmt"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/storage/filestore"
	"github.com/jrsteele09/go-catalog-client/storage/memstore"
	"github.com/jrsteele09/go-catalog-client/storage/sqlite"
	"github.com/rs/zerolog"
)

var (
	_ Store = (*memstore.Store)(nil)
	_ Store = (*filestore.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open returns the configured backend. If a durable backend cannot be opened
// the error is logged and an in-memory store is returned instead, so the
// client keeps working without persistence.
func Open(cfg config.StorageConfig, logger zerolog.Logger) Store {
	s, err := openDriver(cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.GetStorageDriver()).Msg("failed to open storage")
		logger.Warn().Msg("falling back to in-memory storage, data will not persist")
		return memstore.New()
	}
	return s
}

func openDriver(cfg config.StorageConfig) (Store, error) {
	switch cfg.GetStorageDriver() {
	case config.StorageDriverMemory:
		return memstore.New(), nil
	case config.StorageDriverFile:
		return filestore.Open(cfg.GetStoragePath(), cfg.GetStorageSecret())
	case config.StorageDriverSQLite:
		return sqlite.Open(cfg.GetStoragePath())
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.GetStorageDriver())
	}
}
