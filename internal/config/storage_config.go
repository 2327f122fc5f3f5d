package config

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetStoragePath() string
	GetStorageSecret() string
}

var _ StorageConfig = mainConfig{}

func (c mainConfig) GetStorageDriver() string {
	return c.Storage.Driver
}

func (c mainConfig) GetStoragePath() string {
	return c.Storage.Path
}

// GetStorageSecret is the passphrase the encrypted file store derives its key from.
func (c mainConfig) GetStorageSecret() string {
	return c.Storage.Secret
}
