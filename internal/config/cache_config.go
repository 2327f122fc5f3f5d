package config

import "time"

type CacheConfig interface {
	GetStaleTime() time.Duration
	GetCategoriesStaleTime() time.Duration
	GetCacheGCTime() time.Duration
	GetQueryRetries() int
}

var _ CacheConfig = mainConfig{}

func (c mainConfig) GetStaleTime() time.Duration {
	return c.Cache.StaleTime
}

func (c mainConfig) GetCategoriesStaleTime() time.Duration {
	return c.Cache.CategoriesStaleTime
}

// GetCacheGCTime is how long cached data is kept for offline access.
func (c mainConfig) GetCacheGCTime() time.Duration {
	return c.Cache.GCTime
}

func (c mainConfig) GetQueryRetries() int {
	if c.Cache.QueryRetries == nil {
		return 0
	}
	return *c.Cache.QueryRetries
}
