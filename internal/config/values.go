package config

import "time"

// values is the on-disk and environment representation of the configuration.
// Zero values are replaced by defaults in withDefaults.
type values struct {
	AppName  string `yaml:"app_name" env:"CATALOG_APP_NAME"`
	Env      string `yaml:"env" env:"ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	API     apiValues     `yaml:"api"`
	Cache   cacheValues   `yaml:"cache"`
	Lock    lockValues    `yaml:"lock"`
	Storage storageValues `yaml:"storage"`
	MockAPI mockAPIValues `yaml:"mock_api"`
}

type apiValues struct {
	BaseURL          string        `yaml:"base_url" env:"CATALOG_API_URL"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"CATALOG_REQUEST_TIMEOUT"`
	TokenExpiryMins  int           `yaml:"token_expiry_mins" env:"CATALOG_TOKEN_EXPIRY_MINS"`
	DefaultPageLimit int           `yaml:"default_page_limit" env:"CATALOG_PAGE_LIMIT"`
}

type cacheValues struct {
	StaleTime           time.Duration `yaml:"stale_time" env:"CATALOG_CACHE_STALE_TIME"`
	CategoriesStaleTime time.Duration `yaml:"categories_stale_time" env:"CATALOG_CACHE_CATEGORIES_STALE_TIME"`
	GCTime              time.Duration `yaml:"gc_time" env:"CATALOG_CACHE_GC_TIME"`
	QueryRetries        *int          `yaml:"query_retries" env:"CATALOG_CACHE_QUERY_RETRIES"`
}

type lockValues struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout" env:"BIOMETRIC_LOCK_TIMEOUT"`
}

type storageValues struct {
	Driver string `yaml:"driver" env:"CATALOG_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"CATALOG_STORAGE_PATH"`
	Secret string `yaml:"secret" env:"CATALOG_STORAGE_SECRET"`
}

type mockAPIValues struct {
	Port           string        `yaml:"port" env:"MOCKAPI_PORT"`
	SigningSecret  string        `yaml:"signing_secret" env:"MOCKAPI_SIGNING_SECRET"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"MOCKAPI_ACCESS_TOKEN_TTL"`
}

func defaultValues() values {
	return values{}.withDefaults()
}

func (v values) withDefaults() values {
	if v.AppName == "" {
		v.AppName = "Catalog"
	}
	if v.Env == "" {
		v.Env = "DEV"
	}
	if v.LogLevel == "" {
		v.LogLevel = "info"
	}
	if v.API.BaseURL == "" {
		v.API.BaseURL = "https://dummyjson.com"
	}
	if v.API.RequestTimeout == 0 {
		v.API.RequestTimeout = 10 * time.Second
	}
	if v.API.DefaultPageLimit == 0 {
		v.API.DefaultPageLimit = 30
	}
	if v.Cache.StaleTime == 0 {
		v.Cache.StaleTime = 5 * time.Minute
	}
	if v.Cache.CategoriesStaleTime == 0 {
		v.Cache.CategoriesStaleTime = 10 * time.Minute
	}
	if v.Cache.GCTime == 0 {
		v.Cache.GCTime = 24 * time.Hour
	}
	if v.Cache.QueryRetries == nil {
		retries := 2
		v.Cache.QueryRetries = &retries
	}
	if v.Lock.InactivityTimeout == 0 {
		v.Lock.InactivityTimeout = 5 * time.Minute
	}
	if v.Storage.Driver == "" {
		v.Storage.Driver = StorageDriverFile
	}
	if v.Storage.Path == "" {
		v.Storage.Path = "./data/catalog.store"
	}
	if v.Storage.Secret == "" {
		v.Storage.Secret = "secure-encryption-key-change-in-production"
	}
	if v.MockAPI.Port == "" {
		v.MockAPI.Port = "8080"
	}
	if v.MockAPI.SigningSecret == "" {
		v.MockAPI.SigningSecret = "mockapi-dev-secret"
	}
	if v.MockAPI.AccessTokenTTL == 0 {
		v.MockAPI.AccessTokenTTL = 60 * time.Minute
	}
	return v
}
