package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetTokenExpiryMinutes() int
	GetDefaultPageLimit() int
}

var _ APIConfig = mainConfig{}

// GetAPIBaseURL returns the catalog API root without a trailing slash
// (e.g., "https://dummyjson.com").
func (c mainConfig) GetAPIBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}

// GetRequestTimeout bounds every outbound request, including the refresh call.
func (c mainConfig) GetRequestTimeout() time.Duration {
	return c.API.RequestTimeout
}

// GetTokenExpiryMinutes is sent as expiresInMins on login and refresh. Zero
// leaves the server default in place.
func (c mainConfig) GetTokenExpiryMinutes() int {
	return c.API.TokenExpiryMins
}

func (c mainConfig) GetDefaultPageLimit() int {
	return c.API.DefaultPageLimit
}
