package config

import (
	"fmt"
	"time"
)

type MockAPIConfig interface {
	GetMockAPIPort() string
	GetMockAPISigningSecret() string
	GetMockAPIAccessTokenTTL() time.Duration
	GetMockAPIRefreshTokenLength() int
}

var _ MockAPIConfig = mainConfig{}

// GetMockAPIPort returns the listen address in ":port" form.
func (c mainConfig) GetMockAPIPort() string {
	port := c.MockAPI.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (c mainConfig) GetMockAPISigningSecret() string {
	return c.MockAPI.SigningSecret
}

func (c mainConfig) GetMockAPIAccessTokenTTL() time.Duration {
	return c.MockAPI.AccessTokenTTL
}

func (mainConfig) GetMockAPIRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
