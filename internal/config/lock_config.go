package config

import "time"

type LockConfig interface {
	GetInactivityTimeout() time.Duration
}

var _ LockConfig = mainConfig{}

func (c mainConfig) GetInactivityTimeout() time.Duration {
	return c.Lock.InactivityTimeout
}
