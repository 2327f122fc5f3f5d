package config

import "strings"

func (c mainConfig) GetAppName() string {
	return c.AppName
}

// GetEnv returns the deployment environment, "DEV" unless overridden.
func (c mainConfig) GetEnv() string {
	return strings.ToUpper(c.Env)
}

func (c mainConfig) GetLogLevel() string {
	return strings.ToLower(c.LogLevel)
}
