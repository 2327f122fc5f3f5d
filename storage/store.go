// Package storage defines the durable key-value store the client keeps its
// session, settings and query cache in.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Keys used by the client.
const (
	KeyAuthToken        = "auth.token"
	KeyAuthRefreshToken = "auth.refreshToken"
	KeyAuthUser         = "auth.user"
	KeyBiometricEnabled = "biometric.enabled"
	KeyAppLockPasscode  = "applock.passcode"
	KeyQueryCache       = "query-cache"
)

// Store persists string values by key. Deleting a key that does not exist
// is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Contains reports whether key holds a value.
func Contains(ctx context.Context, s Store, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

// SetObject stores v as JSON under key.
func SetObject(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("[storage SetObject] marshal %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// GetObject decodes the JSON value stored under key. A missing key returns
// (nil, false, nil); a value that is not valid JSON for T returns an error.
func GetObject[T any](ctx context.Context, s Store, key string) (*T, bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found || raw == "" {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, fmt.Errorf("[storage GetObject] parse %q: %w", key, err)
	}
	return &v, true, nil
}

func SetBool(ctx context.Context, s Store, key string, v bool) error {
	return s.Set(ctx, key, strconv.FormatBool(v))
}

// GetBool returns the stored boolean; found is false when the key is missing
// or does not hold a boolean.
func GetBool(ctx context.Context, s Store, key string) (value bool, found bool, err error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, nil
	}
	return b, true, nil
}
