package errors

import (
	"errors"
	"fmt"
)

// Common error types for the catalog client
var (
	// Authentication errors
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Authorization errors
	ErrForbidden = errors.New("you don't have permission to delete products")

	// App lock errors
	ErrLocked               = errors.New("app is locked")
	ErrBiometricUnavailable = errors.New("biometric authentication is not available on this device")

	// General errors
	ErrOffline  = errors.New("offline")
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
