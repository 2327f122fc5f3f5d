package applock

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultPrompt     = "Authenticate to unlock"
	minPasscodeLength = 4
)

// Authenticator is the device check that unlocks the app, usually a
// biometric sensor with a passcode fallback.
type Authenticator interface {
	// Supported reports whether the check can run on this device.
	Supported(ctx context.Context) (bool, error)
	// Authenticate shows prompt and returns nil on success.
	Authenticate(ctx context.Context, prompt string) error
}

// PromptFunc asks the user for their passcode.
type PromptFunc func(ctx context.Context, prompt string) (string, error)

// PasscodeAuthenticator is the device passcode fallback. The passcode is kept
// bcrypt hashed under storage.KeyAppLockPasscode.
type PasscodeAuthenticator struct {
	store  storage.Store
	prompt PromptFunc
}

func NewPasscodeAuthenticator(store storage.Store, prompt PromptFunc) *PasscodeAuthenticator {
	return &PasscodeAuthenticator{store: store, prompt: prompt}
}

func (p *PasscodeAuthenticator) SetPasscode(ctx context.Context, passcode string) error {
	passcode = strings.TrimSpace(passcode)
	if len(passcode) < minPasscodeLength {
		return fmt.Errorf("[applock SetPasscode] passcode must be at least %d characters", minPasscodeLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("[applock SetPasscode] hash: %w", err)
	}
	return p.store.Set(ctx, storage.KeyAppLockPasscode, string(hash))
}

func (p *PasscodeAuthenticator) ClearPasscode(ctx context.Context) error {
	return p.store.Delete(ctx, storage.KeyAppLockPasscode)
}

// Supported is true once a passcode has been set.
func (p *PasscodeAuthenticator) Supported(ctx context.Context) (bool, error) {
	hash, found, err := p.store.Get(ctx, storage.KeyAppLockPasscode)
	if err != nil {
		return false, err
	}
	return found && hash != "", nil
}

func (p *PasscodeAuthenticator) Authenticate(ctx context.Context, prompt string) error {
	hash, found, err := p.store.Get(ctx, storage.KeyAppLockPasscode)
	if err != nil {
		return fmt.Errorf("[applock Authenticate] read passcode: %w", err)
	}
	if !found || hash == "" {
		return errors.ErrBiometricUnavailable
	}
	if p.prompt == nil {
		return errors.Wrapf(errors.ErrAuthenticationFailed, "[applock Authenticate] no passcode prompt configured")
	}
	passcode, err := p.prompt(ctx, prompt)
	if err != nil {
		return errors.Wrapf(errors.ErrAuthenticationFailed, "[applock Authenticate] %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(passcode))) != nil {
		return errors.ErrAuthenticationFailed
	}
	return nil
}
