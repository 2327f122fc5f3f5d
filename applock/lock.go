// Package applock locks the app after a period of inactivity or when it is
// sent to the background, and unlocks it through an Authenticator.
package applock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/rs/zerolog"
)

type State struct {
	Enabled        bool
	Supported      bool
	Locked         bool
	RequiresUnlock bool
	LastActive     time.Time
}

// SessionState reports whether someone is signed in. The lock only engages
// for authenticated sessions.
type SessionState interface {
	IsAuthenticated() bool
}

type Lock struct {
	store   storage.Store
	auth    Authenticator
	session SessionState
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.Mutex
	state  State
	timer  *time.Timer
	onLock func()
}

type Option func(*Lock)

// WithOnLock registers a callback run whenever the app becomes locked.
func WithOnLock(fn func()) Option {
	return func(l *Lock) {
		l.onLock = fn
	}
}

func New(store storage.Store, auth Authenticator, session SessionState, cfg config.LockConfig, logger zerolog.Logger, opts ...Option) *Lock {
	l := &Lock{
		store:   store,
		auth:    auth,
		session: session,
		timeout: cfg.GetInactivityTimeout(),
		logger:  logger.With().Str("component", "applock").Logger(),
		state:   State{Enabled: true, LastActive: time.Now()},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore reads the enabled flag from storage. The lock is enabled unless
// it was explicitly turned off.
func (l *Lock) Restore(ctx context.Context) error {
	enabled, found, err := storage.GetBool(ctx, l.store, storage.KeyBiometricEnabled)
	if err != nil {
		return fmt.Errorf("[applock Restore] %w", err)
	}
	l.mu.Lock()
	l.state.Enabled = !found || enabled
	l.mu.Unlock()
	return nil
}

func (l *Lock) SetEnabled(ctx context.Context, enabled bool) error {
	l.mu.Lock()
	l.state.Enabled = enabled
	if !enabled {
		l.stopTimerLocked()
		l.state.Locked = false
		l.state.RequiresUnlock = false
	}
	l.mu.Unlock()

	if err := storage.SetBool(ctx, l.store, storage.KeyBiometricEnabled, enabled); err != nil {
		return fmt.Errorf("[applock SetEnabled] %w", err)
	}
	l.logger.Info().Bool("enabled", enabled).Msg("app lock setting changed")
	return nil
}

// CheckSupport asks the authenticator whether it can run. Errors count as
// unsupported.
func (l *Lock) CheckSupport(ctx context.Context) bool {
	supported, err := l.auth.Supported(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("checking authenticator support failed")
		supported = false
	}
	l.mu.Lock()
	l.state.Supported = supported
	l.mu.Unlock()
	return supported
}

// active reports whether the lock may engage. A device that cannot run the
// authenticator is never locked, since it could not be unlocked again.
func (l *Lock) active() bool {
	return l.state.Enabled && l.state.Supported && l.session.IsAuthenticated()
}

// Touch records user activity and restarts the inactivity timer.
func (l *Lock) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active() {
		return
	}
	if !l.state.Locked {
		l.state.LastActive = time.Now()
		l.state.RequiresUnlock = false
	}
	l.stopTimerLocked()
	if l.timeout > 0 {
		l.timer = time.AfterFunc(l.timeout, l.expire)
	}
}

func (l *Lock) expire() {
	l.mu.Lock()
	if !l.active() || l.state.Locked {
		l.mu.Unlock()
		return
	}
	l.logger.Info().Dur("timeout", l.timeout).Msg("locking after inactivity")
	cb := l.lockLocked()
	l.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Background locks immediately.
func (l *Lock) Background() {
	l.mu.Lock()
	if !l.active() || l.state.Locked {
		l.mu.Unlock()
		return
	}
	l.logger.Info().Msg("locking on background")
	cb := l.lockLocked()
	l.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Foreground requires an unlock before the app can be used again.
func (l *Lock) Foreground() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active() {
		l.state.RequiresUnlock = true
	}
}

// Unlock runs the authenticator and clears the lock on success.
func (l *Lock) Unlock(ctx context.Context, prompt string) error {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if !l.CheckSupport(ctx) {
		return errors.ErrBiometricUnavailable
	}
	if err := l.auth.Authenticate(ctx, prompt); err != nil {
		l.logger.Warn().Err(err).Msg("unlock failed")
		return err
	}

	l.mu.Lock()
	l.state.Locked = false
	l.state.RequiresUnlock = false
	l.state.LastActive = time.Now()
	l.mu.Unlock()

	l.logger.Info().Msg("unlocked")
	l.Touch()
	return nil
}

// Guard returns ErrLocked while the app is locked or awaiting unlock.
func (l *Lock) Guard() error {
	s := l.State()
	if s.Locked || s.RequiresUnlock {
		return errors.ErrLocked
	}
	return nil
}

func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stop cancels the inactivity timer.
func (l *Lock) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTimerLocked()
}

func (l *Lock) lockLocked() func() {
	l.stopTimerLocked()
	l.state.Locked = true
	l.state.RequiresUnlock = true
	return l.onLock
}

func (l *Lock) stopTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
