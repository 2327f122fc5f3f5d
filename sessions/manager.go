package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/jrsteele09/go-catalog-client/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Manager owns the session and persists it to storage. It is also the single
// decision point for token refresh: the in-progress flag and the queue of
// requests waiting on it live here, guarded by mu.
type Manager struct {
	store  storage.Store
	logger zerolog.Logger

	mu         sync.Mutex
	token      *oauth2.Token
	user       *users.User
	refreshing bool
	pending    []chan refreshResult
	// generation changes whenever the session is replaced (login, restore,
	// logout). Token refreshes keep it.
	generation uint64
}

// Credentials is the token a request was sent with, tagged with the session
// it belongs to.
type Credentials struct {
	Token      *oauth2.Token
	generation uint64
}

// AccessToken returns the bearer that was sent, or "" for an anonymous request.
func (c Credentials) AccessToken() string {
	if c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

func NewManager(store storage.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
}

// Token returns a copy of the current token, or nil when logged out.
func (m *Manager) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyToken(m.token)
}

// Credentials returns the current token together with its session generation.
func (m *Manager) Credentials() Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Credentials{Token: copyToken(m.token), generation: m.generation}
}

func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.RefreshToken
}

func (m *Manager) User() *users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isAuthenticated()
}

func (m *Manager) isAuthenticated() bool {
	return m.token != nil && m.token.AccessToken != ""
}

func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{IsAuthenticated: m.isAuthenticated()}
	if m.token != nil {
		s.AccessToken = m.token.AccessToken
		s.RefreshToken = m.token.RefreshToken
		s.Expiry = m.token.Expiry
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// SetCredentials stores a freshly logged-in session.
func (m *Manager) SetCredentials(ctx context.Context, user *users.User, accessToken, refreshToken string) error {
	if user == nil || accessToken == "" {
		return fmt.Errorf("[sessions SetCredentials] user and access token are required")
	}
	if err := m.store.Set(ctx, storage.KeyAuthToken, accessToken); err != nil {
		return fmt.Errorf("[sessions SetCredentials] persist token: %w", err)
	}
	if refreshToken != "" {
		if err := m.store.Set(ctx, storage.KeyAuthRefreshToken, refreshToken); err != nil {
			return fmt.Errorf("[sessions SetCredentials] persist refresh token: %w", err)
		}
	}
	if err := storage.SetObject(ctx, m.store, storage.KeyAuthUser, user); err != nil {
		return fmt.Errorf("[sessions SetCredentials] persist user: %w", err)
	}

	u := *user
	m.mu.Lock()
	m.token = NewToken(accessToken, refreshToken)
	m.user = &u
	m.generation++
	m.mu.Unlock()

	m.logger.Info().Str("username", user.Username).Msg("session established")
	return nil
}

// UpdateTokens replaces both tokens after a successful refresh. The in-memory
// session is updated even if persisting fails so in-flight requests can
// proceed; the storage error is returned.
func (m *Manager) UpdateTokens(ctx context.Context, t *oauth2.Token) error {
	if t == nil || t.AccessToken == "" {
		return fmt.Errorf("[sessions UpdateTokens] access token is required")
	}
	m.mu.Lock()
	m.token = NewToken(t.AccessToken, t.RefreshToken)
	m.mu.Unlock()

	if err := m.store.Set(ctx, storage.KeyAuthToken, t.AccessToken); err != nil {
		return fmt.Errorf("[sessions UpdateTokens] persist token: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyAuthRefreshToken, t.RefreshToken); err != nil {
		return fmt.Errorf("[sessions UpdateTokens] persist refresh token: %w", err)
	}
	return nil
}

func (m *Manager) SetUser(ctx context.Context, user *users.User) error {
	if user == nil {
		return fmt.Errorf("[sessions SetUser] user is required")
	}
	if err := storage.SetObject(ctx, m.store, storage.KeyAuthUser, user); err != nil {
		return fmt.Errorf("[sessions SetUser] persist user: %w", err)
	}
	u := *user
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return nil
}

// Logout clears the session and its stored copy. Storage failures are logged;
// the in-memory session is always cleared.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.token = nil
	m.user = nil
	m.generation++
	m.mu.Unlock()

	for _, key := range []string{storage.KeyAuthToken, storage.KeyAuthRefreshToken, storage.KeyAuthUser} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("failed to delete stored session key")
		}
	}
	m.logger.Info().Msg("session cleared")
}

// Restore loads a previously stored session. A session is only restored when
// both the access token and the cached user are present.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	accessToken, found, err := m.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		return false, fmt.Errorf("[sessions Restore] read token: %w", err)
	}
	if !found || accessToken == "" {
		return false, nil
	}
	refreshToken, _, err := m.store.Get(ctx, storage.KeyAuthRefreshToken)
	if err != nil {
		return false, fmt.Errorf("[sessions Restore] read refresh token: %w", err)
	}
	user, found, err := storage.GetObject[users.User](ctx, m.store, storage.KeyAuthUser)
	if err != nil {
		m.logger.Warn().Err(err).Msg("stored user is unreadable, not restoring session")
		return false, nil
	}
	if !found {
		return false, nil
	}

	m.mu.Lock()
	m.token = NewToken(accessToken, refreshToken)
	m.user = user
	m.generation++
	m.mu.Unlock()

	m.logger.Info().Str("username", user.Username).Msg("session restored")
	return true, nil
}
