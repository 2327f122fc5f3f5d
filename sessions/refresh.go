package sessions

import (
	"context"

	"golang.org/x/oauth2"
)

// RefreshFunc exchanges a refresh token for a new token pair. It must not go
// through the 401-handling client, otherwise a failing refresh would trigger
// another refresh.
type RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

type refreshResult struct {
	token *oauth2.Token
	err   error
}

// Refresh resolves an authorization failure for a request that was sent with
// failed. At most one RefreshFunc call is in flight: callers arriving
// while one is running are queued and receive its outcome, in arrival order,
// once it settles.
//
// A request sent under a session that has since been replaced (logout, or a
// login as someone else) is rejected with cause; the current session is left
// alone. If the same session already holds a different access token (a
// refresh completed after the request was sent) that token is returned
// without refreshing.
// Without a stored refresh token the session is cleared and cause is returned
// to every waiter. A failed refresh clears the session and its error is
// returned to every waiter.
//
// The refresh call itself is detached from ctx cancellation because its
// outcome is shared; a waiter whose ctx ends stops waiting with ctx.Err().
func (m *Manager) Refresh(ctx context.Context, failed Credentials, cause error, fn RefreshFunc) (*oauth2.Token, error) {
	m.mu.Lock()
	if failed.generation != m.generation {
		m.mu.Unlock()
		m.logger.Debug().Msg("session replaced since the request was sent, not refreshing")
		return nil, cause
	}
	if m.refreshing {
		wait := make(chan refreshResult, 1)
		m.pending = append(m.pending, wait)
		m.mu.Unlock()
		m.logger.Debug().Msg("refresh in progress, request queued")

		select {
		case r := <-wait:
			return r.token, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.token != nil && m.token.AccessToken != "" && m.token.AccessToken != failed.AccessToken() {
		t := copyToken(m.token)
		m.mu.Unlock()
		return t, nil
	}

	var refreshToken string
	if m.token != nil {
		refreshToken = m.token.RefreshToken
	}
	m.refreshing = true
	m.mu.Unlock()

	result := m.runRefresh(context.WithoutCancel(ctx), refreshToken, cause, fn)
	m.settle(result)
	return copyToken(result.token), result.err
}

// Pending returns the number of requests waiting on the in-flight refresh.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Refreshing reports whether a refresh call is in flight.
func (m *Manager) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

func (m *Manager) runRefresh(ctx context.Context, refreshToken string, cause error, fn RefreshFunc) refreshResult {
	if refreshToken == "" {
		m.logger.Warn().Msg("no refresh token available, logging out")
		m.Logout(ctx)
		return refreshResult{err: cause}
	}

	m.logger.Info().Msg("access token rejected, refreshing")
	t, err := fn(ctx, refreshToken)
	if err == nil && (t == nil || t.AccessToken == "") {
		err = cause
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("token refresh failed, logging out")
		m.Logout(ctx)
		return refreshResult{err: err}
	}

	if t.RefreshToken == "" {
		t.RefreshToken = refreshToken
	}
	if err := m.UpdateTokens(ctx, t); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist refreshed tokens")
	}
	m.logger.Info().Msg("token refreshed")
	return refreshResult{token: m.Token()}
}

// settle clears the in-progress flag and hands result to every queued
// request in FIFO order.
func (m *Manager) settle(result refreshResult) {
	m.mu.Lock()
	m.refreshing = false
	waiters := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, w := range waiters {
		w <- refreshResult{token: copyToken(result.token), err: result.err}
	}
}
