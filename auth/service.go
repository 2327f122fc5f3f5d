package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/jrsteele09/go-catalog-client/users"
	"github.com/rs/zerolog"
)

// Service signs users in and out and keeps the session manager in step with
// the API.
type Service struct {
	api           *API
	sessions      *sessions.Manager
	expiresInMins int
	logger        zerolog.Logger
}

func NewService(api *API, sm *sessions.Manager, cfg config.APIConfig, logger zerolog.Logger) *Service {
	return &Service{
		api:           api,
		sessions:      sm,
		expiresInMins: cfg.GetTokenExpiryMinutes(),
		logger:        logger.With().Str("component", "auth").Logger(),
	}
}

// Login authenticates against the API and stores the resulting session.
func (s *Service) Login(ctx context.Context, username, password string) (*users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[auth Login] username and password are required")
	}

	resp, err := s.api.Login(ctx, LoginCredentials{
		Username:      username,
		Password:      password,
		ExpiresInMins: s.expiresInMins,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("login failed")
		return nil, err
	}

	accessToken, refreshToken := resp.Tokens()
	if accessToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[auth Login] login response did not include an access token")
	}
	user := resp.User
	if err := s.sessions.SetCredentials(ctx, &user, accessToken, refreshToken); err != nil {
		return nil, fmt.Errorf("[auth Login] %w", err)
	}
	return &user, nil
}

// Me fetches the current profile and updates the cached copy.
func (s *Service) Me(ctx context.Context) (*users.User, error) {
	if !s.sessions.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}
	user, err := s.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	// A failed refresh inside the request may have logged the user out.
	if !s.sessions.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}
	if err := s.sessions.SetUser(ctx, user); err != nil {
		return nil, fmt.Errorf("[auth Me] %w", err)
	}
	return user, nil
}

// Restore loads the stored session, if any.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	return s.sessions.Restore(ctx)
}

func (s *Service) Logout(ctx context.Context) {
	s.sessions.Logout(ctx)
}

func (s *Service) Session() sessions.Session {
	return s.sessions.Snapshot()
}
