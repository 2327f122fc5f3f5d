package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/internal/utils"
	"github.com/jrsteele09/go-catalog-client/users"
)

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins *int   `json:"expiresInMins,omitempty"`
}

type loginResponse struct {
	users.User
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken  string `json:"refreshToken"`
	ExpiresInMins *int   `json:"expiresInMins,omitempty"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ttlFromMinutes returns zero, meaning the server default, unless a positive
// lifetime was requested.
func ttlFromMinutes(mins *int) time.Duration {
	n, ok := utils.Positive(mins)
	if !ok {
		return 0
	}
	return time.Duration(n) * time.Minute
}

// LoginHandler exchanges a username and password for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			writeJSONError(w, "Username and password required", http.StatusBadRequest)
			return
		}

		user, err := s.accounts.Authenticate(req.Username, req.Password)
		if err != nil {
			writeJSONError(w, "Invalid credentials", http.StatusBadRequest)
			return
		}
		pair, err := s.issueTokens(user, ttlFromMinutes(req.ExpiresInMins))
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to issue tokens")
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{User: *user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	}
}

// RefreshHandler rotates a refresh token and issues a new access token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "Refresh token required", http.StatusBadRequest)
			return
		}

		userID, next, err := s.refreshTokens.Rotate(req.RefreshToken)
		if err != nil {
			writeJSONError(w, "Invalid refresh token", http.StatusForbidden)
			return
		}
		user, err := s.accounts.Get(userID)
		if err != nil {
			s.refreshTokens.Revoke(userID)
			writeJSONError(w, "Invalid refresh token", http.StatusForbidden)
			return
		}
		access, err := s.accessTokens.Create(user, ttlFromMinutes(req.ExpiresInMins))
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to issue access token")
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, tokenPair{AccessToken: access, RefreshToken: next})
	}
}

// MeHandler returns the profile the access token belongs to.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromRequest(r)
		if err != nil {
			writeJSONError(w, "Invalid/Expired Token!", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) issueTokens(user *users.User, ttl time.Duration) (*tokenPair, error) {
	access, err := s.accessTokens.Create(user, ttl)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refreshTokens.Create(user.ID)
	if err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) userFromRequest(r *http.Request) (*users.User, error) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return nil, errors.ErrNotAuthenticated
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, errors.ErrInvalidToken
	}
	return s.accounts.Get(id)
}
