package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"golang.org/x/oauth2"
)

const RouteAuthRefresh = "/auth/refresh"

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken  string `json:"refreshToken"`
	ExpiresInMins int    `json:"expiresInMins,omitempty"`
}

// RefreshResponse is the token pair returned by POST /auth/refresh.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenRefresher calls the refresh endpoint on its own HTTP client, outside
// the interceptor path, so a rejected refresh never triggers another refresh.
type TokenRefresher struct {
	baseURL       string
	httpClient    *http.Client
	expiresInMins int
}

var _ Refresher = (*TokenRefresher)(nil)

// NewTokenRefresher returns a refresher for cfg's API. A nil httpClient gets
// one bounded by the configured request timeout.
func NewTokenRefresher(cfg config.APIConfig, httpClient *http.Client) *TokenRefresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}
	return &TokenRefresher{
		baseURL:       cfg.GetAPIBaseURL(),
		httpClient:    httpClient,
		expiresInMins: cfg.GetTokenExpiryMinutes(),
	}
}

func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	payload, err := json.Marshal(RefreshRequest{RefreshToken: refreshToken, ExpiresInMins: r.expiresInMins})
	if err != nil {
		return nil, transportError(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+RouteAuthRefresh, bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: err.Error(), Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, body)
	}

	var rr RefreshResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, &Error{Message: "invalid refresh response", Status: resp.StatusCode, Err: err}
	}
	if rr.AccessToken == "" {
		return nil, &Error{Message: "refresh response did not include an access token", Status: resp.StatusCode}
	}
	return sessions.NewToken(rr.AccessToken, rr.RefreshToken), nil
}
