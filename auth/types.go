package auth

import "github.com/jrsteele09/go-catalog-client/users"

const (
	RouteAuthLogin = "/auth/login"
	RouteAuthMe    = "/auth/me"
)

// LoginCredentials is the body of POST /auth/login.
type LoginCredentials struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins int    `json:"expiresInMins,omitempty"`
}

// LoginResponse is the profile plus token pair returned by POST /auth/login.
// Older API versions return the access token as "token".
type LoginResponse struct {
	users.User
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Token        string `json:"token,omitempty"`
}

// Tokens returns the access and refresh tokens, preferring accessToken over
// the legacy token field.
func (r *LoginResponse) Tokens() (accessToken, refreshToken string) {
	accessToken = r.AccessToken
	if accessToken == "" {
		accessToken = r.Token
	}
	return accessToken, r.RefreshToken
}
