package auth

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-catalog-client/users"
)

// HTTPClient is the subset of client.Client the auth API needs.
type HTTPClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// API wraps the auth endpoints.
type API struct {
	http HTTPClient
}

func NewAPI(httpClient HTTPClient) *API {
	return &API{http: httpClient}
}

func (a *API) Login(ctx context.Context, credentials LoginCredentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.http.Post(ctx, RouteAuthLogin, credentials, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile of the user the current access token belongs to.
func (a *API) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := a.http.Get(ctx, RouteAuthMe, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
