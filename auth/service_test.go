package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-catalog-client/auth"
	"github.com/jrsteele09/go-catalog-client/client"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/jrsteele09/go-catalog-client/storage/memstore"
	"github.com/jrsteele09/go-catalog-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type apiConfig struct{}

func (apiConfig) GetAPIBaseURL() string            { return "http://catalog.test" }
func (apiConfig) GetRequestTimeout() time.Duration { return time.Second }
func (apiConfig) GetTokenExpiryMinutes() int       { return 30 }
func (apiConfig) GetDefaultPageLimit() int         { return 30 }

// fakeHTTP answers by path with canned JSON or an error.
type fakeHTTP struct {
	responses map[string]any
	errs      map[string]error
	posted    map[string]any
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{responses: map[string]any{}, errs: map[string]error{}, posted: map[string]any{}}
}

func (f *fakeHTTP) Get(_ context.Context, path string, _ url.Values, out any) error {
	return f.answer(path, out)
}

func (f *fakeHTTP) Post(_ context.Context, path string, body, out any) error {
	f.posted[path] = body
	return f.answer(path, out)
}

func (f *fakeHTTP) answer(path string, out any) error {
	if err := f.errs[path]; err != nil {
		return err
	}
	data, err := json.Marshal(f.responses[path])
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

type testFixture struct {
	http     *fakeHTTP
	sessions *sessions.Manager
	service  *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	fh := newFakeHTTP()
	sm := sessions.NewManager(memstore.New(), zerolog.Nop())
	return &testFixture{
		http:     fh,
		sessions: sm,
		service:  auth.NewService(auth.NewAPI(fh), sm, apiConfig{}, zerolog.Nop()),
	}
}

func loginResponse() map[string]any {
	return map[string]any{
		"id":           1,
		"username":     "emilys",
		"email":        "emily.johnson@x.dummyjson.com",
		"firstName":    "Emily",
		"lastName":     "Johnson",
		"gender":       "female",
		"role":         "admin",
		"accessToken":  "T1",
		"refreshToken": "R1",
	}
}

func TestLogin_StoresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.http.responses[auth.RouteAuthLogin] = loginResponse()

	user, err := f.service.Login(context.Background(), " emilys ", "emilyspass")
	require.NoError(t, err)
	require.Equal(t, "emilys", user.Username)
	require.True(t, user.IsSuperAdmin())

	session := f.service.Session()
	require.True(t, session.IsAuthenticated)
	require.Equal(t, "T1", session.AccessToken)
	require.Equal(t, "R1", session.RefreshToken)
	require.Equal(t, "Emily Johnson", session.User.FullName())

	sent := f.http.posted[auth.RouteAuthLogin].(auth.LoginCredentials)
	require.Equal(t, "emilys", sent.Username)
	require.Equal(t, 30, sent.ExpiresInMins)
}

func TestLogin_LegacyTokenField(t *testing.T) {
	f := setupTestFixture(t)
	resp := loginResponse()
	delete(resp, "accessToken")
	resp["token"] = "LEGACY"
	f.http.responses[auth.RouteAuthLogin] = resp

	_, err := f.service.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)
	require.Equal(t, "LEGACY", f.sessions.AccessToken())
}

func TestLogin_RequiresCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), "", "pass")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	_, err = f.service.Login(context.Background(), "emilys", "")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	require.Empty(t, f.http.posted)
}

func TestLogin_APIErrorLeavesSessionEmpty(t *testing.T) {
	f := setupTestFixture(t)
	f.http.errs[auth.RouteAuthLogin] = &client.Error{Message: "Invalid credentials", Status: http.StatusBadRequest}

	_, err := f.service.Login(context.Background(), "emilys", "wrong")
	var apiErr *client.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid credentials", apiErr.Message)
	require.False(t, f.sessions.IsAuthenticated())
}

func TestLogin_MissingTokenIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	resp := loginResponse()
	delete(resp, "accessToken")
	f.http.responses[auth.RouteAuthLogin] = resp

	_, err := f.service.Login(context.Background(), "emilys", "emilyspass")
	require.ErrorIs(t, err, errors.ErrInvalidToken)
	require.False(t, f.sessions.IsAuthenticated())
}

func TestMe_UpdatesCachedUser(t *testing.T) {
	f := setupTestFixture(t)
	f.http.responses[auth.RouteAuthLogin] = loginResponse()
	_, err := f.service.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	f.http.responses[auth.RouteAuthMe] = users.User{ID: 1, Username: "emilys", FirstName: "Em", Role: users.RoleUser}
	user, err := f.service.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Em", user.FirstName)
	require.Equal(t, users.RoleUser, f.sessions.User().Role)
}

func TestMe_RequiresSession(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Me(context.Background())
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestLogoutAndRestore(t *testing.T) {
	f := setupTestFixture(t)
	f.http.responses[auth.RouteAuthLogin] = loginResponse()
	_, err := f.service.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	f.service.Logout(context.Background())
	require.False(t, f.service.Session().IsAuthenticated)

	ok, err := f.service.Restore(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "nothing to restore after logout")
}
