package mockapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-catalog-client/auth"
	"github.com/jrsteele09/go-catalog-client/catalog"
	"github.com/jrsteele09/go-catalog-client/client"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/mockapi"
	"github.com/jrsteele09/go-catalog-client/querycache"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/jrsteele09/go-catalog-client/storage/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

type clientConfig struct{ baseURL string }

func (c clientConfig) GetAPIBaseURL() string               { return c.baseURL }
func (clientConfig) GetRequestTimeout() time.Duration      { return 5 * time.Second }
func (clientConfig) GetTokenExpiryMinutes() int            { return 0 }
func (clientConfig) GetDefaultPageLimit() int              { return 5 }
func (clientConfig) GetStaleTime() time.Duration           { return 5 * time.Minute }
func (clientConfig) GetCategoriesStaleTime() time.Duration { return 10 * time.Minute }
func (clientConfig) GetCacheGCTime() time.Duration         { return 24 * time.Hour }
func (clientConfig) GetQueryRetries() int                  { return 0 }

type app struct {
	store    *memstore.Store
	sessions *sessions.Manager
	client   *client.Client
	auth     *auth.Service
	catalog  *catalog.Service
}

func newApp(t *testing.T, ts *testServer) *app {
	t.Helper()
	cfg := clientConfig{baseURL: ts.URL}
	store := memstore.New()
	sm := sessions.NewManager(store, zerolog.Nop())
	c := client.New(cfg, sm, nil, zerolog.Nop())
	cache := querycache.New(store, querycache.OptionsFromConfig(cfg), zerolog.Nop())
	return &app{
		store:    store,
		sessions: sm,
		client:   c,
		auth:     auth.NewService(auth.NewAPI(c), sm, cfg, zerolog.Nop()),
		catalog:  catalog.NewService(catalog.NewAPI(c), cache, sm, cfg, zerolog.Nop()),
	}
}

func TestEndToEnd_ExpiredTokenIsRefreshedOnceForConcurrentRequests(t *testing.T) {
	ts := setupTestServer(t)
	a := newApp(t, ts)
	ctx := context.Background()

	_, err := a.auth.Login(ctx, "emilys", "emilyspass")
	require.NoError(t, err)
	first := a.sessions.Snapshot()
	require.False(t, first.Expiry.IsZero(), "expiry is read from the JWT")

	ts.Advance(2 * time.Minute)

	var g errgroup.Group
	for range 5 {
		g.Go(func() error {
			user, err := a.auth.Me(ctx)
			if err == nil {
				assert.Equal(t, "emilys", user.Username)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	second := a.sessions.Snapshot()
	require.True(t, second.IsAuthenticated)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The original refresh token was spent by the rotation; the session holds
	// the live one.
	resp := call(t, ts, http.MethodPost, mockapi.RouteAuthRefresh, "", map[string]any{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusForbidden, resp.status)
	resp = call(t, ts, http.MethodPost, mockapi.RouteAuthRefresh, "", map[string]any{"refreshToken": second.RefreshToken})
	require.Equal(t, http.StatusOK, resp.status)
}

func TestEndToEnd_RejectedRefreshLogsOut(t *testing.T) {
	ts := setupTestServer(t)
	a := newApp(t, ts)
	ctx := context.Background()

	_, err := a.auth.Login(ctx, "emilys", "emilyspass")
	require.NoError(t, err)
	require.NoError(t, a.sessions.UpdateTokens(ctx, &oauth2.Token{AccessToken: "garbage", RefreshToken: "unknown"}))

	_, err = a.auth.Me(ctx)
	require.Equal(t, http.StatusForbidden, client.StatusCode(err))
	require.False(t, a.sessions.IsAuthenticated())

	restored, err := a.auth.Restore(ctx)
	require.NoError(t, err)
	require.False(t, restored)
}

func TestEndToEnd_BrowseAndDelete(t *testing.T) {
	ts := setupTestServer(t)
	a := newApp(t, ts)
	ctx := context.Background()

	pages, err := a.catalog.Pages(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	total := pages[0].Total

	categories, _, err := a.catalog.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	_, err = a.catalog.DeleteProduct(ctx, 1)
	require.ErrorIs(t, err, errors.ErrForbidden, "signed out users cannot delete")

	_, err = a.auth.Login(ctx, "sophiab", "sophiabpass")
	require.NoError(t, err)
	_, err = a.catalog.DeleteProduct(ctx, 1)
	require.ErrorIs(t, err, errors.ErrForbidden)

	_, err = a.auth.Login(ctx, "michaelw", "michaelwpass")
	require.NoError(t, err)
	deleted, err := a.catalog.DeleteProduct(ctx, 1)
	require.NoError(t, err)
	require.True(t, deleted.IsDeleted)

	page, meta, err := a.catalog.Products(ctx, 1)
	require.NoError(t, err)
	require.False(t, meta.FromCache)
	require.Equal(t, total-1, page.Total)
	require.NotEqual(t, 1, page.Products[0].ID)
}
