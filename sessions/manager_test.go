package sessions_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/jrsteele09/go-catalog-client/storage/memstore"
	"github.com/jrsteele09/go-catalog-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testUser = &users.User{ID: 1, Username: "emilys", FirstName: "Emily", LastName: "Johnson", Role: users.RoleAdmin}

func setupManager(t *testing.T) (*sessions.Manager, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return sessions.NewManager(store, zerolog.Nop()), store
}

func login(t *testing.T, m *sessions.Manager, access, refresh string) {
	t.Helper()
	require.NoError(t, m.SetCredentials(context.Background(), testUser, access, refresh))
}

func storedValue(t *testing.T, s storage.Store, key string) (string, bool) {
	t.Helper()
	v, found, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return v, found
}

func TestSetCredentials_PersistsSession(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "R1")

	snap := m.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "T1", snap.AccessToken)
	require.Equal(t, "R1", snap.RefreshToken)
	require.Equal(t, "emilys", snap.User.Username)

	v, _ := storedValue(t, store, storage.KeyAuthToken)
	require.Equal(t, "T1", v)
	v, _ = storedValue(t, store, storage.KeyAuthRefreshToken)
	require.Equal(t, "R1", v)
	_, found := storedValue(t, store, storage.KeyAuthUser)
	require.True(t, found)
}

func TestSetCredentials_RequiresUserAndToken(t *testing.T) {
	m, _ := setupManager(t)
	require.Error(t, m.SetCredentials(context.Background(), nil, "T1", "R1"))
	require.Error(t, m.SetCredentials(context.Background(), testUser, "", "R1"))
	require.False(t, m.IsAuthenticated())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	m, store := setupManager(t)
	login(t, m, "T1", "R1")

	restored := sessions.NewManager(store, zerolog.Nop())
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", restored.AccessToken())
	require.Equal(t, "R1", restored.RefreshToken())
	require.Equal(t, "emilys", restored.User().Username)
}

func TestRestore_RequiresUser(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "T1"))

	m := sessions.NewManager(store, zerolog.Nop())
	ok, err := m.Restore(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, m.IsAuthenticated())
}

func TestLogout_ClearsStateAndStorage(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "R1")

	m.Logout(context.Background())

	require.False(t, m.IsAuthenticated())
	require.Nil(t, m.Token())
	require.Nil(t, m.User())
	require.Zero(t, store.Len())
}

func TestUpdateTokens(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "R1")

	require.NoError(t, m.UpdateTokens(context.Background(), &oauth2.Token{AccessToken: "T2", RefreshToken: "R2"}))
	require.Equal(t, "T2", m.AccessToken())
	v, _ := storedValue(t, store, storage.KeyAuthRefreshToken)
	require.Equal(t, "R2", v)
	require.Equal(t, "emilys", m.User().Username, "profile survives a token update")
}

func TestNewToken_ExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tok := sessions.NewToken(signed, "R1")
	require.Equal(t, "Bearer", tok.TokenType)
	require.True(t, tok.Expiry.Equal(exp))

	opaque := sessions.NewToken("not-a-jwt", "R1")
	require.True(t, opaque.Expiry.IsZero())
}

func TestRefresh_CoalescesConcurrentCallers(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "R1")
	creds := m.Credentials()
	cause := errors.New("token expired")

	var calls atomic.Int32
	release := make(chan struct{})
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		calls.Add(1)
		assert.Equal(t, "R1", refreshToken)
		<-release
		return &oauth2.Token{AccessToken: "T2", RefreshToken: "R2"}, nil
	}

	const waiters = 5
	results := make(chan *oauth2.Token, waiters+1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		tok, err := m.Refresh(context.Background(), creds, cause, refresh)
		assert.NoError(t, err)
		results <- tok
	}()
	require.Eventually(t, m.Refreshing, time.Second, time.Millisecond)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Refresh(context.Background(), creds, cause, refresh)
			assert.NoError(t, err)
			results <- tok
		}()
	}
	require.Eventually(t, func() bool { return m.Pending() == waiters }, time.Second, time.Millisecond)
	require.Empty(t, results, "nobody resolves before the refresh settles")

	close(release)
	wg.Wait()
	close(results)

	require.Equal(t, int32(1), calls.Load())
	for tok := range results {
		require.Equal(t, "T2", tok.AccessToken)
	}
	require.False(t, m.Refreshing())
	require.Zero(t, m.Pending())
	v, _ := storedValue(t, store, storage.KeyAuthToken)
	require.Equal(t, "T2", v)
	v, _ = storedValue(t, store, storage.KeyAuthRefreshToken)
	require.Equal(t, "R2", v)
}

func TestRefresh_NoRefreshTokenLogsOut(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "")
	creds := m.Credentials()
	cause := errors.New("token expired")

	called := false
	_, err := m.Refresh(context.Background(), creds, cause, func(context.Context, string) (*oauth2.Token, error) {
		called = true
		return nil, nil
	})

	require.ErrorIs(t, err, cause)
	require.False(t, called)
	require.False(t, m.IsAuthenticated())
	require.False(t, m.Refreshing())
	require.Zero(t, store.Len())
}

func TestRefresh_FailureRejectsWaitersAndLogsOut(t *testing.T) {
	m, _ := setupManager(t)
	login(t, m, "T1", "R1")
	creds := m.Credentials()
	cause := errors.New("token expired")
	refreshErr := errors.New("refresh token expired")

	release := make(chan struct{})
	refresh := func(context.Context, string) (*oauth2.Token, error) {
		<-release
		return nil, refreshErr
	}

	leaderErr := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), creds, cause, refresh)
		leaderErr <- err
	}()
	require.Eventually(t, m.Refreshing, time.Second, time.Millisecond)

	waiterErr := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), creds, cause, refresh)
		waiterErr <- err
	}()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)

	close(release)
	require.ErrorIs(t, <-leaderErr, refreshErr)
	require.ErrorIs(t, <-waiterErr, refreshErr)
	require.False(t, m.IsAuthenticated())
}

func TestRefresh_AlreadyRefreshedTokenIsReused(t *testing.T) {
	m, _ := setupManager(t)
	login(t, m, "T1", "R1")
	creds := m.Credentials()
	require.NoError(t, m.UpdateTokens(context.Background(), &oauth2.Token{AccessToken: "T2", RefreshToken: "R2"}))

	tok, err := m.Refresh(context.Background(), creds, errors.New("expired"), func(context.Context, string) (*oauth2.Token, error) {
		t.Fatal("refresh must not be called for a token that was already replaced")
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "T2", tok.AccessToken)
}

func TestRefresh_RequestFromReplacedSessionIsRejected(t *testing.T) {
	m, store := setupManager(t)
	login(t, m, "T1", "R1")
	creds := m.Credentials()

	m.Logout(context.Background())
	other := &users.User{ID: 3, Username: "sophiab", Role: users.RoleUser}
	require.NoError(t, m.SetCredentials(context.Background(), other, "T9", "R9"))

	cause := errors.New("token expired")
	tok, err := m.Refresh(context.Background(), creds, cause, func(context.Context, string) (*oauth2.Token, error) {
		t.Fatal("a stale request must not refresh the new session")
		return nil, nil
	})
	require.ErrorIs(t, err, cause)
	require.Nil(t, tok)

	require.True(t, m.IsAuthenticated(), "the new session is kept")
	require.Equal(t, "T9", m.AccessToken())
	require.Equal(t, "sophiab", m.User().Username)
	v, _ := storedValue(t, store, storage.KeyAuthRefreshToken)
	require.Equal(t, "R9", v)
}

func TestRefresh_RequestBeforeRestoreIsRejected(t *testing.T) {
	store := memstore.New()
	m := sessions.NewManager(store, zerolog.Nop())
	creds := m.Credentials()

	seed := sessions.NewManager(store, zerolog.Nop())
	require.NoError(t, seed.SetCredentials(context.Background(), testUser, "T1", "R1"))
	restored, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, restored)

	cause := errors.New("unauthorized")
	_, err = m.Refresh(context.Background(), creds, cause, func(context.Context, string) (*oauth2.Token, error) {
		t.Fatal("refresh must not run for an anonymous request from before the restore")
		return nil, nil
	})
	require.ErrorIs(t, err, cause)
	require.True(t, m.IsAuthenticated())
}

func TestRefresh_WaiterContextCancelled(t *testing.T) {
	m, _ := setupManager(t)
	login(t, m, "T1", "R1")
	creds := m.Credentials()

	release := make(chan struct{})
	defer close(release)
	refresh := func(context.Context, string) (*oauth2.Token, error) {
		<-release
		return &oauth2.Token{AccessToken: "T2", RefreshToken: "R2"}, nil
	}
	go func() { _, _ = m.Refresh(context.Background(), creds, errors.New("expired"), refresh) }()
	require.Eventually(t, m.Refreshing, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(ctx, creds, errors.New("expired"), refresh)
		done <- err
	}()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
