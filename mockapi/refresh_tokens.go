package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-catalog-client/internal/errors"
)

const defaultRefreshTokenExpiry = 30 * 24 * time.Hour

// StoredRefreshToken is the server side record behind an opaque refresh
// token.
type StoredRefreshToken struct {
	Token  string
	UserID int
	Iat    time.Time
}

// RefreshTokens keeps a single refresh token per user and rotates it on
// every use.
type RefreshTokens struct {
	length int
	expiry time.Duration

	lock    sync.Mutex
	tokens  map[string]*StoredRefreshToken
	userIDs map[int]string // user ID to token
}

func NewRefreshTokens(length int) *RefreshTokens {
	if length <= 0 {
		length = 32
	}
	return &RefreshTokens{
		length:  length,
		expiry:  defaultRefreshTokenExpiry,
		tokens:  make(map[string]*StoredRefreshToken),
		userIDs: make(map[int]string),
	}
}

// Create issues a new refresh token for userID, revoking the previous one.
func (m *RefreshTokens) Create(userID int) (string, error) {
	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	m.lock.Lock()
	defer m.lock.Unlock()
	if existing, ok := m.userIDs[userID]; ok {
		delete(m.tokens, existing)
	}
	m.tokens[token] = &StoredRefreshToken{Token: token, UserID: userID, Iat: NowTimeFunc()}
	m.userIDs[userID] = token
	return token, nil
}

// Rotate consumes token and issues its replacement. Unknown, already used and
// expired tokens return ErrInvalidRefreshToken.
func (m *RefreshTokens) Rotate(token string) (userID int, next string, err error) {
	m.lock.Lock()
	stored, ok := m.tokens[token]
	if ok {
		delete(m.tokens, token)
		delete(m.userIDs, stored.UserID)
	}
	m.lock.Unlock()

	if !ok {
		return 0, "", errors.ErrInvalidRefreshToken
	}
	if NowTimeFunc().Sub(stored.Iat) > m.expiry {
		return 0, "", errors.Wrapf(errors.ErrInvalidRefreshToken, "refresh token expired")
	}
	next, err = m.Create(stored.UserID)
	if err != nil {
		return 0, "", err
	}
	return stored.UserID, next, nil
}

// Revoke drops the refresh token held by userID, if any.
func (m *RefreshTokens) Revoke(userID int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if token, ok := m.userIDs[userID]; ok {
		delete(m.tokens, token)
		delete(m.userIDs, userID)
	}
}
