package mockapi

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const issuer = "mockapi"

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     users.RoleType `json:"role"`
	jwtlib.RegisteredClaims
}

// AccessTokens issues and verifies short-lived JWT access tokens.
type AccessTokens struct {
	signer *HMACSigner
	ttl    time.Duration
}

func NewAccessTokens(signer *HMACSigner, ttl time.Duration) *AccessTokens {
	return &AccessTokens{signer: signer, ttl: ttl}
}

// Create signs a token for user. A positive ttl overrides the default.
func (a *AccessTokens) Create(user *users.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":      issuer,
		"sub":      fmt.Sprint(user.ID),
		"username": user.Username,
		"email":    user.Email,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
		"jti":      uuid.New().String(), // Unique per token, so two tokens issued in the same second differ
	}
	return a.signer.Sign(claims)
}

// Verify parses and validates raw. Expired tokens return ErrTokenExpired, any
// other problem ErrInvalidToken.
func (a *AccessTokens) Verify(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, a.signer.GetVerificationKey,
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
