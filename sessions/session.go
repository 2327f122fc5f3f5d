package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-catalog-client/users"
	"golang.org/x/oauth2"
)

// Session is a point-in-time copy of the authenticated state.
type Session struct {
	AccessToken     string
	RefreshToken    string
	Expiry          time.Time // Zero when the access token carries no exp claim
	User            *users.User
	IsAuthenticated bool
}

// NewToken builds a bearer token. When the access token is a JWT its exp
// claim becomes the token expiry; the signature is not verified because the
// client never holds the signing key.
func NewToken(accessToken, refreshToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiryFromJWT(accessToken),
	}
}

func expiryFromJWT(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func copyToken(t *oauth2.Token) *oauth2.Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
