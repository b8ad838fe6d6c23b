// Package auth signs and verifies the session cookie issued by the backend.
// The cookie is a JWT naming a stored session record, so a logout is
// effective immediately even though the token itself has not expired.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	domainAuth "github.com/artpar/newsdemo/domain/auth"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie set by signup and login.
const CookieName = "newsdemo_session"

// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session token claims. Subject is the account id.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs session tokens. Safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a token service.
// If secret is empty, a random 32-byte secret is generated and sessions do
// not survive a restart.
func NewTokenService(secret string) *TokenService {
	var key []byte
	if secret == "" {
		key = make([]byte, 32)
		rand.Read(key)
	} else {
		key = []byte(secret)
	}

	return &TokenService{secret: key, issuer: "newsdemo"}
}

// Issue signs a token for the session record. The token expires with the record.
func (s *TokenService) Issue(rec domainAuth.Record) (string, error) {
	claims := Claims{
		SessionID: rec.ID,
		Email:     rec.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   rec.UserID,
			IssuedAt:  jwt.NewNumericDate(rec.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies a token and returns its claims.
func (s *TokenService) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecret returns a random hex secret for api.jwt_secret.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// SessionCookie builds the cookie carrying token for rec.
func SessionCookie(token string, rec domainAuth.Record, secure bool) *http.Cookie {
	maxAge := int(time.Until(rec.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  rec.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds a cookie that deletes the session cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
