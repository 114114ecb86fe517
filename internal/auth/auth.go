package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserType selects a user's entitlements.
type UserType string

const (
	UserTypeGuest   UserType = "guest"
	UserTypeRegular UserType = "regular"
)

// User is the authenticated principal.
type User struct {
	ID   string   `json:"id"`
	Type UserType `json:"type"`
}

// Session is what the authenticator resolves a request to.
type Session struct {
	User User `json:"user"`
}

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("auth: no valid session")

// Authenticator resolves the session of an inbound request. Sessions are
// issued elsewhere; this service only verifies them.
type Authenticator interface {
	Authenticate(r *http.Request) (*Session, error)
}

// SessionCookie is the cookie checked when no bearer token is sent.
const SessionCookie = "session"

// Claims is the JWT payload of a session token.
type Claims struct {
	UserType UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 session tokens taken from the
// Authorization header or the session cookie.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates an authenticator for tokens signed with secret.
func NewJWTAuthenticator(secret string) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTAuthenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}, nil
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*Session, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, ErrNoSession
	}

	var claims Claims
	if _, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrNoSession)
	}

	userType := claims.UserType
	if userType != UserTypeRegular {
		userType = UserTypeGuest
	}
	return &Session{User: User{ID: claims.Subject, Type: userType}}, nil
}

// Issue signs a session token. The service never issues tokens on its own;
// Issue exists for operators and tests.
func (a *JWTAuthenticator) Issue(user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserType: user.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
