// Package auth issues and verifies the bearer tokens of the HTTP API.
//
// Everybody in the league shares one password; a successful login binds
// the token to the person who logged in, and writes are only accepted for
// that person.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token settings.
const (
	defaultTTL     = 12 * time.Hour
	defaultLeeway  = 30 * time.Second
	defaultIssuer  = "brecher"
	bearerPrefix   = "bearer "
	claimPersonKey = "person"
)

// Claims are the verified contents of a token.
type Claims struct {
	Person    string    `json:"person"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type tokenClaims struct {
	Person string `json:"person"`
	jwt.RegisteredClaims
}

// Option applies a configuration option to the Authenticator.
type Option func(*Authenticator)

// WithTTL sets how long issued tokens stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// Authenticator checks the shared password and signs HS256 tokens.
type Authenticator struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// New creates an authenticator. The secret signs tokens and must not be
// empty.
func New(password, secret string, opts ...Option) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	a := &Authenticator{
		password: []byte(password),
		secret:   []byte(secret),
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Login checks password and returns a signed token for person.
func (a *Authenticator) Login(person, password string) (string, Claims, error) {
	const op = "auth.login"
	person = strings.TrimSpace(person)
	if person == "" || len(a.password) == 0 ||
		subtle.ConstantTimeCompare([]byte(password), a.password) != 1 {
		return "", Claims{}, ErrBadCredentials
	}

	now := a.now()
	expires := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Person: person,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   person,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, Claims{Person: person, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Verify parses a signed token and returns its claims.
func (a *Authenticator) Verify(raw string) (Claims, error) {
	var tc tokenClaims
	token, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithLeeway(defaultLeeway),
		jwt.WithIssuer(defaultIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || tc.Person == "" {
		return Claims{}, fmt.Errorf("%w: missing %s claim", ErrInvalidToken, claimPersonKey)
	}
	return Claims{Person: tc.Person, ExpiresAt: tc.ExpiresAt.Time}, nil
}

// FromHeader extracts and verifies the token of an Authorization header.
func (a *Authenticator) FromHeader(header string) (Claims, error) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Claims{}, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
}

type contextKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the claims stored by WithClaims.
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(Claims)
	return c, ok
}
