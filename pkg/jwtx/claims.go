package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrNoExpiry  = errors.New("jwtx: token has no exp claim")
)

// Claims are the access-token claims the HR backend issues. We only ever read
// them on the client; signature verification is the backend's job.
type Claims struct {
	jwt.RegisteredClaims

	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"name,omitempty"`
	UserType    string   `json:"userType,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// ParseUnverified decodes the token payload without checking the signature.
func ParseUnverified(token string) (Claims, error) {
	var c Claims
	if token == "" {
		return c, ErrMalformed
	}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return Claims{}, errors.Join(ErrMalformed, err)
	}

	return c, nil
}

// ExpiresAt returns the decoded exp claim.
func ExpiresAt(token string) (time.Time, error) {
	c, err := ParseUnverified(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return c.ExpiresAt.Time, nil
}

// Expired reports whether exp is strictly before now. Tokens without exp are
// treated as expired so the caller takes the refresh path.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now)
}

// ExpiresWithin reports whether the token expires before now+window.
func (c *Claims) ExpiresWithin(now time.Time, window time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now.Add(window))
}
