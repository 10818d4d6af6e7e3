package auth

import (
	"context"
	"time"
)

// Config drives authentication behavior.
type Config struct {
	Secret     string
	SessionTTL time.Duration
	Google     GoogleConfig
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	PostLoginRedirectURL string
}

// User is the identity carried by a session. Email is the owner key for stored data.
type User struct {
	Subject string `json:"-"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Claims are extracted from a session token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// User returns the identity view of the claims.
func (c Claims) User() User {
	return User{Subject: c.Subject, Email: c.Email, Name: c.Name}
}

// Session is a freshly issued session token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// OAuthState is the PKCE round trip state kept in a cookie between login and callback.
type OAuthState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

// RevocationStore remembers logged out token ids until their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
