package domain

import (
	"strings"
	"time"
)

// AuthContext contains the authenticated API client for request context
type AuthContext struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// API scopes. A token carries a space-separated list of them.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// HasScope reports whether the context grants scope. Admin grants everything.
func (a *AuthContext) HasScope(scope string) bool {
	if a == nil {
		return false
	}
	for _, s := range strings.Fields(a.Scope) {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// TokenRequest is a client-credentials exchange
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse is returned after a successful exchange
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	ClientID  string `json:"client_id"`
	Scope     string `json:"scope"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// APIClient is a configured client allowed to request tokens
type APIClient struct {
	ID         string `koanf:"id"`
	SecretHash string `koanf:"secret_hash"` // bcrypt
	Scope      string `koanf:"scope"`
}
