package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

func TestNewAdapterWithCost(t *testing.T) {
	adapter := NewAdapterWithCost("test-secret", 4)
	if adapter.bcryptCost != 4 {
		t.Errorf("expected bcrypt cost 4, got %d", adapter.bcryptCost)
	}
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4) // Low cost for faster tests

	hash, err := adapter.HashSecret("client-secret")
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}
	if hash == "client-secret" || len(hash) < 60 {
		t.Errorf("unexpected hash %q", hash)
	}

	other, _ := adapter.HashSecret("client-secret")
	if other == hash {
		t.Error("expected different hashes for the same secret (salt)")
	}

	if !adapter.VerifySecret("client-secret", hash) {
		t.Error("expected secret to verify")
	}
	if adapter.VerifySecret("wrong", hash) {
		t.Error("wrong secret should not verify")
	}
	if adapter.VerifySecret("client-secret", "not-a-hash") {
		t.Error("garbage hash should not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	adapter := NewAdapter("secret")
	now := time.Now()

	token, err := adapter.GenerateToken(&domain.TokenClaims{
		ClientID:  "ingest-bot",
		Scope:     "read write",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ClientID != "ingest-bot" || claims.Scope != "read write" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ExpiresAt != now.Add(time.Hour).Unix() {
		t.Errorf("expires = %d", claims.ExpiresAt)
	}
}

func TestParseToken_Expired(t *testing.T) {
	adapter := NewAdapter("secret")
	past := time.Now().Add(-2 * time.Hour)

	token, _ := adapter.GenerateToken(&domain.TokenClaims{
		ClientID:  "c",
		IssuedAt:  past.Unix(),
		ExpiresAt: past.Add(time.Hour).Unix(),
	})

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	adapter := NewAdapter("secret")
	valid, _ := adapter.GenerateToken(&domain.TokenClaims{
		ClientID:  "c",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})

	foreignIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "c",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: "c",
	}).SignedString([]byte("secret"))

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   mustSign(t, NewAdapter("other"), "c"),
		"tampered":       valid + "x",
		"foreign issuer": foreignIssuer,
		"no expiry":      noExpiry,
		"empty subject":  mustSign(t, adapter, ""),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.ParseToken(token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func mustSign(t *testing.T, a *Adapter, clientID string) string {
	t.Helper()
	token, err := a.GenerateToken(&domain.TokenClaims{
		ClientID:  clientID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return token
}
