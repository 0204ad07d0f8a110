package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven/mocks"
)

func newTestAuthService(ttl time.Duration) *authService {
	clients := []domain.APIClient{
		// The mock adapter stores secrets in plain text
		{ID: "ingest-bot", SecretHash: "s3cret", Scope: "admin"},
		{ID: "reader", SecretHash: "readonly", Scope: "read"},
	}
	return NewAuthService(clients, mocks.NewMockAuthAdapter(), ttl).(*authService)
}

func TestAuthService_IssueToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)
	ctx := context.Background()

	resp, err := svc.IssueToken(ctx, domain.TokenRequest{ClientID: "ingest-bot", ClientSecret: "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if time.Until(resp.ExpiresAt) < 59*time.Minute {
		t.Errorf("expected expiry about an hour away, got %v", resp.ExpiresAt)
	}

	authCtx, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("unexpected error validating issued token: %v", err)
	}
	if authCtx.ClientID != "ingest-bot" || authCtx.Scope != "admin" {
		t.Errorf("unexpected auth context %+v", authCtx)
	}
}

func TestAuthService_IssueToken_Rejected(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	tests := []struct {
		name string
		req  domain.TokenRequest
		want error
	}{
		{"missing secret", domain.TokenRequest{ClientID: "reader"}, domain.ErrInvalidInput},
		{"missing client", domain.TokenRequest{ClientSecret: "readonly"}, domain.ErrInvalidInput},
		{"unknown client", domain.TokenRequest{ClientID: "stranger", ClientSecret: "readonly"}, domain.ErrInvalidCredentials},
		{"wrong secret", domain.TokenRequest{ClientID: "reader", ClientSecret: "guess"}, domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)
	adapter := mocks.NewMockAuthAdapter()
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		if _, err := svc.ValidateToken(ctx, ""); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.ValidateToken(ctx, "not-a-token!"); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, _ := adapter.GenerateToken(&domain.TokenClaims{
			ClientID:  "reader",
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		})
		if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, domain.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("removed client", func(t *testing.T) {
		token, _ := adapter.GenerateToken(&domain.TokenClaims{
			ClientID:  "retired",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestNewAuthService_DefaultTTL(t *testing.T) {
	svc := newTestAuthService(0)
	if svc.tokenTTL != 24*time.Hour {
		t.Errorf("expected default TTL of 24h, got %v", svc.tokenTTL)
	}
}
