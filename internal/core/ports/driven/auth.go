package driven

import "github.com/custodia-labs/sercha-retrieval/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
type AuthAdapter interface {
	// Secret operations
	HashSecret(secret string) (string, error)
	VerifySecret(secret, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
