package ports

import "time"

// PasswordHasher hashes and verifies secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// TokenClaims is what a bearer token asserts about its holder.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(userID string) (string, error)
	Verify(token string) (*TokenClaims, error)
}
