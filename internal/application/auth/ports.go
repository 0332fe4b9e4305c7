package auth

import "time"

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}

// Token is a signed bearer credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(userID string) (Token, error)
}

type TokenVerifier interface {
	// Verify returns the user id the token was issued for.
	Verify(token string) (string, error)
}
