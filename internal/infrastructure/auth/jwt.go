package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
)

// claims carries the user id as "id", the claim name existing clients read.
type claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWT issues and verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration, issuer string) (*JWT, error) {
	if secret == "" {
		return nil, errors.New("jwt: secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive, got %s", ttl)
	}
	return &JWT{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

func (j *JWT) Issue(userID string) (appauth.Token, error) {
	now := j.now().UTC()
	exp := now.Add(j.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(j.secret)
	if err != nil {
		return appauth.Token{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return appauth.Token{Value: signed, ExpiresAt: exp}, nil
}

func (j *JWT) Verify(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", fmt.Errorf("jwt: verify: %w", err)
	}
	if c.UserID == "" {
		return c.Subject, nil
	}
	return c.UserID, nil
}
