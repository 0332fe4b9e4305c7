package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.NoError(t, h.Compare(hash, "s3cret!"))
	assert.Error(t, h.Compare(hash, "wrong"))
}

func TestBcryptRejectsBadCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestJWTIssueVerify(t *testing.T) {
	j, err := NewJWT("secret", time.Hour, "storefront")
	require.NoError(t, err)

	tok, err := j.Issue("u1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	id, err := j.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestJWTRejects(t *testing.T) {
	j, err := NewJWT("secret", time.Hour, "storefront")
	require.NoError(t, err)
	tok, err := j.Issue("u1")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other, err := NewJWT("different", time.Hour, "storefront")
		require.NoError(t, err)
		_, err = other.Verify(tok.Value)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := *j
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Verify(tok.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.Verify("not-a-token")
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(time.Hour).Unix()})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = j.Verify(s)
		assert.Error(t, err)
	})
}
