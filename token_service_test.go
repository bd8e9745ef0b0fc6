package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() accounts.TokenService {
	return accounts.NewTokenService(
		[]byte("test-signing-key"),
		24,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		testLogger{},
	)
}

func TestTokenServiceGenerate(t *testing.T) {
	service := newTestTokenService()

	tokenString, err := service.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &accounts.JWTClaims{}, func(token *jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*accounts.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceValidate(t *testing.T) {
	service := newTestTokenService()

	t.Run("round trip", func(t *testing.T) {
		tokenString, err := service.Generate("user-123")
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
	})

	t.Run("expired token", func(t *testing.T) {
		now := time.Now()
		expired := &accounts.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"test-audience"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
			UID: "user-123",
		}

		tokenString, err := service.SignClaims(expired)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := accounts.NewTokenService(
			[]byte("some-other-key"),
			24,
			"test-issuer",
			jwt.ClaimStrings{"test-audience"},
			testLogger{},
		)

		tokenString, err := other.Generate("user-123")
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, accounts.IsMalformedError(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, accounts.IsMalformedError(err))
	})
}
