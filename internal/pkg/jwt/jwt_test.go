package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("access-secret"), time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("refresh-secret"))
	require.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("user-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	require.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", []byte("test-secret"))
	require.Error(t, err)
}
