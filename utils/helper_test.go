package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "jane@example.com", false)
	require.NoError(t, err)

	sub, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sub)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("one"), "guest-1", true)
	require.NoError(t, err)

	_, err = ParseToken([]byte("two"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
