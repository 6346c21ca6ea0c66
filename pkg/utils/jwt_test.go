package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", "7", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("jwt-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "7", claims.WorkspaceID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", "7", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", "7", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("jwt-secret", token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("jwt-secret", "not.a.token")
	assert.Error(t, err)
}
