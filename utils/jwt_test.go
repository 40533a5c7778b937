package utils

import (
	"testing"
	"time"

	"tourify/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtract(t *testing.T) {
	config.AppConfig.JWTSecret = "unit-test-secret"

	before := time.Now()
	token, err := GenerateToken("user-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, iat, err := ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
	assert.WithinDuration(t, before, iat, 2*time.Second)
}

func TestExtractRejectsExpiredToken(t *testing.T) {
	config.AppConfig.JWTSecret = "unit-test-secret"

	token, err := GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)

	_, _, err = ExtractClaims(token)
	assert.Error(t, err)
}

func TestExtractRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "unit-test-secret"
	token, err := GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "a-different-secret"
	defer func() { config.AppConfig.JWTSecret = "unit-test-secret" }()

	_, _, err = ExtractClaims(token)
	assert.Error(t, err)
}

func TestExtractRejectsGarbage(t *testing.T) {
	config.AppConfig.JWTSecret = "unit-test-secret"

	_, _, err := ExtractClaims("not-a-token")
	assert.Error(t, err)
}
