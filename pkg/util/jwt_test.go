package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		secret  string
		expiry  time.Duration
		wantErr bool
	}{
		{
			name:    "Valid token generation",
			email:   "test@example.com",
			secret:  testSecret,
			expiry:  24 * time.Hour,
			wantErr: false,
		},
		{
			name:    "Short expiry",
			email:   "owner@example.com",
			secret:  testSecret,
			expiry:  15 * time.Minute,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.email, tt.secret, tt.expiry)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	email := "test@example.com"

	token, err := GenerateToken(email, testSecret, 24*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{
			name:    "Valid token",
			token:   token,
			secret:  testSecret,
			wantErr: nil,
		},
		{
			name:    "Invalid secret",
			token:   token,
			secret:  "wrong-secret",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Invalid token format",
			token:   "invalid.token.format",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Empty token",
			token:   "",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, email, claims.Email)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("test@example.com", testSecret, 1*time.Nanosecond)
	require.NoError(t, err)

	// Wait a bit to ensure token expires
	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(token, testSecret)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenClaims(t *testing.T) {
	email := "user@example.com"

	token, err := GenerateToken(email, testSecret, 24*time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	require.NotNil(t, claims)

	assert.Equal(t, email, claims.Email)
	assert.NotNil(t, claims.ExpiresAt)
	assert.NotNil(t, claims.IssuedAt)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
}

func TestTokenRemainingTTL(t *testing.T) {
	token, err := GenerateToken("test@example.com", testSecret, 1*time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	remaining := TokenRemainingTTL(claims)
	assert.Greater(t, remaining, 55*time.Minute)
	assert.LessOrEqual(t, remaining, 1*time.Hour)

	assert.Zero(t, TokenRemainingTTL(nil))
}
