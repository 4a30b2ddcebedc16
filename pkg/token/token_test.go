package token_test

import (
	"testing"
	"time"

	"yayasan/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("test-secret")

	raw, err := token.Issue(secret, "0b8f5c2e-5a3c-4f43-9d0e-0b7b0d1a2c3d", "ks@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := token.Parse(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, "ks@example.com", claims.Email)
	assert.Equal(t, "0b8f5c2e-5a3c-4f43-9d0e-0b7b0d1a2c3d", claims.Subject)
}

func TestParseRejects(t *testing.T) {
	secret := []byte("test-secret")

	expired, err := token.Issue(secret, "u1", "a@example.com", -time.Minute)
	require.NoError(t, err)

	other, err := token.Issue([]byte("another-secret"), "u1", "a@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.Parse(secret, tt.raw)
			assert.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}
