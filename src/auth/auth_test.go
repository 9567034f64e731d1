package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/relay/src/types"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(types.Identity{
		UserID:   "user-123",
		Email:    "alice@example.com",
		Username: "alice",
	}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := v.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "alice", identity.Username)
	assert.False(t, identity.IssuedAt.IsZero())
	assert.True(t, identity.ExpiresAt.After(identity.IssuedAt))
}

func TestVerifyMalformed(t *testing.T) {
	v := NewVerifier("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "whitespace", token: "   "},
		{name: "random string", token: "not.a.valid.token"},
		{name: "truncated jwt", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(types.Identity{UserID: "user-123"}, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewVerifier("secret-one")
	verifier := NewVerifier("secret-two")

	token, err := issuer.Sign(types.Identity{UserID: "user-123"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrSignature)
}
