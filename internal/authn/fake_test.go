package authn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeProviderStoresHashedCredentials(t *testing.T) {
	provider := NewFakeProvider()
	ctx := context.Background()

	id, err := provider.CreateAccount(ctx, "ana@example.com", "secret123", "Ana Soto")
	require.NoError(t, err)

	// Only the bcrypt hash is retained.
	stored := provider.accounts["ana@example.com"].PasswordHash
	assert.NotEqual(t, "secret123", stored)
	assert.Contains(t, stored, "$2a$")

	verified, err := provider.VerifyCredential(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, id, verified)

	_, err = provider.VerifyCredential(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestFakeProviderHashesUpdatedPassword(t *testing.T) {
	provider := NewFakeProvider()
	ctx := context.Background()

	id, err := provider.CreateAccount(ctx, "ana@example.com", "secret123", "Ana Soto")
	require.NoError(t, err)

	rotated := "rotated-456"
	require.NoError(t, provider.UpdateAccount(ctx, id, AccountPatch{Password: &rotated}))

	_, err = provider.VerifyCredential(ctx, "ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	verified, err := provider.VerifyCredential(ctx, "ana@example.com", "rotated-456")
	require.NoError(t, err)
	assert.Equal(t, id, verified)
}
