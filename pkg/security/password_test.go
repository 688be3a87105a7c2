package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse battery"))
	assert.Error(t, hasher.Compare(hash, "wrong password"))
}

func TestBcryptHasherRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(4)

	_, err := hasher.Hash("short")
	assert.Error(t, err)
}

func TestGenerateTemporaryPassword(t *testing.T) {
	p1, err := GenerateTemporaryPassword(14)
	require.NoError(t, err)
	assert.Len(t, p1, 14)

	p2, err := GenerateTemporaryPassword(14)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestGenerateTemporaryPasswordEnforcesMinimumLength(t *testing.T) {
	p, err := GenerateTemporaryPassword(2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(p), MinPasswordLen)
}
