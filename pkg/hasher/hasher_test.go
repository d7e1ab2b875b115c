package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword([]byte("hunter2"))
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, PasswordCorrect("hunter2", hash))
	assert.False(t, PasswordCorrect("hunter3", hash))
	assert.False(t, PasswordCorrect("hunter2", "not-a-hash"))
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
