package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("pw123")
	require.NoError(t, err)
	require.NotEqual(t, "pw123", hashed)

	assert.True(t, CheckPassword(hashed, "pw123"))
	assert.False(t, CheckPassword(hashed, "wrong"))
	assert.False(t, CheckPassword("", "pw123"))
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("pw123")
	require.NoError(t, err)
	b, err := HashPassword("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
