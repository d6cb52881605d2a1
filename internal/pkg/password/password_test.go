package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("printer42")
	require.NoError(t, err)

	assert.True(t, Verify("printer42", hash))
	assert.False(t, Verify("printer43", hash))
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestIsStrong(t *testing.T) {
	assert.True(t, IsStrong("filament9"))
	assert.False(t, IsStrong("short1"))
	assert.False(t, IsStrong("onlyletters"))
	assert.False(t, IsStrong("1234567890"))
}
