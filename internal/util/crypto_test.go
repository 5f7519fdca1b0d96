package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		assert.Len(t, HashToken("test-token"), 64)
	})

	t.Run("same input produces same hash", func(t *testing.T) {
		assert.Equal(t, HashToken("test-token"), HashToken("test-token"))
	})

	t.Run("different input produces different hash", func(t *testing.T) {
		assert.NotEqual(t, HashToken("token-1"), HashToken("token-2"))
	})
}

func TestTokenFingerprint(t *testing.T) {
	fp := TokenFingerprint("test-token")
	assert.Len(t, fp, 8)
	assert.Equal(t, HashToken("test-token")[:8], fp)
}

func TestConstantTimeEqual(t *testing.T) {
	t.Run("returns true for equal strings", func(t *testing.T) {
		assert.True(t, ConstantTimeEqual("abc", "abc"))
	})

	t.Run("returns false for different strings", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "def"))
	})

	t.Run("returns false for different lengths", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "abcd"))
	})

	t.Run("returns true for empty strings", func(t *testing.T) {
		assert.True(t, ConstantTimeEqual("", ""))
	})
}
