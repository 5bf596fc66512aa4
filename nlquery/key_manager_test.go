package nlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY_1", "")
	t.Setenv("GEMINI_API_KEY_2", "")
	t.Setenv("GEMINI_API_KEY_3", "")
	t.Setenv("GEMINI_API_KEY_4", "")
}

func TestKeyManager(t *testing.T) {
	t.Run("no keys configured", func(t *testing.T) {
		clearKeys(t)

		km := NewKeyManager()
		assert.False(t, km.HasKeys())
		assert.Empty(t, km.Next())
	})

	t.Run("single key", func(t *testing.T) {
		clearKeys(t)
		t.Setenv("GEMINI_API_KEY", "key-a")

		km := NewKeyManager()
		assert.True(t, km.HasKeys())
		assert.Equal(t, "key-a", km.Next())
		assert.Equal(t, "key-a", km.Next())
	})

	t.Run("rotates across numbered keys", func(t *testing.T) {
		clearKeys(t)
		t.Setenv("GEMINI_API_KEY_1", "key-1")
		t.Setenv("GEMINI_API_KEY_2", "key-2")

		km := NewKeyManager()
		assert.Equal(t, "key-1", km.Next())
		assert.Equal(t, "key-2", km.Next())
		assert.Equal(t, "key-1", km.Next())
	})
}
