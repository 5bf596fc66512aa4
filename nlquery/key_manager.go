package nlquery

import (
	"fmt"
	"os"
	"sync/atomic"
)

// maxNumberedKeys is how many GEMINI_API_KEY_N variables are probed.
const maxNumberedKeys = 4

// KeyManager rotates across the configured Gemini API keys so a rate-limited
// key does not stall every request.
type KeyManager struct {
	keys    []string
	current uint32
}

// NewKeyManager collects GEMINI_API_KEY plus any GEMINI_API_KEY_1..4 from the
// environment.
func NewKeyManager() *KeyManager {
	var keys []string
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		keys = append(keys, key)
	}
	for i := 1; i <= maxNumberedKeys; i++ {
		if key := os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i)); key != "" {
			keys = append(keys, key)
		}
	}
	return &KeyManager{keys: keys}
}

// HasKeys reports whether any API key is configured.
func (km *KeyManager) HasKeys() bool {
	return len(km.keys) > 0
}

// Next returns the next API key in rotation, or "" when none are configured.
func (km *KeyManager) Next() string {
	if len(km.keys) == 0 {
		return ""
	}
	current := atomic.AddUint32(&km.current, 1)
	return km.keys[(current-1)%uint32(len(km.keys))]
}
