package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey maps a cache key to a fixed-length object name.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
