package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashURL produces a stable key for a url, ignoring scheme and trailing slash
// so http/https and slash variants of the same page share cache entries.
func HashURL(url string) string {
	normalized := strings.TrimSuffix(url, "/")
	normalized = strings.TrimPrefix(normalized, "https://")
	normalized = strings.TrimPrefix(normalized, "http://")
	normalized = strings.TrimPrefix(normalized, "www.")
	sum := sha256.Sum256([]byte(strings.ToLower(normalized)))
	return hex.EncodeToString(sum[:])
}
