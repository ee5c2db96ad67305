// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short truncates a hex digest to n characters for display.
func Short(digest string, n int) string {
	if n < 0 || n >= len(digest) {
		return digest
	}
	return digest[:n]
}
