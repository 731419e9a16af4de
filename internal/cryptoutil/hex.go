// Package cryptoutil holds small helpers for handling key material.
package cryptoutil

import (
	"encoding/hex"
	"fmt"
)

// IsHexString reports whether s consists entirely of hexadecimal characters
// (0-9, a-f, A-F). It returns true for an empty string — callers should check
// length separately when a minimum size is required.
func IsHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// DecodeKey turns a configured key string into raw key bytes of the
// required size. Accepts either exactly size raw bytes or 2*size hex
// characters.
func DecodeKey(s string, size int) ([]byte, error) {
	if len(s) == size {
		return []byte(s), nil
	}
	if len(s) == 2*size && IsHexString(s) {
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decoding hex key: %w", err)
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("key must be exactly %d bytes or %d hex characters, got %d characters", size, 2*size, len(s))
}
