package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPayload returns the hex SHA-256 digest of an opaque payload such as a
// signature data URI.
func HashPayload(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
