package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortLen is the number of hex characters kept by the Short variants.
const shortLen = 8

// SHA256 returns the hex encoded SHA-256 digest of input.
func SHA256(input string) string {
	return SHA256Bytes([]byte(input))
}

func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}

// ShortSHA256 returns a digest prefix for log fields, where the full digest is noise.
func ShortSHA256(input string) string {
	return SHA256(input)[:shortLen]
}

func ShortSHA256Bytes(input []byte) string {
	return SHA256Bytes(input)[:shortLen]
}
