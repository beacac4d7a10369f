package storage

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// generateID generates a new UUID
func generateID() string {
	return uuid.New().String()
}

// ComputeHash computes the SHA256 hash of content. Used to fingerprint
// the compiled artifact a deployment was made from.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
