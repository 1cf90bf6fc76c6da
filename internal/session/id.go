package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const idBytes = 32 // 256 bits

// NewID returns an unpredictable, URL-safe session identifier.
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
