package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const TokenLen = 32

// generateVerificationToken returns a raw verification token and its
// SHA-256 digest. Only the digest is ever persisted; the raw token goes
// out in the verification link and is recomputed on the way back in.
func generateVerificationToken() (string, string, error) {
	buf := make([]byte, TokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to read entropy source: %w", err)
	}

	rawToken := hex.EncodeToString(buf)
	return rawToken, hashVerificationToken(rawToken), nil
}

func hashVerificationToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
