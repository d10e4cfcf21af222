// Package crypto provides credential utilities for Hermes Gateway:
// secret generation, one-way digests, and constant-time verification.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SecretLength is the default length of generated application secrets.
	SecretLength = 40

	// secretChars contains the characters used in generated secrets.
	secretChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

// GenerateSecret generates a cryptographically random secret of the given
// length. A non-positive length falls back to SecretLength. The output is
// uniformly drawn from secretChars and derived from nothing but the system
// entropy source.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		length = SecretLength
	}

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = secretChars[int(randomBytes[i])%len(secretChars)]
	}
	return string(result), nil
}

// DigestSecret computes a one-way, salted digest of the plaintext secret.
// The salt is embedded in the digest's stored representation, so two digests
// of the same plaintext differ while both remain verifiable. A non-positive
// cost falls back to bcrypt.DefaultCost.
func DigestSecret(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to digest secret: %w", err)
	}
	return string(digest), nil
}

// VerifySecret reports whether the plaintext matches the stored digest.
// The comparison runs in constant time with respect to the candidate, so
// mismatch position leaks no timing signal.
func VerifySecret(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
