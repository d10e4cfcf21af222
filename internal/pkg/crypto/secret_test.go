package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secret) != SecretLength {
		t.Errorf("expected length %d, got %d", SecretLength, len(secret))
	}
	for _, c := range secret {
		if !strings.ContainsRune(secretChars, c) {
			t.Errorf("secret contains character outside charset: %q", c)
		}
	}

	other, err := GenerateSecret(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret == other {
		t.Error("two generated secrets should not match")
	}
}

func TestGenerateSecret_CustomLength(t *testing.T) {
	secret, err := GenerateSecret(64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("expected length 64, got %d", len(secret))
	}
}

func TestDigestSecret_SaltedAndVerifiable(t *testing.T) {
	const plaintext = "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"

	first, err := DigestSecret(plaintext, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := DigestSecret(plaintext, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("digests of the same plaintext should differ (embedded salt)")
	}
	if !VerifySecret(plaintext, first) {
		t.Error("first digest should verify")
	}
	if !VerifySecret(plaintext, second) {
		t.Error("second digest should verify")
	}
}

func TestVerifySecret_Mismatch(t *testing.T) {
	digest, err := DigestSecret("correct-secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if VerifySecret("incorrect_secret", digest) {
		t.Error("wrong plaintext should not verify")
	}
	if VerifySecret("correct-secret", "not-a-digest") {
		t.Error("malformed digest should not verify")
	}
}
