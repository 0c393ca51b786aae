package security

import (
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	digest, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if digest == "pw123456" {
		t.Fatal("HashPassword() returned the plaintext")
	}
	if !CheckPasswordHash("pw123456", digest) {
		t.Error("CheckPasswordHash() = false for the matching password")
	}
}

func TestCheckPasswordHashWrongPassword(t *testing.T) {
	digest, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if CheckPasswordHash("different", digest) {
		t.Error("CheckPasswordHash() = true for a different password")
	}
}

func TestCheckPasswordHashMalformedDigest(t *testing.T) {
	if CheckPasswordHash("pw123456", "not-a-bcrypt-digest") {
		t.Error("CheckPasswordHash() = true for a malformed digest")
	}
	if CheckPasswordHash("pw123456", "") {
		t.Error("CheckPasswordHash() = true for an empty digest")
	}
}

func TestHashPasswordSaltsIndependently(t *testing.T) {
	first, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	second, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical, expected fresh salts")
	}
	if !CheckPasswordHash("pw123456", first) || !CheckPasswordHash("pw123456", second) {
		t.Error("verification is not salt-aware")
	}
}
