package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !hasher.Verify("pw1", digest) {
		t.Fatalf("expected digest to verify against original password")
	}
	if hasher.Verify("pw2", digest) {
		t.Fatalf("expected different password to fail verification")
	}
}

func TestHashIsSalted(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatalf("expected two hashes of the same password to differ")
	}
	if !hasher.Verify("same password", first) || !hasher.Verify("same password", second) {
		t.Fatalf("expected both digests to verify")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-bcrypt-digest", "$2a$xx$garbage"} {
		if hasher.Verify("pw", digest) {
			t.Fatalf("expected malformed digest %q to verify false", digest)
		}
	}
}

func TestInvalidCostFallsBackToDefault(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(999)
	digest, err := hasher.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost %d, got %d", bcrypt.DefaultCost, cost)
	}
}
