package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/arklim/campus-records/internal/core/port"
)

func fastParams() port.Argon2Params {
	return port.Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgon2HasherRoundTrip(t *testing.T) {
	hasher, err := NewArgon2Hasher(fastParams())
	if err != nil {
		t.Fatalf("NewArgon2Hasher: %v", err)
	}

	encoded, err := hasher.Hash("student123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, err := hasher.Verify("student123", encoded)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("student124", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestArgon2HasherVerifiesHashesFromOtherParams(t *testing.T) {
	old, _ := NewArgon2Hasher(fastParams())
	encoded, err := old.Hash("teacher123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	stronger := fastParams()
	stronger.Iterations = 2
	current, _ := NewArgon2Hasher(stronger)

	ok, err := current.Verify("teacher123", encoded)
	if err != nil || !ok {
		t.Fatalf("expected hash from previous parameters to verify, ok=%v err=%v", ok, err)
	}
}

func TestArgon2HasherRejectsWeakConfig(t *testing.T) {
	params := fastParams()
	params.Memory = 1024
	if _, err := NewArgon2Hasher(params); !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestArgon2HasherRejectsMalformedHash(t *testing.T) {
	hasher, _ := NewArgon2Hasher(fastParams())
	for _, encoded := range []string{"plain", "bcrypt$v=19$m=1,t=1,p=1$a$b", "argon2id$v=19$m=x,t=1,p=1$a$b"} {
		if _, err := hasher.Verify("secret", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}
