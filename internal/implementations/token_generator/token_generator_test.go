package tokengenerator

import (
	"resetme/internal/core/domain/resettoken"
	"testing"
)

func TestTokenGenerator(t *testing.T) {
	generator := NewCryptoRandGenerator()
	tokens := make(map[resettoken.PlainToken]struct{})
	for i := 0; i < 100; i++ {
		token, err := generator.GenerateToken()
		if err != nil {
			t.Fatalf("could not generate token: %v", err)
		}
		if len(token) < 43 {
			t.Fatalf("token too short: %v", token)
		}
		if _, ok := tokens[token]; ok {
			t.Fatalf("token %v already exists", token)
		}
		tokens[token] = struct{}{}
	}
}

func TestTokenHasher(t *testing.T) {
	hasher := NewSHA256Hasher()

	hash := hasher.HashToken("test-token")
	if hash == resettoken.TokenHash("") {
		t.Fatal("hash must not be empty")
	}
	if hash == resettoken.TokenHash("test-token") {
		t.Fatal("hash must not equal the plain token")
	}
	if hasher.HashToken("test-token") != hash {
		t.Fatal("hashing must be deterministic")
	}
	if hasher.HashToken("test-token-2") == hash {
		t.Fatal("different tokens must not collide")
	}
}
