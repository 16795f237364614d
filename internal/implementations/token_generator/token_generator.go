package tokengenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"resetme/internal/core/domain/resettoken"
)

const TokenByteLength = 32

// CryptoRandGenerator produces unguessable reset tokens from the
// operating system CSPRNG.
type CryptoRandGenerator struct{}

func NewCryptoRandGenerator() *CryptoRandGenerator {
	return &CryptoRandGenerator{}
}

func (g *CryptoRandGenerator) GenerateToken() (resettoken.PlainToken, error) {
	b := make([]byte, TokenByteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return resettoken.PlainToken(base64.RawURLEncoding.EncodeToString(b)), nil
}

// SHA256Hasher derives the stored lookup key for a token. Only the
// hash is ever persisted.
type SHA256Hasher struct{}

func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

func (h *SHA256Hasher) HashToken(token resettoken.PlainToken) resettoken.TokenHash {
	sum := sha256.Sum256([]byte(token))
	return resettoken.TokenHash(base64.RawURLEncoding.EncodeToString(sum[:]))
}
