package resettoken

// Generator mints plaintext tokens. Implementations must provide at least
// 256 bits of entropy from a cryptographically secure source, uniqueness
// is enforced by entropy and the storage constraint, never by retrying.
type Generator interface {
	GenerateToken() (PlainToken, error)
}

// Hasher derives the storable form of a plaintext token.
type Hasher interface {
	HashToken(token PlainToken) TokenHash
}
