package resettoken

import (
	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/user"
	"time"
)

type ID int64

// PlainToken is the caller-facing secret. It is surfaced exactly once at
// issuance and is never persisted or logged.
type PlainToken string

func (t PlainToken) String() string {
	return "***"
}

// TokenHash is a one-way hash of a PlainToken, the only form kept in
// storage.
type TokenHash string

// MaxAttempts bounds validation attempts against a single token. Once
// reached the token is forcibly marked used.
const MaxAttempts = 5

type ResetToken struct {
	ID        ID
	UserID    user.ID
	TokenHash TokenHash
	CreatedAt time.Time
	ExpiresAt time.Time

	Used   bool
	UsedAt c.Optional[time.Time]

	Attempts      uint32
	LastAttemptAt c.Optional[time.Time]

	// Provenance, audit only.
	RequestIP        c.Optional[string]
	RequestUserAgent c.Optional[string]
}

// IsExpired reports whether the token is unusable due to time passage.
// A token expires at exactly ExpiresAt, not a moment later.
func (t ResetToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t ResetToken) IsLocked() bool {
	return t.Attempts >= MaxAttempts
}

// IsLive reports whether the token can still redeem a password change.
func (t ResetToken) IsLive(now time.Time) bool {
	return !t.Used && !t.IsExpired(now) && !t.IsLocked()
}

func (t ResetToken) MinutesRemaining(now time.Time) int {
	if t.IsExpired(now) {
		return 0
	}
	return int(t.ExpiresAt.Sub(now) / time.Minute)
}
