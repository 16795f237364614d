package resettoken

import (
	"context"
	"crypto/sha1"
	"fmt"
	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/user"
	"sync"
	"time"
)

type FakeGenerator struct {
	Token       PlainToken
	ReturnError bool
}

func NewFakeGenerator(token string) *FakeGenerator {
	return &FakeGenerator{Token: PlainToken(token)}
}

func (g *FakeGenerator) GenerateToken() (PlainToken, error) {
	if g.ReturnError {
		return PlainToken(""), fmt.Errorf("could not generate token")
	}
	return g.Token, nil
}

type FakeHasher struct{}

func NewFakeHasher() *FakeHasher {
	return &FakeHasher{}
}

func (h *FakeHasher) HashToken(token PlainToken) TokenHash {
	sum := sha1.Sum([]byte(token))
	return TokenHash(fmt.Sprintf("%x", sum))
}

type FakeSender struct {
	Sent        []PlainToken
	SentTo      []c.Email
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (s *FakeSender) SendToken(ctx context.Context, email c.Email, token PlainToken) error {
	if s.ReturnError {
		return fmt.Errorf("could not send token to %s", email)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Sent = append(s.Sent, token)
	s.SentTo = append(s.SentTo, email)
	return nil
}

func (s *FakeSender) SentCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.Sent)
}

type FakeRepository struct {
	Tokens      []ResetToken
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{Tokens: make([]ResetToken, 0, 10)}
}

func (r *FakeRepository) Create(ctx context.Context, input CreateInput) (t ResetToken, err error) {
	if r.ReturnError {
		return t, fmt.Errorf("could not create reset token %v", input)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	maxID := ID(0)
	for _, t := range r.Tokens {
		if t.TokenHash == input.TokenHash {
			return t, ErrTokenHashAlreadyExists
		}
		maxID = t.ID
	}
	t = ResetToken{
		ID:               maxID + 1,
		UserID:           input.UserID,
		TokenHash:        input.TokenHash,
		CreatedAt:        input.CreatedAt,
		ExpiresAt:        input.ExpiresAt,
		RequestIP:        input.RequestIP,
		RequestUserAgent: input.RequestUserAgent,
	}
	r.Tokens = append(r.Tokens, t)
	return t, nil
}

func (r *FakeRepository) GetByHash(ctx context.Context, hash TokenHash) (t ResetToken, err error) {
	if r.ReturnError {
		return t, fmt.Errorf("could not get reset token by hash")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, t := range r.Tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return t, ErrTokenDoesNotExist
}

func (r *FakeRepository) RegisterAttempt(ctx context.Context, id ID, at time.Time) error {
	if r.ReturnError {
		return fmt.Errorf("could not register attempt for token %d", id)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix := range r.Tokens {
		if r.Tokens[ix].ID == id {
			r.Tokens[ix].Attempts++
			r.Tokens[ix].LastAttemptAt = c.NewOptional(at, true)
			return nil
		}
	}
	return ErrTokenDoesNotExist
}

func (r *FakeRepository) MarkUsed(ctx context.Context, id ID, at time.Time) error {
	if r.ReturnError {
		return fmt.Errorf("could not mark token %d as used", id)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix := range r.Tokens {
		if r.Tokens[ix].ID != id {
			continue
		}
		if r.Tokens[ix].Used {
			return ErrTokenAlreadyUsed
		}
		r.Tokens[ix].Used = true
		r.Tokens[ix].UsedAt = c.NewOptional(at, true)
		return nil
	}
	return ErrTokenDoesNotExist
}

func (r *FakeRepository) InvalidateAllForUser(ctx context.Context, userID user.ID, at time.Time) (int64, error) {
	if r.ReturnError {
		return 0, fmt.Errorf("could not invalidate tokens for user %d", userID)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	invalidated := int64(0)
	for ix := range r.Tokens {
		t := r.Tokens[ix]
		if t.UserID != userID || t.Used || t.IsExpired(at) {
			continue
		}
		r.Tokens[ix].Used = true
		r.Tokens[ix].UsedAt = c.NewOptional(at, true)
		invalidated++
	}
	return invalidated, nil
}

func (r *FakeRepository) GetByID(id ID) (ResetToken, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, t := range r.Tokens {
		if t.ID == id {
			return t, true
		}
	}
	return ResetToken{}, false
}

func (r *FakeRepository) LiveCountForUser(userID user.ID, now time.Time) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	count := 0
	for _, t := range r.Tokens {
		if t.UserID == userID && t.IsLive(now) {
			count++
		}
	}
	return count
}
