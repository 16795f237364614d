package ratelimiter

import (
	"context"
	"sync"
)

type FakeRateLimiter struct {
	Allow       bool
	CheckedKeys []string
	lock        sync.Mutex
}

func NewFakeRateLimiter(allow bool) *FakeRateLimiter {
	return &FakeRateLimiter{Allow: allow}
}

func (l *FakeRateLimiter) CheckLimit(ctx context.Context, key string, limit Limit) Result {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.CheckedKeys = append(l.CheckedKeys, key)
	if l.Allow {
		return Allowed()
	}
	return NotAllowed()
}
