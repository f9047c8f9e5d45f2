// Package tokencache caches short-lived GitHub installation tokens so a new
// one is only minted when the cached token is close to expiry.
package tokencache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrMiss = errors.New("token not cached or expired")

// refreshMargin: tokens are treated as expired this long before their real
// expiry, so an in-flight request never carries a token about to die.
const refreshMargin = 5 * time.Minute

// Token is a cached installation token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Stale reports whether the token is past (or within the margin of) expiry.
func (t Token) Stale() bool {
	return time.Now().After(t.ExpiresAt.Add(-refreshMargin))
}

// Cache is the token cache surface the GitHub client depends on.
type Cache interface {
	Get(ctx context.Context, key string) (Token, error)
	Put(ctx context.Context, key string, tok Token) error
	Forget(ctx context.Context, key string) error
}

// Memory is an in-process Cache. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]Token)}
}

func (m *Memory) Get(_ context.Context, key string) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.tokens[key]
	if !ok || tok.Stale() {
		return Token{}, ErrMiss
	}
	return tok, nil
}

func (m *Memory) Put(_ context.Context, key string, tok Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = tok
	return nil
}

func (m *Memory) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}
