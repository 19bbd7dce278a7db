package api

import (
	"context"
	"time"

	"github.com/shaj13/go-guardian/store"
)

// MemoryRevocations keeps revoked tokens in process. It backs logout when no
// Redis server is configured.
type MemoryRevocations struct {
	cache store.Cache
}

// NewMemoryRevocations remembers each revoked token for ttl
func NewMemoryRevocations(ttl time.Duration) *MemoryRevocations {
	return &MemoryRevocations{cache: store.NewFIFO(context.Background(), ttl)}
}

// Revoke denylists token
func (m *MemoryRevocations) Revoke(_ context.Context, token string, _ time.Time) error {
	return m.cache.Store(token, true, nil)
}

// IsRevoked reports whether token was revoked
func (m *MemoryRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok, err := m.cache.Load(token, nil)
	return ok, err
}
