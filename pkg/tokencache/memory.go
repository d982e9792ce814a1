package tokencache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/ssoflow/pkg/session"
)

// DefaultMemorySize bounds the in-process cache when no size is configured
const DefaultMemorySize = 128

// Memory is a bounded in-process token cache backed by an LRU
type Memory struct {
	entries *lru.Cache[string, session.CachedToken]
}

// NewMemory creates an in-process cache holding at most size tokens
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[string, session.CachedToken](size)
	if err != nil {
		return nil, fmt.Errorf("create LRU: %w", err)
	}
	return &Memory{entries: entries}, nil
}

// Load returns the cached token for applicationID, or (nil, nil) on a miss.
// An expired entry is evicted and reported as a miss.
func (m *Memory) Load(_ context.Context, applicationID string) (*session.CachedToken, error) {
	tok, ok := m.entries.Get(applicationID)
	if !ok {
		return nil, nil
	}
	if !tok.Valid(time.Now()) {
		m.entries.Remove(applicationID)
		return nil, nil
	}
	return &tok, nil
}

// Save stores token for applicationID, replacing any previous entry
func (m *Memory) Save(_ context.Context, applicationID string, token *session.CachedToken) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}
	m.entries.Add(applicationID, *token)
	return nil
}

// Clear purges the cached token for applicationID
func (m *Memory) Clear(_ context.Context, applicationID string) error {
	m.entries.Remove(applicationID)
	return nil
}
