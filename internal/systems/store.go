package systems

import (
	"context"
	"sync"
)

// FlagStore persists which systems a visitor has unlocked or locked.
// Owners are opaque visitor identifiers.
type FlagStore interface {
	// Flags returns every flag stored for owner. Systems the owner never
	// toggled are absent.
	Flags(ctx context.Context, owner string) (map[string]bool, error)
	// SetFlag records the unlocked state of one system for owner.
	SetFlag(ctx context.Context, owner, systemID string, unlocked bool) error
}

// MemoryStore keeps flags in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]map[string]bool)}
}

func (m *MemoryStore) Flags(_ context.Context, owner string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyFlags(m.flags[owner]), nil
}

func (m *MemoryStore) SetFlag(_ context.Context, owner, systemID string, unlocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flags[owner] == nil {
		m.flags[owner] = make(map[string]bool)
	}
	m.flags[owner][systemID] = unlocked
	return nil
}

func copyFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
