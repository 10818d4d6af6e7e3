package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
)

// MemoryStore keeps revoked session ids in process memory. Entries vanish on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke implements auth.RevocationStore.
func (s *MemoryStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = until
	s.sweepLocked()
	return nil
}

// IsRevoked implements auth.RevocationStore.
func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if hasExpired(until, s.now()) {
		s.mu.Lock()
		delete(s.revoked, tokenID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.revoked)
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, until := range s.revoked {
		if hasExpired(until, now) {
			delete(s.revoked, id)
		}
	}
}

func hasExpired(ts, now time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(now)
}

var _ auth.RevocationStore = (*MemoryStore)(nil)
