package ratelimit

import (
	"sync"
	"time"
)

type windowRecord struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is the in-process window store. State is lost on restart,
// which is acceptable for best-effort admission control.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*windowRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*windowRecord),
	}
}

// Admit implements Store
func (s *MemoryStore) Admit(key string, limit int, now, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.After(rec.expiresAt) {
		s.records[key] = &windowRecord{count: 1, expiresAt: expiresAt}
		// Opportunistic cleanup so stale windows don't accumulate.
		s.sweepLocked(now)
		return true, nil
	}

	if rec.count >= limit {
		return false, nil
	}

	rec.count++
	return true, nil
}

// Sweep implements Store
func (s *MemoryStore) Sweep(before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(before)
	return nil
}

func (s *MemoryStore) sweepLocked(before time.Time) {
	for key, rec := range s.records {
		if rec.expiresAt.Before(before) {
			delete(s.records, key)
		}
	}
}

// Len returns the number of live window records
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
