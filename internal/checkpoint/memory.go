package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps checkpoints in process memory. Suited to tests and
// single-shot runs where durability across processes is not needed.
type MemoryStore struct {
	mu  sync.RWMutex
	cps map[string][]byte
	at  map[string]time.Time
}

// NewMemoryStore creates an in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cps: make(map[string][]byte),
		at:  make(map[string]time.Time),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp.ThreadID == "" {
		return fmt.Errorf("checkpoint has no thread id")
	}
	cp.UpdatedAt = time.Now()

	// Stored serialized so callers cannot mutate saved state through shared
	// slices.
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cps[cp.ThreadID] = data
	s.at[cp.ThreadID] = cp.UpdatedAt
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	s.mu.RLock()
	data, ok := s.cps[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cps, threadID)
	delete(s.at, threadID)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.cps))
	for id := range s.cps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.at[ids[i]].After(s.at[ids[j]])
	})
	return ids, nil
}

var _ Store = (*MemoryStore)(nil)
