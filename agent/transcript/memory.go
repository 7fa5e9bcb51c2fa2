package transcript

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record"
)

// MemoryStore keeps the most recent transcripts in process. The oldest
// entry is evicted once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	items    map[string]contractx.Transcript
}

var _ contractx.TranscriptStore = (*MemoryStore)(nil)

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]contractx.Transcript, capacity),
	}
}

func (m *MemoryStore) Save(_ context.Context, t *contractx.Transcript) error {
	if t == nil {
		return ErrNilTranscript
	}
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[t.ID]; !exists {
		m.order = append(m.order, t.ID)
	}
	m.items[t.ID] = *t
	for len(m.order) > m.capacity {
		delete(m.items, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*contractx.Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("transcript %w", record.ErrNotFound)
	}
	return &t, nil
}
