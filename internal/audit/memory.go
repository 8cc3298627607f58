package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is the ring size used when none is configured.
const DefaultMemoryCapacity = 256

// MemorySink keeps the most recent events in a fixed-capacity ring.
type MemorySink struct {
	mu    sync.RWMutex
	buf   []Event
	start int
	count int
}

// NewMemorySink creates a ring holding up to capacity events.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{buf: make([]Event, capacity)}
}

func (m *MemorySink) Name() string { return "memory" }

func (m *MemorySink) Write(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count < len(m.buf) {
		m.buf[(m.start+m.count)%len(m.buf)] = e
		m.count++
		return nil
	}
	// overwrite oldest
	m.buf[m.start] = e
	m.start = (m.start + 1) % len(m.buf)
	return nil
}

func (m *MemorySink) Recent(_ context.Context, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > m.count {
		limit = m.count
	}
	out := make([]Event, 0, limit)
	for i := m.count - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.buf[(m.start+i)%len(m.buf)])
	}
	return out, nil
}
