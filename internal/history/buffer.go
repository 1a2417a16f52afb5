// Package history implements the bounded in-memory log of recent messages.
//
// The buffer is process-wide and not persisted: a restart loses history.
// New realtime clients receive a replay of the tail on connect.
package history

import (
	"sync"

	"notifyd/internal/domain"
)

// DefaultCapacity is the number of messages retained before oldest-first
// eviction kicks in.
const DefaultCapacity = 100

// Buffer is a bounded, ordered message log. Safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	entries  []domain.Message
}

// NewBuffer creates a buffer holding at most capacity messages.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]domain.Message, 0, capacity),
	}
}

// Append adds a message to the tail, evicting from the head when the buffer
// exceeds its capacity.
func (b *Buffer) Append(msg domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, msg)
	if len(b.entries) > b.capacity {
		overflow := len(b.entries) - b.capacity
		b.entries = append(b.entries[:0], b.entries[overflow:]...)
	}
}

// Recent returns up to the last n messages in chronological order.
// The result is a copy and never nil.
func (b *Buffer) Recent(n int) []domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n < 0 {
		n = 0
	}
	start := len(b.entries) - n
	if start < 0 {
		start = 0
	}

	out := make([]domain.Message, len(b.entries)-start)
	copy(out, b.entries[start:])
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
