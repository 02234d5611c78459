package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is used when NewRingBuffer gets a non-positive size.
const DefaultRingSize = 256

// RingBuffer keeps the last N events. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	head  int // next write slot
	count int
}

// NewRingBuffer allocates a buffer holding size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// later writes by the caller do not show up in the buffer.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.count {
		n = r.count
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	size := len(r.buf)
	start := (r.head - n + size) % size
	for i := range out {
		out[i] = r.buf[(start+i)%size]
	}
	return out
}

// Len is the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Counts tallies buffered events by kind.
func (r *RingBuffer) Counts() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	size := len(r.buf)
	start := (r.head - r.count + size) % size
	for i := 0; i < r.count; i++ {
		counts[r.buf[(start+i)%size].Kind]++
	}
	return counts
}
