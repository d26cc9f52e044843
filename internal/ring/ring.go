// Package ring provides a bounded lookback window over interpreter output.
//
// The session pushes every line the child prints into a RingBuffer and asks
// whether the tail of the stream ends with its completion marker. Because the
// buffer holds at most Cap() lines, marker detection costs O(capacity) no
// matter how much output a statement produced.
package ring

import "sync"

// RingBuffer is a fixed-capacity circular store of the most recent lines.
//
// Slots are written at the cursor, which wraps modulo the capacity, so once
// the buffer is full each Push silently overwrites the oldest line:
//
//	cap=3  Push a,b,c:  [a, b, c]  next=0 size=3
//	       Push d:      [d, b, c]  next=1 size=3 -> Lines() = b, c, d
//
// All methods are safe for concurrent use.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []string
	next  int
	size  int
}

// New creates a ring buffer holding up to capacity lines. Capacities below
// one are clamped to one.
func New(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{slots: make([]string, capacity)}
}

// Push appends a line, overwriting the oldest entry once the buffer is full.
func (r *RingBuffer) Push(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[r.next] = line
	r.next = (r.next + 1) % len(r.slots)
	if r.size < len(r.slots) {
		r.size++
	}
}

// Clear drops all lines. Capacity is unchanged.
func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		r.slots[i] = ""
	}
	r.next = 0
	r.size = 0
}

// Len returns the number of populated slots.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return len(r.slots)
}

// Lines returns a copy of the populated slots, oldest first.
func (r *RingBuffer) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, r.size)
	for i := r.size; i > 0; i-- {
		out = append(out, r.slots[r.index(i)])
	}
	return out
}

// TailMatches reports whether the populated lines, joined with "\n", end with
// pattern. Slots are compared newest first, byte by byte from the end, so no
// joined copy of the history is ever built. An empty pattern always matches.
func (r *RingBuffer) TailMatches(pattern string) bool {
	if pattern == "" {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p := len(pattern)
	for back := 1; back <= r.size; back++ {
		line := r.slots[r.index(back)]
		for i := len(line) - 1; i >= 0; i-- {
			p--
			if line[i] != pattern[p] {
				return false
			}
			if p == 0 {
				return true
			}
		}
		if back == r.size {
			break
		}
		// Separator between this line and the one before it.
		p--
		if pattern[p] != '\n' {
			return false
		}
		if p == 0 {
			return true
		}
	}
	return false
}

// index maps "back lines from the newest" (1 = newest) to a slot position.
// Caller must hold the lock.
func (r *RingBuffer) index(back int) int {
	n := len(r.slots)
	return ((r.next-back)%n + n) % n
}
