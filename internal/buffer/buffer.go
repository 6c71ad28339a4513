// package buffer provides some audio buffer primitives.
package buffer

import (
	"fmt"
	"sync"
)

// Ring keeps the most recent samples written to it, for looking at rather
// than listening to. It has its own lock so that taking a snapshot at UI rate
// does not hold up the synth.
type Ring struct {
	mu     sync.Mutex
	buf    []float32
	cursor int
	full   bool
}

// NewRing allocates a ring that holds size samples. A size below 1 is
// treated as 1.
func NewRing(size int) *Ring {
	return &Ring{buf: make([]float32, max(size, 1))}
}

func (r *Ring) String() string {
	return fmt.Sprintf("Ring(%d/%d)", r.Len(), r.Cap())
}

// Push adds a single sample, overwriting the oldest once full.
func (r *Ring) Push(s float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(s)
}

// Write pushes a block of samples under one lock.
func (r *Ring) Write(in []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(in) >= len(r.buf) {
		// only the tail survives.
		in = in[len(in)-len(r.buf):]
		copy(r.buf, in)
		r.cursor = 0
		r.full = true
		return
	}
	for _, s := range in {
		r.push(s)
	}
}

func (r *Ring) push(s float32) {
	r.buf[r.cursor] = s
	r.cursor++
	if r.cursor == len(r.buf) {
		r.cursor = 0
		r.full = true
	}
}

// Len is the number of samples a snapshot would return.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.cursor
}

// Cap is the size the ring was made with.
func (r *Ring) Cap() int { return len(r.buf) }

// Snapshot returns a copy of the contents, oldest first.
func (r *Ring) Snapshot() []float32 {
	return r.SnapshotInto(nil)
}

// SnapshotInto is Snapshot but reuses dst if it has room.
func (r *Ring) SnapshotInto(dst []float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append(dst[:0], r.buf[:r.cursor]...)
	}
	dst = append(dst[:0], r.buf[r.cursor:]...)
	return append(dst, r.buf[:r.cursor]...)
}
