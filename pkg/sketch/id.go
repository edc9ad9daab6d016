package sketch

import (
	"bytes"
	"sync/atomic"

	"github.com/google/uuid"
)

// newID returns a fresh random UID.
func newID() uuid.UUID {
	return uuid.New()
}

// compareIDs orders two UIDs by their big-endian byte representation.
func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// Sequence hands out increasing order numbers to Shapes. Each Sketch owns
// one, so creation order is reproducible per document rather than per
// process.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence returns a sequence whose first Next call yields 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceFrom returns a sequence whose first Next call yields start+1.
func NewSequenceFrom(start uint64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next returns the next order number.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the last number handed out.
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}

// Observe advances the sequence so that it never hands out n again.
func (s *Sequence) Observe(n uint64) {
	for {
		cur := s.n.Load()
		if cur >= n || s.n.CompareAndSwap(cur, n) {
			return
		}
	}
}
