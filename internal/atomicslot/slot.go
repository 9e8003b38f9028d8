// Package atomicslot provides a single pointer-sized atomic cell shared by
// exactly two goroutines.
//
// A Slot is the one point of contention between the writer and the reader
// of a pipe. Everything else either side touches is owned exclusively by
// that side, so every cross-goroutine happens-before edge goes through here.
package atomicslot

import "sync/atomic"

// Slot holds a *T that is read and replaced atomically.
//
// The zero value holds nil.
type Slot[T any] struct {
	p atomic.Pointer[T]
}

// Set replaces the value.
//
// Callers use Set only when they know the other goroutine is not accessing
// the slot (for example after observing that the reader declared itself
// idle). It is still an atomic store: the reader must observe the item
// data written before Set once it is woken.
func (s *Slot[T]) Set(v *T) {
	s.p.Store(v)
}

// Load returns the current value.
func (s *Slot[T]) Load() *T {
	return s.p.Load()
}

// CAS replaces the value with desired if it currently equals expected.
//
// It returns the value the slot held at the linearization point: expected
// on success, the differing current value on failure. Callers compare the
// result against expected to learn whether the swap happened.
func (s *Slot[T]) CAS(expected, desired *T) *T {
	for {
		cur := s.p.Load()
		if cur != expected {
			return cur
		}
		if s.p.CompareAndSwap(expected, desired) {
			return expected
		}
		// The value changed between Load and CompareAndSwap; retry so the
		// returned value is one the slot actually held.
	}
}
