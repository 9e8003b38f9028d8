package queue

import (
	"fmt"
	"sync/atomic"
)

// chunk is a fixed-size block of slots in the queue's chain.
//
// prev is written by the writer when the chunk is linked and cleared by the
// reader when the chunk becomes the head, so a retired chain is not kept
// alive through back-links.
type chunk[T any] struct {
	values []T
	prev   *chunk[T]
	next   *chunk[T]
}

// Option configures a Chunked queue.
type Option[T any] func(*Chunked[T])

// WithAllocator sets the source of chunk storage used when the queue grows.
//
// fn receives the chunk size and must return a slice of exactly that
// length. An error from fn is returned by Push wrapped in ErrAllocation.
// Storage needed before the first Push returns (the initial chunk, and the
// second one when chunkSize is 1) is always allocated with make, so setting
// up the terminator slot never fails.
func WithAllocator[T any](fn func(n int) ([]T, error)) Option[T] {
	return func(q *Chunked[T]) {
		q.alloc = fn
	}
}

// Chunked is a FIFO queue backed by a linked chain of fixed-size chunks.
//
// Push, Unpush and Back are writer-side operations; Pop and Front are
// reader-side. The two sides may run on different goroutines provided some
// external protocol (such as pipe.Pipe) orders the reader behind the writer:
// the queue itself performs no synchronization except for the hand-off of
// a released chunk through the spare slot.
//
// The address of an element is stable from the Push that creates its slot
// until the Pop that removes it, so callers may keep *T cursors into the
// queue.
type Chunked[T any] struct {
	n int

	// Reader side: first element.
	begin    *chunk[T]
	beginPos int

	// Writer side: back is the last pushed slot, end is one past it.
	back    *chunk[T]
	backPos int
	end     *chunk[T]
	endPos  int

	// Most recently released chunk, kept for reuse. Released by either side,
	// taken by the writer.
	spare atomic.Pointer[chunk[T]]

	alloc  func(n int) ([]T, error)
	allocs atomic.Uint64
	chunks atomic.Int64
}

// NewChunked creates an empty queue whose chunks hold chunkSize elements.
//
// Panics if chunkSize < 1.
func NewChunked[T any](chunkSize int, opts ...Option[T]) *Chunked[T] {
	if chunkSize < 1 {
		panic("queue: chunk size must be > 0")
	}

	q := &Chunked[T]{n: chunkSize}
	for _, opt := range opts {
		opt(q)
	}

	q.begin = &chunk[T]{values: make([]T, chunkSize)}
	q.end = q.begin
	q.chunks.Store(1)
	return q
}

// Front returns the address of the oldest element.
//
// Reader side. The result is meaningful only while the queue is non-empty.
func (q *Chunked[T]) Front() *T {
	return &q.begin.values[q.beginPos]
}

// Back returns the address of the most recently pushed slot.
//
// Writer side. Valid after the first Push.
func (q *Chunked[T]) Back() *T {
	return &q.back.values[q.backPos]
}

// Push appends a slot at the back of the queue.
//
// The new slot holds whatever value was last stored there (the zero value
// for fresh storage); callers write through Back. When the current chunk is
// exhausted a new one is linked in, taken from the spare slot if possible.
// On allocation failure the queue is left unchanged.
func (q *Chunked[T]) Push() error {
	if q.endPos+1 == q.n {
		c, err := q.grow(q.back == nil)
		if err != nil {
			return err
		}
		q.back, q.backPos = q.end, q.endPos
		c.prev = q.end
		q.end.next = c
		q.end, q.endPos = c, 0
		return nil
	}

	q.back, q.backPos = q.end, q.endPos
	q.endPos++
	return nil
}

// grow returns a chunk to link after end. initial is set for the first
// Push, which uses make and is not counted by Allocs.
func (q *Chunked[T]) grow(initial bool) (*chunk[T], error) {
	if initial {
		q.chunks.Add(1)
		return &chunk[T]{values: make([]T, q.n)}, nil
	}
	if c := q.spare.Swap(nil); c != nil {
		q.chunks.Add(1)
		return c, nil
	}

	var values []T
	if q.alloc == nil {
		values = make([]T, q.n)
	} else {
		var err error
		values, err = q.alloc(q.n)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		if len(values) != q.n {
			return nil, fmt.Errorf("%w: allocator returned %d slots, want %d", ErrAllocation, len(values), q.n)
		}
	}

	q.allocs.Add(1)
	q.chunks.Add(1)
	return &chunk[T]{values: values}, nil
}

// Unpush removes the most recently pushed slot, moving Back one slot
// towards the front.
//
// Writer side. The caller must ensure the slot being removed is not
// visible to the reader and that Back is not the front element.
// The value in the new Back slot is left in place for the caller to read.
func (q *Chunked[T]) Unpush() {
	if q.backPos > 0 {
		q.backPos--
	} else {
		q.back = q.back.prev
		q.backPos = q.n - 1
	}

	if q.endPos > 0 {
		q.endPos--
		return
	}

	// end was the first slot of a chunk that now holds nothing.
	dead := q.end
	q.end = dead.prev
	q.endPos = q.n - 1
	q.end.next = nil
	q.release(dead)
}

// Pop removes the front element and clears its slot.
//
// Reader side. The caller must ensure the queue is non-empty. A chunk is
// released once its last slot has been popped.
func (q *Chunked[T]) Pop() {
	var zero T
	q.begin.values[q.beginPos] = zero
	q.beginPos++
	if q.beginPos != q.n {
		return
	}

	dead := q.begin
	q.begin = dead.next
	q.begin.prev = nil
	q.beginPos = 0
	q.release(dead)
}

func (q *Chunked[T]) release(c *chunk[T]) {
	c.prev = nil
	c.next = nil
	q.chunks.Add(-1)
	// Only one spare is retained; any previous one is left to the GC.
	q.spare.Store(c)
}

// ChunkSize returns the number of slots per chunk.
func (q *Chunked[T]) ChunkSize() int {
	return q.n
}

// Chunks returns the number of chunks currently linked into the queue.
func (q *Chunked[T]) Chunks() int {
	return int(q.chunks.Load())
}

// Allocs returns how many chunks were obtained from the allocator after
// the first Push. Chunks reused from the spare slot are not counted.
func (q *Chunked[T]) Allocs() uint64 {
	return q.allocs.Load()
}
