package pipe

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/randomizedcoder/ypipe/internal/atomicslot"
	"github.com/randomizedcoder/ypipe/internal/queue"
)

// DefaultChunkSize is the number of items per queue chunk used by callers
// that have no better estimate of their burst size.
const DefaultChunkSize = 256

// ErrContractViolation is wrapped by the error values the pipe panics with
// when the single-writer single-reader contract is broken.
var ErrContractViolation = errors.New("pipe: contract violation")

// Pipe is a lock-free SPSC channel of T items.
//
// WARNING: Pipe is NOT safe for multiple writers or multiple readers.
type Pipe[T any] struct {
	// Front of the queue is the first prefetched item (reader side); back
	// is the terminator slot (writer side).
	queue *queue.Chunked[T]

	// Writer side.
	w *T // first unflushed item
	f *T // first item to be flushed in the future

	// Cache line padding to prevent false sharing
	_pad0 [40]byte //nolint:unused

	// Reader side.
	r *T // first unprefetched item

	_pad1 [56]byte //nolint:unused

	// Points past the last flushed item. nil means the reader is idle.
	c atomicslot.Slot[T]

	_pad2 [56]byte //nolint:unused

	// SPSC guards: detect concurrent misuse
	writing atomic.Uint32
	reading atomic.Uint32
	drained atomic.Bool

	stats counters
}

type counters struct {
	writes  atomic.Uint64
	flushes atomic.Uint64
	wakeups atomic.Uint64
	reads   atomic.Uint64
	idles   atomic.Uint64
}

// Stats is a snapshot of a Pipe's activity counters.
type Stats struct {
	Writes  uint64 // successful Write calls, complete or not
	Flushes uint64 // Flush calls that published new items
	Wakeups uint64 // Flush calls that returned false
	Reads   uint64 // items returned by Read
	Idles   uint64 // times the reader declared itself idle
}

// New creates an empty Pipe whose queue grows chunkSize items at a time.
//
// Larger chunks mean fewer allocations and a larger minimum footprint.
// Panics if chunkSize < 1.
func New[T any](chunkSize int, opts ...queue.Option[T]) *Pipe[T] {
	p := &Pipe[T]{queue: queue.NewChunked(chunkSize, opts...)}

	// The terminator slot. Its storage never comes from the allocator, so
	// this cannot fail.
	if err := p.queue.Push(); err != nil {
		panic(err)
	}

	// Everything starts out pointing at the terminator.
	back := p.queue.Back()
	p.r, p.w, p.f = back, back, back
	p.c.Set(back)
	return p
}

// Write appends v to the pipe without publishing it.
//
// If incomplete is true, v is treated as the first part of a multi-part
// item continued by later writes: it stays invisible to Flush until a
// complete write follows it.
//
// An error wrapping queue.ErrAllocation is returned if the queue cannot
// grow; v is not written in that case.
//
// Writer side.
func (p *Pipe[T]) Write(v T, incomplete bool) error {
	p.enterWriter("Write")
	defer p.writing.Store(0)

	back := p.queue.Back()
	*back = v
	if err := p.queue.Push(); err != nil {
		var zero T
		*back = zero
		return fmt.Errorf("pipe: write: %w", err)
	}

	if !incomplete {
		p.f = p.queue.Back()
	}
	p.stats.writes.Add(1)
	return nil
}

// Unwrite retracts the most recent write that has not been completed.
//
// It returns false if every written item is complete (nothing is staged
// behind the flush watermark).
//
// Writer side.
func (p *Pipe[T]) Unwrite() (T, bool) {
	p.enterWriter("Unwrite")
	defer p.writing.Store(0)

	var zero T
	if p.f == p.queue.Back() {
		return zero, false
	}

	p.queue.Unpush()
	back := p.queue.Back()
	v := *back
	*back = zero
	return v, true
}

// Flush publishes all completed writes to the reader.
//
// It returns false if the reader had declared itself idle. In that case
// the caller is obliged to wake the reader up before using the pipe again.
//
// Writer side.
func (p *Pipe[T]) Flush() bool {
	p.enterWriter("Flush")
	defer p.writing.Store(0)

	// Nothing new since the last flush.
	if p.w == p.f {
		return true
	}
	p.stats.flushes.Add(1)

	if p.c.CAS(p.w, p.f) != p.w {
		// c is nil: the reader is idle and will not touch c until woken,
		// so a plain store is enough.
		p.c.Set(p.f)
		p.w = p.f
		p.stats.wakeups.Add(1)
		return false
	}

	// Reader is awake and will see the new watermark on its next check.
	p.w = p.f
	return true
}

// CheckRead reports whether an item is available for reading.
//
// When it returns false the reader has been marked idle: the next Flush
// that publishes data will return false so the writer knows to wake it.
//
// Reader side.
func (p *Pipe[T]) CheckRead() bool {
	p.enterReader("CheckRead")
	defer p.reading.Store(0)

	return p.checkRead()
}

func (p *Pipe[T]) checkRead() bool {
	front := p.queue.Front()

	// Items prefetched by an earlier call are still unread.
	if front != p.r && p.r != nil {
		return true
	}

	// Prefetch: take the watermark from c, or mark the reader idle if
	// nothing has been published since we last caught up.
	p.r = p.c.CAS(front, nil)

	if p.r == front {
		p.stats.idles.Add(1)
		return false
	}
	// nil: already idle and nothing has been flushed since.
	return p.r != nil
}

// Read removes the next item from the pipe.
//
// It returns false if no item is available, with the same idle side
// effect as CheckRead.
//
// Reader side.
func (p *Pipe[T]) Read() (T, bool) {
	p.enterReader("Read")
	defer p.reading.Store(0)

	if !p.checkRead() {
		var zero T
		return zero, false
	}

	front := p.queue.Front()
	v := *front
	p.queue.Pop()
	p.stats.reads.Add(1)
	return v, true
}

// Probe applies fn to the next item without removing it and returns fn's
// result.
//
// The pipe must not be empty: call Probe only after CheckRead has returned
// true. Probe panics otherwise.
//
// Reader side.
func (p *Pipe[T]) Probe(fn func(v *T) bool) bool {
	p.enterReader("Probe")
	defer p.reading.Store(0)

	if !p.checkRead() {
		panic(violation("Probe", "pipe is empty"))
	}
	return fn(p.queue.Front())
}

// Drain tears the pipe down, passing every item still in it to fn (which
// may be nil) in FIFO order: published, unflushed and incomplete items
// alike. It returns the number of items drained.
//
// Drain must be called only after both the writer and the reader have
// stopped using the pipe, and after a happens-before edge with both (for
// example sync.WaitGroup.Wait). Every later call on the pipe panics.
func (p *Pipe[T]) Drain(fn func(v T)) int {
	if !p.writing.CompareAndSwap(0, 1) {
		panic(violation("Drain", "writer still active"))
	}
	defer p.writing.Store(0)
	if !p.reading.CompareAndSwap(0, 1) {
		panic(violation("Drain", "reader still active"))
	}
	defer p.reading.Store(0)
	if !p.drained.CompareAndSwap(false, true) {
		panic(violation("Drain", "pipe is drained"))
	}

	n := 0
	for p.queue.Front() != p.queue.Back() {
		v := *p.queue.Front()
		p.queue.Pop()
		if fn != nil {
			fn(v)
		}
		n++
	}

	p.r, p.w, p.f = nil, nil, nil
	p.c.Set(nil)
	return n
}

// Stats returns the pipe's counters. Safe to call from any goroutine.
func (p *Pipe[T]) Stats() Stats {
	return Stats{
		Writes:  p.stats.writes.Load(),
		Flushes: p.stats.flushes.Load(),
		Wakeups: p.stats.wakeups.Load(),
		Reads:   p.stats.reads.Load(),
		Idles:   p.stats.idles.Load(),
	}
}

// ChunkSize returns the number of items per queue chunk.
func (p *Pipe[T]) ChunkSize() int {
	return p.queue.ChunkSize()
}

// Chunks returns the number of chunks currently backing the pipe.
// The value is approximate while both sides are active.
func (p *Pipe[T]) Chunks() int {
	return p.queue.Chunks()
}

// Allocs returns how many chunks have been allocated since New.
func (p *Pipe[T]) Allocs() uint64 {
	return p.queue.Allocs()
}

func (p *Pipe[T]) enterWriter(op string) {
	if !p.writing.CompareAndSwap(0, 1) {
		panic(violation(op, "concurrent writer-side call - only one writer allowed"))
	}
	if p.drained.Load() {
		p.writing.Store(0)
		panic(violation(op, "pipe is drained"))
	}
}

func (p *Pipe[T]) enterReader(op string) {
	if !p.reading.CompareAndSwap(0, 1) {
		panic(violation(op, "concurrent reader-side call - only one reader allowed"))
	}
	if p.drained.Load() {
		p.reading.Store(0)
		panic(violation(op, "pipe is drained"))
	}
}

func violation(op, msg string) error {
	return fmt.Errorf("pipe: %s: %s: %w", op, msg, ErrContractViolation)
}
