// Package mailbox parks and wakes the reader of a pipe.Pipe.
//
// The pipe only reports when the reader went idle and when a flush needs
// to wake it. A Mailbox pairs one pipe with one wake channel and turns
// those reports into blocking receives, so a worker goroutine can sleep
// instead of spinning while its producer is quiet.
//
// Send, Put, SendPart, Unsend, Flush and Close belong to the single producer
// goroutine; TryRecv, Recv and Run belong to the single consumer goroutine.
package mailbox

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/randomizedcoder/ypipe/internal/pipe"
	"github.com/randomizedcoder/ypipe/internal/queue"
)

// ErrClosed is returned by Recv once the mailbox is closed and empty, and
// by Send after Close.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox is a blocking single-producer single-consumer channel built on a
// lock-free pipe.
type Mailbox[T any] struct {
	pipe *pipe.Pipe[T]

	// Holds at most one pending wakeup. A token may be stale; the consumer
	// always re-checks the pipe after waking.
	wake chan struct{}

	closed  atomic.Bool
	wakeups atomic.Uint64
}

// New creates an empty Mailbox backed by a pipe with the given chunk size.
// opts configure the pipe's queue.
func New[T any](chunkSize int, opts ...queue.Option[T]) *Mailbox[T] {
	return &Mailbox[T]{
		pipe: pipe.New(chunkSize, opts...),
		wake: make(chan struct{}, 1),
	}
}

// Send writes v as a complete item and publishes it, waking the consumer
// if it is parked.
func (m *Mailbox[T]) Send(v T) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if err := m.pipe.Write(v, false); err != nil {
		return err
	}
	m.Flush()
	return nil
}

// Put writes v as a complete item without publishing it. A later Send,
// Flush or Close publishes it, so a producer can batch several items per
// wakeup.
func (m *Mailbox[T]) Put(v T) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.pipe.Write(v, false)
}

// SendPart stages v as a leading part of a multi-part item. The consumer
// sees nothing until a later Send completes the item.
func (m *Mailbox[T]) SendPart(v T) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.pipe.Write(v, true)
}

// Unsend retracts the most recent staged part.
func (m *Mailbox[T]) Unsend() (T, bool) {
	return m.pipe.Unwrite()
}

// Flush publishes completed items and wakes the consumer if the pipe
// reports it idle.
func (m *Mailbox[T]) Flush() {
	if !m.pipe.Flush() {
		m.wakeups.Add(1)
		m.signal()
	}
}

func (m *Mailbox[T]) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
		// A wakeup is already pending.
	}
}

// Close publishes anything complete, marks the mailbox closed and wakes
// the consumer. Staged parts that were never completed are left for Drain.
func (m *Mailbox[T]) Close() {
	m.Flush()
	if m.closed.CompareAndSwap(false, true) {
		m.signal()
	}
}

// TryRecv returns the next item without blocking.
func (m *Mailbox[T]) TryRecv() (T, bool) {
	return m.pipe.Read()
}

// Recv returns the next item, parking until one is published.
//
// It returns ctx.Err() if ctx is done while parked, and ErrClosed once the
// mailbox is closed and every published item has been received.
func (m *Mailbox[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		if v, ok := m.pipe.Read(); ok {
			return v, nil
		}

		// The reader is now marked idle; the producer's next publishing
		// Flush will signal.
		if m.closed.Load() {
			// Close flushes before setting the flag, so one more read
			// observes everything sent before Close.
			if v, ok := m.pipe.Read(); ok {
				return v, nil
			}
			return zero, ErrClosed
		}

		select {
		case <-m.wake:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Run calls fn for every item until the mailbox is closed and empty or ctx
// is done. It returns nil after a clean close.
func (m *Mailbox[T]) Run(ctx context.Context, fn func(T)) error {
	for {
		v, err := m.Recv(ctx)
		if errors.Is(err, ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(v)
	}
}

// Drain tears down the underlying pipe, passing leftover items (including
// uncompleted parts) to fn. Call it only after both producer and consumer
// have stopped.
func (m *Mailbox[T]) Drain(fn func(T)) int {
	return m.pipe.Drain(fn)
}

// Wakeups returns how many times the producer had to wake the consumer.
func (m *Mailbox[T]) Wakeups() uint64 {
	return m.wakeups.Load()
}

// Stats returns the underlying pipe's counters.
func (m *Mailbox[T]) Stats() pipe.Stats {
	return m.pipe.Stats()
}
