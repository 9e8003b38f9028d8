// Package queue provides the chunked FIFO that backs pipe.Pipe.
//
// Chunked grows and shrinks one fixed-size chunk at a time, so Push and Pop
// are O(1) amortized and allocate only at chunk boundaries. Element
// addresses do not move while the element is in the queue.
//
// # Threading (IMPORTANT)
//
// Chunked is split into a writer side (Push, Unpush, Back) and a reader side
// (Pop, Front). It does not synchronize the two sides itself:
//   - Exactly ONE goroutine calls the writer-side methods
//   - Exactly ONE goroutine calls the reader-side methods
//   - The reader must only Pop elements the writer has published to it
//     through some happens-before edge (pipe.Pipe uses an atomicslot.Slot)
package queue

import "errors"

// ErrAllocation is returned by Push when chunk storage cannot be obtained.
var ErrAllocation = errors.New("queue: chunk allocation failed")
