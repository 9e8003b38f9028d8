// Package pipe provides a lock-free single-writer single-reader pipe.
//
// A Pipe is a chunked queue plus one atomic pointer. The writer appends
// items and periodically publishes a watermark ("everything before this
// slot is readable") through the atomic pointer; the reader consumes up to
// the last watermark it has seen. The atomic pointer is the only memory
// both goroutines touch concurrently.
//
// # Idle handshake
//
// The pipe never blocks. Instead it tells each side when the surrounding
// code has to park or wake the reader:
//   - CheckRead (and Read) returning false means the reader found nothing
//     and has atomically declared itself idle. It may now park.
//   - Flush returning false means it published data to an idle reader.
//     The caller MUST wake the reader before expecting further progress.
//
// Exactly one Flush returns false per idle transition. See
// internal/mailbox for a wrapper that implements the parking.
//
// # SPSC contract (IMPORTANT)
//
// Write, Unwrite and Flush are writer-side; CheckRead, Read and Probe are
// reader-side.
//   - Exactly ONE goroutine calls the writer-side methods
//   - Exactly ONE goroutine calls the reader-side methods
//   - These may be the same goroutine or different goroutines
//
// The implementation includes runtime guards that panic with an error
// wrapping ErrContractViolation when two goroutines run the same side at
// once, when Probe is called on an empty pipe, or when a drained pipe is
// used again.
package pipe
