// Package combined provides interaction benchmarks that run the pipe and
// mailbox across goroutines against other hand-off mechanisms.
//
// These benchmarks are more representative of real-world performance
// than the per-package micro-benchmarks, as they include cache-line
// traffic between producer and consumer and the cost of parking.
package combined
