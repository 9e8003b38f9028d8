package combined_test

import (
	"sync"
	"sync/atomic"
	"testing"

	ring "github.com/randomizedcoder/go-lock-free-ring"

	"github.com/randomizedcoder/ypipe/internal/pipe"
)

// ============================================================================
// Comparison Benchmarks: Channel vs Pipe vs go-lock-free-ring (MPSC)
// ============================================================================
//
// KEY DIFFERENCE:
// - pipe.Pipe: SPSC, unbounded (grows in chunks), never reports "full"
// - go-lock-free-ring: MPSC with sharding, bounded, Write fails when full
//
// For N producers the pipe needs N pipes and a consumer that polls them.

var sinkOkLfr bool

// ============================================================================
// SPSC: 1 Producer → 1 Consumer
// ============================================================================

// BenchmarkLFR_SPSC_Pipe - the pipe, flushing every write
func BenchmarkLFR_SPSC_Pipe(b *testing.B) {
	p := pipe.New[int](1024)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			default:
				p.Read()
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Write(i, false)
		p.Flush()
	}
	b.StopTimer()
	close(done)
}

// BenchmarkLFR_SPSC_ShardedRing1 - go-lock-free-ring with 1 shard (SPSC-like)
func BenchmarkLFR_SPSC_ShardedRing1(b *testing.B) {
	r, err := ring.NewShardedRing(1024, 1)
	if err != nil {
		b.Fatal(err)
	}
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			default:
				r.TryRead()
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for !r.Write(0, i) {
		}
	}
	b.StopTimer()
	close(done)
}

// ============================================================================
// MPSC: N Producers → 1 Consumer
// ============================================================================

// fanIn benchmarks 4 producers each owning one pipe, drained round-robin
// by a single consumer.
func BenchmarkLFR_MPSC_PipeFanIn_4P(b *testing.B) {
	const producers = 4
	pipes := make([]*pipe.Pipe[int], producers)
	for i := range pipes {
		pipes[i] = pipe.New[int](1024)
	}
	done := make(chan struct{})
	consumerDone := make(chan struct{})

	go func() {
		defer close(consumerDone)
		for {
			select {
			case <-done:
				return
			default:
				for _, p := range pipes {
					_, sinkOkLfr = p.Read()
				}
			}
		}
	}()

	b.ResetTimer()
	var wg sync.WaitGroup
	for _, p := range pipes {
		wg.Add(1)
		go func(p *pipe.Pipe[int]) {
			defer wg.Done()
			for i := 0; i < b.N/producers; i++ {
				_ = p.Write(i, false)
				p.Flush()
			}
		}(p)
	}
	wg.Wait()

	b.StopTimer()
	close(done)
	<-consumerDone
}

// BenchmarkLFR_MPSC_ShardedRing_4P_4S - 4 producers, 4 shards
func BenchmarkLFR_MPSC_ShardedRing_4P_4S(b *testing.B) {
	const producers = 4
	r, err := ring.NewShardedRing(1024, 4)
	if err != nil {
		b.Fatal(err)
	}
	done := make(chan struct{})
	consumerDone := make(chan struct{})

	go func() {
		defer close(consumerDone)
		for {
			select {
			case <-done:
				return
			default:
				r.TryRead()
			}
		}
	}()

	var producerID atomic.Uint64
	b.ResetTimer()
	var wg sync.WaitGroup
	for n := 0; n < producers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pid := producerID.Add(1) - 1
			for i := 0; i < b.N/producers; i++ {
				for !r.Write(pid, i) {
				}
			}
		}()
	}
	wg.Wait()

	b.StopTimer()
	close(done)
	<-consumerDone
}
