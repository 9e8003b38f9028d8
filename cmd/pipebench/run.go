package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ring "github.com/randomizedcoder/go-lock-free-ring"
	"github.com/valyala/fastrand"

	"github.com/randomizedcoder/ypipe/internal/mailbox"
	"github.com/randomizedcoder/ypipe/internal/pipe"
)

type config struct {
	iterations int
	chunk      int
	batch      int
	parts      int
}

func (c config) validate() error {
	switch {
	case c.iterations < 1:
		return errors.New("-n must be > 0")
	case c.chunk < 1:
		return errors.New("-chunk must be > 0")
	case c.batch < 1:
		return errors.New("-batch must be > 0")
	case c.parts < 0:
		return errors.New("-parts must be >= 0")
	}
	return nil
}

type exportedConfig struct {
	Iterations int `json:"iterations"`
	Chunk      int `json:"chunk"`
	Batch      int `json:"batch"`
	Parts      int `json:"parts"`
}

func (c config) export() exportedConfig {
	return exportedConfig{Iterations: c.iterations, Chunk: c.chunk, Batch: c.batch, Parts: c.parts}
}

type result struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
	NsPerOp  float64       `json:"ns_per_op"`
	MOpsSec  float64       `json:"mops_per_sec"`
	Wakeups  uint64        `json:"wakeups,omitempty"`
	Allocs   uint64        `json:"chunk_allocs,omitempty"`
}

type report struct {
	Config  exportedConfig `json:"config"`
	Results []result       `json:"results"`
}

func newResult(name string, d time.Duration, n int) result {
	perOp := float64(d.Nanoseconds()) / float64(n)
	return result{
		Name:     name,
		Duration: d,
		NsPerOp:  perOp,
		MOpsSec:  1000 / perOp,
	}
}

func runAll(cfg config) ([]result, error) {
	var results []result
	for _, run := range []func(config) (result, error){
		runChannel,
		runPipeSpin,
		runMailbox,
		runShardedRing,
	} {
		r, err := run(cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// runChannel: buffered channel, blocking send and receive.
func runChannel(cfg config) (result, error) {
	ch := make(chan int, cfg.chunk)
	done := make(chan int)

	go func() {
		got := 0
		for range ch {
			got++
		}
		done <- got
	}()

	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		ch <- i
	}
	close(ch)
	got := <-done
	d := time.Since(start)

	if got != cfg.iterations {
		return result{}, fmt.Errorf("channel: received %d of %d items", got, cfg.iterations)
	}
	return newResult("Channel", d, cfg.iterations), nil
}

// runPipeSpin: bare pipe, consumer busy-polls.
func runPipeSpin(cfg config) (result, error) {
	p := pipe.New[int](cfg.chunk)
	done := make(chan error, 1)

	go func() {
		expected := 0
		for expected < cfg.iterations {
			v, ok := p.Read()
			if !ok {
				continue
			}
			if v != expected {
				done <- fmt.Errorf("pipe: FIFO violation: expected %d, got %d", expected, v)
				return
			}
			expected++
		}
		done <- nil
	}()

	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		if err := p.Write(i, false); err != nil {
			return result{}, err
		}
		if (i+1)%cfg.batch == 0 {
			p.Flush()
		}
	}
	p.Flush()
	if err := <-done; err != nil {
		return result{}, err
	}
	d := time.Since(start)

	r := newResult("Pipe (spin)", d, cfg.iterations)
	r.Wakeups = p.Stats().Wakeups
	r.Allocs = p.Allocs()
	return r, nil
}

// runMailbox: pipe with park/wake. Each message is preceded by a random
// number of leading parts, so the consumer sees multi-part items appear
// atomically.
func runMailbox(cfg config) (result, error) {
	m := mailbox.New[int](cfg.chunk)
	done := make(chan error, 1)

	go func() {
		expected := 0
		err := m.Run(context.Background(), func(v int) {
			if v == expected {
				expected++
			}
		})
		if err == nil && expected != cfg.iterations {
			err = fmt.Errorf("mailbox: received %d of %d items in order", expected, cfg.iterations)
		}
		done <- err
	}()

	start := time.Now()
	messages := 0
	for i := 0; i < cfg.iterations; i++ {
		extra := 0
		if cfg.parts > 0 {
			extra = int(fastrand.Uint32n(uint32(cfg.parts) + 1))
		}
		for k := 0; k < extra && i < cfg.iterations-1; k++ {
			if err := m.SendPart(i); err != nil {
				return result{}, err
			}
			i++
		}
		if err := m.Put(i); err != nil {
			return result{}, err
		}
		messages++
		if messages%cfg.batch == 0 {
			m.Flush()
		}
	}
	m.Close()
	if err := <-done; err != nil {
		return result{}, err
	}
	d := time.Since(start)

	r := newResult("Mailbox (park)", d, cfg.iterations)
	r.Wakeups = m.Wakeups()
	return r, nil
}

// ringCapacity is fixed: the ring is bounded and -chunk sizes the
// unbounded structures only.
const ringCapacity = 1024

// runShardedRing: go-lock-free-ring with one shard, consumer busy-polls.
// The ring is bounded, so the producer spins when it is full.
func runShardedRing(cfg config) (result, error) {
	r, err := ring.NewShardedRing(ringCapacity, 1)
	if err != nil {
		return result{}, fmt.Errorf("sharded ring: %w", err)
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		got := 0
		for got < cfg.iterations {
			if _, ok := r.TryRead(); ok {
				got++
			}
		}
	}()

	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		for !r.Write(0, i) {
		}
	}
	<-done
	d := time.Since(start)

	return newResult("ShardedRing (1 shard)", d, cfg.iterations), nil
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiGreen = "\x1b[32m"
)

func printTable(w io.Writer, cfg config, results []result, color bool) {
	fmt.Fprintf(w, "Benchmarking SPSC hand-off (%d items, chunk=%d, batch=%d, parts=0..%d)\n",
		cfg.iterations, cfg.chunk, cfg.batch, cfg.parts)
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")

	best := 0
	for i, r := range results {
		if r.NsPerOp < results[best].NsPerOp {
			best = i
		}
	}

	fmt.Fprintf(w, "\nResults (producer to consumer, per item):\n")
	for i, r := range results {
		line := fmt.Sprintf("  %-22s %12v (%6.2f ns/op, %7.2f M ops/sec)", r.Name, r.Duration, r.NsPerOp, r.MOpsSec)
		if r.Wakeups > 0 {
			line += fmt.Sprintf("  wakeups=%d", r.Wakeups)
		}
		if r.Allocs > 0 {
			line += fmt.Sprintf("  chunk allocs=%d", r.Allocs)
		}
		if color && i == best {
			line = ansiBold + ansiGreen + line + ansiReset
		}
		fmt.Fprintln(w, line)
	}

	base := results[0]
	fmt.Fprintf(w, "\nSpeedup vs %s:\n", base.Name)
	for _, r := range results[1:] {
		fmt.Fprintf(w, "  %-22s %.2fx\n", r.Name, base.NsPerOp/r.NsPerOp)
	}
}
