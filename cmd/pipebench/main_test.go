package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := config{iterations: 10, chunk: 4, batch: 1, parts: 0}
	if err := valid.validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	testCases := []struct {
		name string
		cfg  config
	}{
		{"zero iterations", config{iterations: 0, chunk: 4, batch: 1}},
		{"zero chunk", config{iterations: 10, chunk: 0, batch: 1}},
		{"zero batch", config{iterations: 10, chunk: 4, batch: 0}},
		{"negative parts", config{iterations: 10, chunk: 4, batch: 1, parts: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunPipeSpin(t *testing.T) {
	r, err := runPipeSpin(config{iterations: 10000, chunk: 16, batch: 8})
	if err != nil {
		t.Fatalf("runPipeSpin() failed: %v", err)
	}
	if r.Allocs == 0 {
		t.Error("expected chunk allocations for 10000 items in 16-item chunks")
	}
}

func TestRunMailbox(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config
	}{
		{"single", config{iterations: 5000, chunk: 16, batch: 1}},
		{"batched", config{iterations: 5000, chunk: 16, batch: 32}},
		{"parts", config{iterations: 5000, chunk: 16, batch: 4, parts: 3}},
		{"one item", config{iterations: 1, chunk: 1, batch: 5, parts: 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runMailbox(tc.cfg); err != nil {
				t.Errorf("runMailbox() failed: %v", err)
			}
		})
	}
}

func TestRunChannel(t *testing.T) {
	if _, err := runChannel(config{iterations: 1000, chunk: 8, batch: 1}); err != nil {
		t.Errorf("runChannel() failed: %v", err)
	}
}

// More items than the ring holds, so the producer has to wait for the
// consumer. runShardedRing only returns once every item was read.
func TestRunShardedRing(t *testing.T) {
	if _, err := runShardedRing(config{iterations: 4 * ringCapacity, chunk: 8, batch: 1}); err != nil {
		t.Errorf("runShardedRing() failed: %v", err)
	}
}

func TestPrintTable(t *testing.T) {
	cfg := config{iterations: 100, chunk: 8, batch: 1}
	results := []result{
		newResult("Channel", 2000, 100),
		newResult("Pipe (spin)", 1000, 100),
	}
	results[1].Allocs = 3

	var buf bytes.Buffer
	printTable(&buf, cfg, results, false)
	out := buf.String()

	for _, want := range []string{"Channel", "Pipe (spin)", "chunk allocs=3", "2.00x"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, ansiReset) {
		t.Error("expected no escape codes with color disabled")
	}

	buf.Reset()
	printTable(&buf, cfg, results, true)
	if !strings.Contains(buf.String(), ansiGreen) {
		t.Error("expected fastest result highlighted with color enabled")
	}
}
