// Command pipebench measures producer/consumer throughput of the pipe
// against a buffered channel and a sharded lock-free ring.
//
// Usage:
//
//	go run ./cmd/pipebench -n 10000000 -chunk 256 -batch 64 -parts 3
//	go run ./cmd/pipebench -json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sugawarayuuta/sonnet"

	"github.com/randomizedcoder/ypipe/internal/pipe"
)

func main() {
	iterations := flag.Int("n", 10_000_000, "number of items to transfer")
	chunk := flag.Int("chunk", pipe.DefaultChunkSize, "pipe chunk size (also channel and ring capacity)")
	batch := flag.Int("batch", 1, "flush every N messages")
	parts := flag.Int("parts", 0, "max extra leading parts per message (random 0..N)")
	jsonOut := flag.Bool("json", false, "print results as JSON")
	colorMode := flag.String("color", "auto", "colorize output: auto, always, never")
	flag.Parse()

	cfg := config{
		iterations: *iterations,
		chunk:      *chunk,
		batch:      *batch,
		parts:      *parts,
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pipebench: %v\n", err)
		os.Exit(2)
	}

	results, err := runAll(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipebench: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		b, err := sonnet.Marshal(report{Config: cfg.export(), Results: results})
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipebench: encoding results: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
		return
	}

	var color bool
	switch *colorMode {
	case "always":
		color = true
	case "never":
		color = false
	case "auto":
		color = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	default:
		fmt.Fprintf(os.Stderr, "pipebench: invalid -color %q (want auto, always or never)\n", *colorMode)
		os.Exit(2)
	}

	var out io.Writer = os.Stdout
	if color {
		out = colorable.NewColorableStdout()
	}
	printTable(out, cfg, results, color)
}
