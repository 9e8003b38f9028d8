package queue_test

import (
	"testing"

	"github.com/randomizedcoder/ypipe/internal/queue"
)

// Sink variables to prevent compiler from eliminating benchmark loops
var sinkInt int

func benchmarkChunkedPushPop(b *testing.B, n int) {
	q := queue.NewChunked[int](n)
	if err := q.Push(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	var val int
	for i := 0; i < b.N; i++ {
		*q.Back() = i
		_ = q.Push()
		val = *q.Front()
		q.Pop()
	}
	sinkInt = val
}

func BenchmarkChunked_PushPop_Chunk16(b *testing.B)   { benchmarkChunkedPushPop(b, 16) }
func BenchmarkChunked_PushPop_Chunk256(b *testing.B)  { benchmarkChunkedPushPop(b, 256) }
func BenchmarkChunked_PushPop_Chunk4096(b *testing.B) { benchmarkChunkedPushPop(b, 4096) }

// Push-only: the queue grows for the whole run.

func BenchmarkChunked_Push(b *testing.B) {
	q := queue.NewChunked[int](256)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = q.Push()
		*q.Back() = i
	}
	sinkInt = *q.Back()
}

// Burst: fill several chunks, then drain them.

func BenchmarkChunked_Burst1024(b *testing.B) {
	q := queue.NewChunked[int](256)
	if err := q.Push(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	var val int
	for i := 0; i < b.N; i++ {
		for j := 0; j < 1024; j++ {
			*q.Back() = j
			_ = q.Push()
		}
		for j := 0; j < 1024; j++ {
			val = *q.Front()
			q.Pop()
		}
	}
	sinkInt = val
}
