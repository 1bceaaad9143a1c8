// Package parallel runs per-feature geometry work across a bounded worker
// pool while preserving input order in the results.
package parallel

import (
	"sync"

	"go.uber.org/zap"
)

type job[T any] struct {
	Input T
	Index int
}

type result[R any] struct {
	Output R
	Index  int
}

// ProcessBatch applies fn to every input on workers goroutines and returns
// the outputs in input order: out[i] == fn(inputs[i]). A panicking fn
// yields the zero value for that slot and an error log, never a crashed
// batch. workers < 1 falls back to 1.
func ProcessBatch[T, R any](inputs []T, workers int, log *zap.Logger, fn func(T) R) []R {
	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	out := make([]R, len(inputs))
	if len(inputs) == 0 {
		return out
	}

	jobs := make(chan job[T], len(inputs))
	results := make(chan result[R], len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- runOne(j, log, fn)
			}
		}()
	}

	for i, in := range inputs {
		jobs <- job[T]{Input: in, Index: i}
	}
	close(jobs)
	wg.Wait()
	close(results)

	for r := range results {
		out[r.Index] = r.Output
	}
	return out
}

func runOne[T, R any](j job[T], log *zap.Logger, fn func(T) R) (res result[R]) {
	res.Index = j.Index
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker panicked, zeroing result",
				zap.Int("index", j.Index), zap.Any("error", r))
		}
	}()
	res.Output = fn(j.Input)
	return res
}
