package parallel

import (
	"testing"

	"go.uber.org/zap"
)

func TestProcessBatchPreservesOrder(t *testing.T) {
	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}
	out := ProcessBatch(inputs, 8, zap.NewNop(), func(n int) int { return n * n })
	for i, v := range out {
		if v != i*i {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	out := ProcessBatch(nil, 4, zap.NewNop(), func(n int) int { return n })
	if len(out) != 0 {
		t.Errorf("len = %d", len(out))
	}
}

func TestProcessBatchPanicYieldsZero(t *testing.T) {
	out := ProcessBatch([]int{1, 2, 3}, 2, zap.NewNop(), func(n int) *int {
		if n == 2 {
			panic("boom")
		}
		return &n
	})
	if out[0] == nil || out[2] == nil {
		t.Error("healthy items should survive a neighboring panic")
	}
	if out[1] != nil {
		t.Error("panicked item should yield the zero value")
	}
}

func TestProcessBatchSingleWorker(t *testing.T) {
	out := ProcessBatch([]int{5, 6}, 0, zap.NewNop(), func(n int) int { return n + 1 })
	if out[0] != 6 || out[1] != 7 {
		t.Errorf("out = %v", out)
	}
}
