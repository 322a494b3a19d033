package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParallelConfig(t *testing.T) {
	config := DefaultParallelConfig()

	assert.Positive(t, config.MaxWorkers, "MaxWorkers should be > 0")
	assert.Nil(t, config.ProgressCallback, "ProgressCallback should default to nil")
}

func TestRunOrdered_PreservesOrder(t *testing.T) {
	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}
	square := func(_ context.Context, n int) int {
		// Later inputs finish first.
		time.Sleep(time.Duration(50-n) * 10 * time.Microsecond)
		return n * n
	}

	for _, workers := range []int{0, 1, 3, 8, 100} {
		out, err := runOrdered(context.Background(), inputs, ParallelConfig{MaxWorkers: workers}, square)
		require.NoError(t, err)
		require.Len(t, out, len(inputs))
		for i, v := range out {
			assert.Equal(t, i*i, v, "workers=%d index=%d", workers, i)
		}
	}
}

func TestRunOrdered_EmptyInput(t *testing.T) {
	out, err := runOrdered(context.Background(), nil, DefaultParallelConfig(), func(_ context.Context, s string) string { return s })
	require.NoError(t, err)
	assert.Empty(t, out)
}

type recordingProgress struct {
	mu       sync.Mutex
	started  int
	progress []int
	done     bool
}

func (r *recordingProgress) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = total
}

func (r *recordingProgress) OnProgress(current, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, current)
}

func (r *recordingProgress) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
}

func (r *recordingProgress) OnError(int, error) {}

func TestRunOrdered_Progress(t *testing.T) {
	for _, workers := range []int{1, 4} {
		rec := &recordingProgress{}
		_, err := runOrdered(context.Background(), []string{"a", "b", "c", "d", "e"},
			ParallelConfig{MaxWorkers: workers, ProgressCallback: rec},
			func(_ context.Context, s string) string { return s })
		require.NoError(t, err)

		assert.Equal(t, 5, rec.started)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.progress, "progress is reported monotonically by the collector")
		assert.True(t, rec.done)
	}
}

func TestRunOrdered_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inputs := make([]int, 20)

	var calls int
	var mu sync.Mutex
	out, err := runOrdered(ctx, inputs, ParallelConfig{MaxWorkers: 2}, func(_ context.Context, n int) int {
		mu.Lock()
		calls++
		if calls == 3 {
			cancel()
		}
		mu.Unlock()
		return n
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, len(inputs))
}

func TestRunOrdered_SequentialCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := runOrdered(ctx, []int{1, 2, 3}, ParallelConfig{MaxWorkers: 1}, func(_ context.Context, n int) int {
		calls++
		cancel()
		return n
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCalculateParallelStats(t *testing.T) {
	stats := CalculateParallelStats(10, 2, 4*time.Second, 4)

	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 8, stats.Processed)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 4, stats.WorkerCount)
	assert.Equal(t, 500*time.Millisecond, stats.AveragePerItem)
	assert.InDelta(t, 2.0, stats.ThroughputPerSec, 1e-9)

	empty := CalculateParallelStats(0, 0, 0, 1)
	assert.Zero(t, empty.AveragePerItem)
	assert.Zero(t, empty.ThroughputPerSec)
}
