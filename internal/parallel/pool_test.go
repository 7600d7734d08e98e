package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoolSubmitRunsTask(t *testing.T) {
	pool := New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	ctx := context.Background()
	if err := pool.Submit(ctx, func() { defer wg.Done() }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	wg.Wait()

	pool.Shutdown()
	stats := pool.Stats()
	if stats.TasksSubmitted != 1 {
		t.Errorf("expected 1 submitted, got %d", stats.TasksSubmitted)
	}
	if stats.TasksCompleted != 1 {
		t.Errorf("expected 1 completed, got %d", stats.TasksCompleted)
	}
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	pool := New(1)
	pool.Shutdown()

	err := pool.Submit(context.Background(), func() {})
	if !errors.Is(err, ErrPoolShutdown) {
		t.Errorf("expected ErrPoolShutdown, got %v", err)
	}
}

func TestPoolSubmitRespectsContextCancellation(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	block := make(chan struct{})
	if err := pool.Submit(context.Background(), func() { <-block }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Submit(ctx, func() {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(block)
}

func TestRunOrdersResultsByKey(t *testing.T) {
	pool := New(4)
	defer pool.Shutdown()

	keys := []int{0, 1, 2, 3, 4}
	values, errs := Run(context.Background(), pool, keys, func(_ context.Context, k int) (int, error) {
		time.Sleep(time.Duration(4-k) * time.Millisecond)
		return k * k, nil
	})

	for i, k := range keys {
		if errs[i] != nil {
			t.Fatalf("unexpected error for key %d: %v", k, errs[i])
		}
		if values[i] != k*k {
			t.Errorf("key %d: expected %d, got %d", k, k*k, values[i])
		}
	}
}

func TestRunCollectsPerKeyErrors(t *testing.T) {
	pool := New(2)
	defer pool.Shutdown()

	boom := errors.New("boom")
	keys := []int{1, 2, 3}
	_, errs := Run(context.Background(), pool, keys, func(_ context.Context, k int) (int, error) {
		if k == 2 {
			return 0, boom
		}
		return k, nil
	})

	if errs[0] != nil || errs[2] != nil {
		t.Errorf("expected keys 1 and 3 to succeed, got errs=%v", errs)
	}
	if !errors.Is(errs[1], boom) {
		t.Errorf("expected key 2 to fail with boom, got %v", errs[1])
	}
}

func TestRunStopsDispatchingAfterCancellation(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := []int{1, 2, 3}
	_, errs := Run(ctx, pool, keys, func(_ context.Context, k int) (int, error) {
		return k, nil
	})

	for i, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("key %d: expected context.Canceled, got %v", keys[i], err)
		}
	}
}

func BenchmarkPoolSubmit(b *testing.B) {
	pool := New(4)
	defer pool.Shutdown()

	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var wg sync.WaitGroup
			wg.Add(1)
			pool.Submit(ctx, func() { wg.Done() })
			wg.Wait()
		}
	})
}
