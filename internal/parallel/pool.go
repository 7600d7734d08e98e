// Package parallel provides a bounded-concurrency dispatcher for
// independent, cancellable tasks. It backs the driver's property-check
// fan-out: each property is checked by an otherwise-pure task whose only
// side effect is spawning the external solver, and cancelling one task
// must never corrupt another's in-flight state.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolShutdown is returned when submitting to a pool that has already
// been shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// Pool bounds the number of tasks executing concurrently. Unlike a queue
// with unbounded backlog, Pool's channel is sized to its worker count:
// Submit blocks (or respects ctx/shutdown) once every worker is busy and
// that many further tasks are already queued.
type Pool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once

	stats *Stats
}

// New creates a pool of maxWorkers goroutines. maxWorkers <= 0 defaults to
// runtime.NumCPU(), so that dispatching many property checks concurrently
// does not require the caller to size the pool to the host machine by
// hand.
func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	p := &Pool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers),
		shutdownChan: make(chan struct{}),
		stats:        newStats(),
	}
	for i := 0; i < maxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case task, ok := <-p.taskChan:
			if !ok {
				return
			}
			p.runTask(task)
		case <-p.shutdownChan:
			return
		}
	}
}

func (p *Pool) runTask(task func()) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.stats.recordFailed(fmt.Errorf("task panicked: %v", r))
			return
		}
		p.stats.recordCompleted(time.Since(start))
	}()
	task()
}

// Submit enqueues task for execution, blocking until a worker slot is
// free, ctx is cancelled, or the pool is shut down. Cancellation of ctx
// before the task starts means the task never runs at all; a task that
// has already started is responsible for honoring its own context (see
// Run, which plumbs ctx through to every task).
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.stats.recordSubmitted()
	if err := ctx.Err(); err != nil {
		p.stats.recordCancelled()
		return err
	}
	select {
	case <-p.shutdownChan:
		p.stats.recordCancelled()
		return ErrPoolShutdown
	default:
	}
	select {
	case p.taskChan <- task:
		return nil
	case <-ctx.Done():
		p.stats.recordCancelled()
		return ctx.Err()
	case <-p.shutdownChan:
		p.stats.recordCancelled()
		return ErrPoolShutdown
	}
}

// Shutdown stops accepting new tasks and waits for in-flight tasks to
// finish.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdownChan)
		close(p.taskChan)
		p.workerWg.Wait()
		p.stats.finalize()
	})
}

// Stats returns the pool's execution statistics.
func (p *Pool) Stats() Stats { return p.stats.snapshot() }

// keyedResult holds a task's result and error. Run stores it at the index
// of the key it was run for, so results come back in the caller's original
// order regardless of completion order.
type keyedResult[R any] struct {
	value R
	err   error
}

// Run executes fn once per key, bounded by the pool's worker count, and
// returns one result per key in the same order as keys. A key whose task
// has not yet started when ctx is cancelled gets the zero R and ctx.Err();
// a key whose task is already running is left to fn to cancel promptly.
func Run[K any, R any](ctx context.Context, p *Pool, keys []K, fn func(context.Context, K) (R, error)) ([]R, []error) {
	results := make([]keyedResult[R], len(keys))
	var wg sync.WaitGroup

	for i, k := range keys {
		i, k := i, k
		wg.Add(1)
		submitErr := p.Submit(ctx, func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i] = keyedResult[R]{err: err}
				return
			}
			value, err := fn(ctx, k)
			results[i] = keyedResult[R]{value: value, err: err}
		})
		if submitErr != nil {
			results[i] = keyedResult[R]{err: submitErr}
			wg.Done()
		}
	}
	wg.Wait()

	values := make([]R, len(keys))
	errs := make([]error, len(keys))
	for i, r := range results {
		values[i] = r.value
		errs[i] = r.err
	}
	return values, errs
}

// Stats is a point-in-time snapshot of a Pool's execution counters.
type Stats struct {
	StartTime          time.Time
	EndTime            time.Time
	TotalExecutionTime time.Duration
	TasksSubmitted     int64
	TasksCompleted     int64
	TasksFailed        int64
	TasksCancelled     int64
	LastError          error
}

func (s Stats) String() string {
	lastErr := "none"
	if s.LastError != nil {
		lastErr = s.LastError.Error()
	}
	return fmt.Sprintf("Stats{submitted=%d completed=%d failed=%d cancelled=%d duration=%v last_error=%s}",
		s.TasksSubmitted, s.TasksCompleted, s.TasksFailed, s.TasksCancelled, s.TotalExecutionTime, lastErr)
}

func newStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) recordSubmitted() { atomic.AddInt64(&s.TasksSubmitted, 1) }
func (s *Stats) recordCancelled() { atomic.AddInt64(&s.TasksCancelled, 1) }

func (s *Stats) recordCompleted(time.Duration) { atomic.AddInt64(&s.TasksCompleted, 1) }

func (s *Stats) recordFailed(err error) {
	atomic.AddInt64(&s.TasksFailed, 1)
	s.LastError = err
}

func (s *Stats) finalize() {
	s.EndTime = time.Now()
	s.TotalExecutionTime = s.EndTime.Sub(s.StartTime)
}

func (s *Stats) snapshot() Stats {
	return Stats{
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		TotalExecutionTime: s.TotalExecutionTime,
		TasksSubmitted:     atomic.LoadInt64(&s.TasksSubmitted),
		TasksCompleted:     atomic.LoadInt64(&s.TasksCompleted),
		TasksFailed:        atomic.LoadInt64(&s.TasksFailed),
		TasksCancelled:     atomic.LoadInt64(&s.TasksCancelled),
		LastError:          s.LastError,
	}
}
