package reactive

import (
	"context"
	"fmt"
	"sync"
)

// DefaultQueueSize is the task buffer size used by NewScheduler.
const DefaultQueueSize = 64

// Scheduler is a cooperative single-goroutine loop for a Runtime.
//
// Tasks posted from any goroutine run one at a time on the goroutine that
// called Run. After each task the runtime's deferred queue is flushed, which
// is the end of a turn for Computed teardown purposes.
type Scheduler struct {
	rt    *Runtime
	tasks chan func()

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewScheduler creates a Scheduler for rt. It does nothing until Run is called.
func NewScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt:      rt,
		tasks:   make(chan func(), DefaultQueueSize),
		stopped: make(chan struct{}),
	}
}

// Runtime returns the scheduled runtime.
func (s *Scheduler) Runtime() *Runtime {
	return s.rt
}

// Run executes posted tasks until ctx is done. It returns ctx.Err().
// Tasks still queued when Run returns are dropped.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.stopOnce.Do(func() { close(s.stopped) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-s.tasks:
			s.rt.Turn(task)
		}
	}
}

// Post queues task. It blocks while the queue is full and fails when ctx is
// done or the loop has exited.
func (s *Scheduler) Post(ctx context.Context, task func()) error {
	select {
	case <-s.stopped:
		return ErrSchedulerStopped
	default:
	}

	select {
	case s.tasks <- task:
		return nil
	case <-s.stopped:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do posts task and waits for it to finish. A panic inside task is recovered
// and returned as an error; errors are returned as-is.
func (s *Scheduler) Do(ctx context.Context, task func() error) error {
	done := make(chan error, 1)

	err := s.Post(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					done <- fmt.Errorf("reactive: task panicked: %w", err)
					return
				}
				done <- fmt.Errorf("reactive: task panicked: %v", r)
			}
		}()
		done <- task()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-s.stopped:
		select {
		case err := <-done:
			return err
		default:
			return ErrSchedulerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
