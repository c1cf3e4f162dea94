package modelcore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scriptmaster/modelserve/internal/queue"
)

// SchedulerStatistics captures the timing and queue depth observed
// around one Enqueue call, per spec.md §4.7.
type SchedulerStatistics struct {
	TimeInQueue time.Duration
	WallStart   time.Time
	WallEnd     time.Time
	QueueDepth  int
}

// ScheduledResult is what Enqueue returns: exactly one of
// ExecutionResult, ExecutionErr or SchedulerErr is set, alongside the statistics
// captured around the wait (spec.md §4.6 step 6).
type ScheduledResult struct {
	Stats          SchedulerStatistics
	ExecutionResult *Executed
	ExecutionErr    *ExecutionError
	SchedulerErr    error
}

type workItem struct {
	modelID ModelId
	input   Input
	reply   chan executeReply
}

type executeReply struct {
	executed Executed
	err      *ExecutionError
}

// Scheduler is the single-consumer FIFO queue in front of a Registry.
// Many producers call Enqueue concurrently; exactly one dedicated
// goroutine (workerLoop) ever calls into the registry's engine path,
// satisfying the native runtime's non-reentrancy requirement (spec.md
// §5).
type Scheduler struct {
	registry         *Registry
	verifyModelInput bool

	q          *queue.Queue[workItem]
	closed     atomic.Bool
	stopCh     chan struct{}
	stopOnce   sync.Once
	workerDone chan struct{}

	metrics *schedulerMetrics
}

// NewScheduler constructs a Scheduler over registry and immediately
// starts its dedicated worker goroutine. verifyModelInput is applied
// to every execution dispatched through this scheduler.
func NewScheduler(registry *Registry, verifyModelInput bool) *Scheduler {
	s := &Scheduler{
		registry:         registry,
		verifyModelInput: verifyModelInput,
		q:                queue.New[workItem](),
		stopCh:           make(chan struct{}),
		workerDone:       make(chan struct{}),
		metrics:          newSchedulerMetrics(),
	}
	go s.workerLoop()
	return s
}

// Enqueue pushes (modelID, input) onto the FIFO queue and waits for
// the worker's reply. ctx governs only the caller's wait: if ctx is
// cancelled before the worker replies, Enqueue returns early with
// SchedulerErr set to ctx.Err() but the engine call already in flight
// (or about to start) runs to completion regardless — per spec.md §5,
// the worker is never aborted mid-forward.
func (s *Scheduler) Enqueue(ctx context.Context, input Input, modelID ModelId) ScheduledResult {
	reply := make(chan executeReply, 1)
	wallStart := time.Now()

	s.q.Push(workItem{modelID: modelID, input: input, reply: reply})

	var (
		resp      executeReply
		delivered bool
		detached  bool
	)
	select {
	case v, ok := <-reply:
		if ok {
			resp = v
			delivered = true
		}
	case <-ctx.Done():
		detached = true
	}

	wallEnd := time.Now()
	stats := SchedulerStatistics{
		TimeInQueue: wallEnd.Sub(wallStart),
		WallStart:   wallStart,
		WallEnd:     wallEnd,
		QueueDepth:  s.q.Len(),
	}
	s.metrics.observe(stats)

	switch {
	case detached:
		return ScheduledResult{Stats: stats, SchedulerErr: ctx.Err()}
	case !delivered:
		return ScheduledResult{Stats: stats, SchedulerErr: ErrScheduler}
	case resp.err != nil:
		return ScheduledResult{Stats: stats, ExecutionErr: resp.err}
	default:
		executed := resp.executed
		return ScheduledResult{Stats: stats, ExecutionResult: &executed}
	}
}

// workerLoop is the sole goroutine that ever calls into the registry's
// engine path. It pops items in strict FIFO order; because there is
// exactly one consumer, dispatch order equals enqueue linearisation
// order (spec.md §4.6). Once Shutdown has been called, any item not
// already in flight is dropped rather than dispatched: its reply
// channel is closed, so the waiting Enqueue observes a dropped sender
// and returns SchedulerErr. An item already being handled when
// Shutdown is called still runs to completion.
func (s *Scheduler) workerLoop() {
	for {
		item, ok := s.q.Pop()
		if !ok {
			select {
			case <-s.q.Notify:
				continue
			case <-s.stopCh:
				s.dropAll()
				close(s.workerDone)
				return
			}
		}
		if s.closed.Load() {
			close(item.reply)
			continue
		}
		s.handle(item)
	}
}

func (s *Scheduler) handle(item workItem) {
	executed, err := s.registry.Execute(item.modelID, item.input, s.verifyModelInput)
	item.reply <- executeReply{executed: executed, err: err}
}

// dropAll discards every item left in the queue, closing each reply
// channel without a result.
func (s *Scheduler) dropAll() {
	for {
		item, ok := s.q.Pop()
		if !ok {
			return
		}
		close(item.reply)
	}
}

// Shutdown stops the worker loop: the item currently in flight (if
// any) finishes normally, everything still queued is dropped, and
// Shutdown blocks until the worker goroutine has exited. Safe to call
// more than once.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
	})
	<-s.workerDone
}
