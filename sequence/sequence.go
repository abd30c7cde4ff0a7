// Package sequence implements a single-consumer FIFO task serializer: tasks
// added to a Sequence run one at a time, in order, so work routed through it
// never interleaves. The mempool and queue packages do not route their own
// mutations through it; they guard their state with their own mutexes. It
// follows the same blocking-queue shape as go-vite's tools/queue.blockQueue
// — a mutex-guarded slice with a sync.Cond instead of a channel, because
// Count() needs to read the current depth without draining anything — but
// adds a pacing delay and an overload warning.
package sequence

import (
	"sync"
	"time"

	"github.com/ddkcore/ddknode/common"
	"github.com/inconshreveable/log15"
	"github.com/rcrowley/go-metrics"
)

var log = log15.New("module", "sequence")

// DefaultPacing is the minimum delay between the end of one task and the
// start of the next. It is a pacing knob, not a correctness constraint —
// callers that want tighter scheduling can pass a smaller value to New.
const DefaultPacing = 600 * time.Millisecond

// DefaultWarningLimit is the queue depth at which onWarning starts firing.
const DefaultWarningLimit = 50

// Task is a unit of work the Sequence runs with exclusive access. Its
// return value and error are forwarded to the done callback supplied at
// Add time, mirroring the source's worker(callback, ...args) shape without
// needing a generic callback type.
type Task func() (interface{}, error)

// Done receives a completed task's result. A nil done is fine; the task
// still runs, its result is just discarded.
type Done func(result interface{}, err error)

type queuedTask struct {
	task Task
	done Done
}

// Sequence runs at most one Task at a time, in FIFO order, off the
// caller's goroutine.
type Sequence struct {
	mu   sync.Mutex
	cond *sync.Cond
	tasks []queuedTask

	pacing       time.Duration
	warningLimit int
	onWarning    func(depth, limit int)

	// depthGauge tracks queue depth for external observability, the same
	// role go-metrics plays throughout the teacher (its own metrics
	// package is a fork of this exact library — see DESIGN.md).
	depthGauge metrics.Gauge

	status common.LifecycleStatus
	closed bool
}

// New constructs a Sequence. A warningLimit of 0 selects DefaultWarningLimit.
func New(warningLimit int) *Sequence {
	if warningLimit <= 0 {
		warningLimit = DefaultWarningLimit
	}
	s := &Sequence{
		pacing:       DefaultPacing,
		warningLimit: warningLimit,
		depthGauge:   metrics.NewGauge(),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// DepthGauge exposes the queue-depth metric so callers can register it under
// a named registry (e.g. metrics.Register("mempool/sequence/depth", gauge)).
func (s *Sequence) DepthGauge() metrics.Gauge {
	return s.depthGauge
}

// SetPacing overrides the default inter-task delay. Must be called before
// Start.
func (s *Sequence) SetPacing(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pacing = d
}

// SetOnWarning installs the overload observer, invoked once per tick
// whenever the queue depth is at or above the warning limit.
func (s *Sequence) SetOnWarning(fn func(depth, limit int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWarning = fn
}

// Init transitions the Sequence out of its origin state. It is a no-op
// placeholder today, kept symmetric with common.Lifecycle so callers can
// treat Sequence like the rest of the core's long-lived components.
func (s *Sequence) Init() {
	s.status.PreInit()
	s.status.PostInit()
}

// Start launches the worker goroutine, running Init first if it has not run
// yet. Safe to call once per Sequence.
func (s *Sequence) Start() {
	s.Init()
	if !s.status.PreStart() {
		return
	}
	common.Go(s.loop)
	s.status.PostStart()
}

// Stop signals the worker goroutine to exit once it drains any tasks
// already enqueued. It does not block until the goroutine has actually
// exited.
func (s *Sequence) Stop() {
	if !s.status.PreStop() {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	s.status.PostStop()
}

func (s *Sequence) GetStatus() int32 {
	return s.status.GetStatus()
}

// Add enqueues a Task for serialized execution. done, if non-nil, receives
// the task's result once it runs.
func (s *Sequence) Add(task Task, done Done) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		if done != nil {
			done(nil, errClosed)
		}
		return
	}

	s.tasks = append(s.tasks, queuedTask{task: task, done: done})
	s.depthGauge.Update(int64(len(s.tasks)))
	s.cond.Signal()
}

// Count reports the current queue depth.
func (s *Sequence) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Sequence) loop() {
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 && s.closed {
			s.mu.Unlock()
			return
		}

		depth := len(s.tasks)
		next := s.tasks[0]
		s.tasks = s.tasks[1:]
		pacing := s.pacing
		onWarning := s.onWarning
		warningLimit := s.warningLimit
		s.depthGauge.Update(int64(len(s.tasks)))
		s.mu.Unlock()

		if onWarning != nil && depth >= warningLimit {
			onWarning(depth, warningLimit)
		}

		result, err := runTask(next.task)
		if err != nil {
			log.Error("task failed, sequence keeps advancing", "err", err)
		}
		if next.done != nil {
			next.done(result, err)
		}

		if pacing > 0 {
			time.Sleep(pacing)
		}
	}
}

// runTask recovers a panicking Task into an error instead of letting it
// take the single worker goroutine down, since a dead worker stalls every
// future task with no signal of why.
func runTask(task Task) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{r}
		}
	}()
	return task()
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return "sequence: task panicked"
}

var errClosed = closedError{}

type closedError struct{}

func (closedError) Error() string { return "sequence: closed" }
