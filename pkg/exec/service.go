package exec

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/neakor/hemera/pkg/logging"
)

// Handle controls one submitted task.
type Handle struct {
	task     CyclicTask
	cancel   context.CancelFunc
	done     chan struct{}
	termOnce sync.Once
}

// Terminate requests the task's termination: its context is canceled and
// SignalTerminate is invoked to unblock a pending cycle. Idempotent.
func (h *Handle) Terminate() {
	h.termOnce.Do(func() {
		h.cancel()
		h.task.SignalTerminate()
	})
}

// Join blocks until the task's goroutine has exited, including Cleanup.
func (h *Handle) Join() {
	<-h.done
}

// Service schedules cyclic tasks, one goroutine per task.
type Service struct {
	log        *slog.Logger
	exceptions ExceptionHandler
	group      *errgroup.Group

	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the operational logger for the service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithExceptionHandler sets the sink for task execution failures.
func WithExceptionHandler(h ExceptionHandler) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.exceptions = h
		}
	}
}

// NewService creates a Service ready to accept task submissions.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		log:     logging.Nop(),
		group:   &errgroup.Group{},
		handles: make(map[*Handle]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exceptions == nil {
		s.exceptions = NewLogExceptionHandler(s.log)
	}
	return s
}

// Submit spawns a goroutine that invokes the task's Execute until it
// reports Stop, fails, or is terminated. The returned handle can request
// termination and wait for completion. After Shutdown the task is not
// started, but it is still signaled and cleaned up so resources it
// already owns (an accepted connection, say) are released; the returned
// handle is already done.
func (s *Service) Submit(task CyclicTask) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{task: task, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		task.SignalTerminate()
		if cerr := task.Cleanup(); cerr != nil {
			s.log.Warn("task cleanup failed", "error", cerr)
		}
		close(h.done)
		s.log.Warn("task submitted after shutdown, not started")
		return h
	}
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	s.group.Go(func() error {
		return s.run(ctx, h)
	})
	return h
}

func (s *Service) run(ctx context.Context, h *Handle) (err error) {
	defer close(h.done)
	defer func() {
		s.mu.Lock()
		delete(s.handles, h)
		s.mu.Unlock()
	}()
	defer func() {
		if cerr := h.task.Cleanup(); cerr != nil {
			s.log.Warn("task cleanup failed", "error", cerr)
			err = cerr
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		directive, err := h.task.Execute(ctx)
		if err != nil {
			s.exceptions.Handle(err)
			return nil
		}
		if directive == Stop {
			return nil
		}
	}
}

// Shutdown terminates every live task and waits for all task goroutines
// to finish, bounded by ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	live := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		live = append(live, h)
	}
	s.mu.Unlock()

	for _, h := range live {
		h.Terminate()
	}

	done := make(chan error, 1)
	go func() {
		done <- s.group.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TaskCount reports the number of live tasks.
func (s *Service) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// logExceptionHandler reports task failures to a slog logger.
type logExceptionHandler struct {
	log *slog.Logger
}

// NewLogExceptionHandler returns an ExceptionHandler that logs every
// failure at error level.
func NewLogExceptionHandler(log *slog.Logger) ExceptionHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &logExceptionHandler{log: log}
}

func (h *logExceptionHandler) Handle(err error) {
	h.log.Error("unhandled task failure", "error", err)
}
