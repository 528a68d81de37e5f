package exec

import "context"

// Directive is a cyclic task's per-cycle report to the service.
type Directive int

const (
	// Continue requests another invocation of the task.
	Continue Directive = iota
	// Stop ends the task; Cleanup runs and the goroutine exits.
	Stop
)

// String returns the directive name.
func (d Directive) String() string {
	switch d {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// CyclicTask is a repeatable unit of work. Execute is invoked repeatedly
// by the service until it returns Stop or an error; Cleanup then runs
// exactly once. SignalTerminate must unblock a pending Execute (for
// socket-bound tasks, by closing the socket) and must be safe to call
// more than once and concurrently with Execute.
type CyclicTask interface {
	Execute(ctx context.Context) (Directive, error)
	Cleanup() error
	SignalTerminate()
}

// ExceptionHandler is the process-wide sink for failures that no
// per-request or per-connection boundary converted into a response.
type ExceptionHandler interface {
	Handle(err error)
}
