package rest

import "github.com/neakor/hemera/pkg/args"

// RedirectBehavior is a processor's per-request instruction to the
// dispatcher. It is computed fresh for every request and carries no
// state.
type RedirectBehavior int

const (
	// Invoke calls the processor and commits its response.
	Invoke RedirectBehavior = iota
	// RedirectBeforeInvoke skips the processor and answers with a
	// temporary redirect computed from the request alone.
	RedirectBeforeInvoke
	// RedirectAfterInvoke calls the processor, discards its response
	// body, and answers with a temporary redirect computed from the
	// request and the produced response.
	RedirectAfterInvoke
)

// Request is a processor-specific typed request populated from the
// request path segments and the decoded argument set. A Parse failure
// means malformed client input, never a server fault.
type Request interface {
	Parse(segments []string, arguments args.Arguments) error
}

// Response is a processor outcome: a status code and a JSON document.
// It is produced by the processor and consumed exactly once by the
// dispatcher when committing the HTTP response.
type Response interface {
	Status() Status
	JSON() ([]byte, error)
}

// Processor handles requests for one (resource, method) pair.
//
// Process returning (nil, nil) is the inactive sentinel: the processor
// declined to produce an outcome and the client receives 503.
type Processor interface {
	// NewRequest returns a fresh request value for this processor.
	NewRequest() Request
	// Redirect decides how the dispatcher treats the populated request.
	Redirect(request Request) RedirectBehavior
	// RedirectURI computes the redirect target. response is nil for
	// RedirectBeforeInvoke.
	RedirectURI(request Request, response Response) string
	// Process produces the outcome for the request.
	Process(request Request) (Response, error)
}

// Resource selects the processor for a request within a resolved
// resource. Returning nil means no processor handles the pair, a 404
// condition.
type Resource interface {
	Processor(segments []string, method Method) Processor
}

// Registry resolves a request path and method to a resource. Returning
// nil is a 404 condition. Implementations must be safe for concurrent
// use: a single dispatcher instance resolves requests from many
// connections at once.
type Registry interface {
	Resolve(segments []string, method Method) Resource
}
