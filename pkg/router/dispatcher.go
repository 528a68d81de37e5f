package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/neakor/hemera/pkg/args"
	"github.com/neakor/hemera/pkg/exec"
	"github.com/neakor/hemera/pkg/httputil"
	"github.com/neakor/hemera/pkg/logging"
	"github.com/neakor/hemera/pkg/rest"
)

// Reply is a committed response ready to be written to the connection.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Dispatcher resolves requests to processors and commits their
// responses. All fields are set at construction and read-only
// afterwards.
type Dispatcher struct {
	registry   rest.Registry
	exceptions exec.ExceptionHandler
	log        *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithExceptionHandler sets the sink for unexpected processor failures.
func WithExceptionHandler(h exec.ExceptionHandler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.exceptions = h
		}
	}
}

// New creates a Dispatcher routing against the given registry.
func New(registry rest.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.exceptions == nil {
		d.exceptions = exec.NewLogExceptionHandler(d.log)
	}
	return d
}

// clientError marks malformed client input (→ 400).
type clientError struct {
	message string
}

func (e *clientError) Error() string { return e.message }

// notFoundError marks a request whose path and method resolve to no
// processor (→ 404). It carries the raw failing URI for the response
// body.
type notFoundError struct {
	uri string
}

func (e *notFoundError) Error() string { return "no such service: " + e.uri }

// Dispatch handles one request end to end and always produces a reply:
// every per-request failure is classified and converted to an HTTP
// response at this boundary. Unexpected failures are escalated to the
// exception handler and the client receives a generic 500 with no
// internal detail.
func (d *Dispatcher) Dispatch(req *http.Request) *Reply {
	reply, err := d.dispatch(req)
	if err == nil {
		return reply
	}

	var notFound *notFoundError
	var client *clientError
	switch {
	case errors.As(err, &notFound):
		return errorReply(rest.StatusNotFound, httputil.PrefixNotFound+notFound.uri)
	case errors.As(err, &client):
		return errorReply(rest.StatusBadRequest, httputil.PrefixBadRequest+client.message)
	default:
		d.exceptions.Handle(err)
		return errorReply(rest.StatusInternalServerError, httputil.MessageServerError)
	}
}

func (d *Dispatcher) dispatch(req *http.Request) (*Reply, error) {
	// Parse the request line into method and path segments.
	method, err := rest.ParseMethod(req.Method)
	if err != nil {
		return nil, &clientError{message: err.Error()}
	}
	segments := rest.SplitPath(req.URL.Path)

	// Resolve the target processor.
	resource := d.registry.Resolve(segments, method)
	if resource == nil {
		return nil, &notFoundError{uri: requestURI(req)}
	}
	processor := resource.Processor(segments, method)
	if processor == nil {
		return nil, &notFoundError{uri: requestURI(req)}
	}

	// Decode URI and body arguments; body wins on key collision.
	arguments, err := d.decodeArguments(req)
	if err != nil {
		return nil, fmt.Errorf("decode request arguments: %w", err)
	}

	// Build the processor's typed request.
	request := processor.NewRequest()
	if err := request.Parse(segments, arguments); err != nil {
		return nil, &clientError{message: err.Error()}
	}

	callback, _ := arguments.Text("callback")

	switch processor.Redirect(request) {
	case rest.Invoke:
		return d.invoke(processor, request, callback)
	case rest.RedirectBeforeInvoke:
		return redirectReply(processor.RedirectURI(request, nil)), nil
	case rest.RedirectAfterInvoke:
		response, err := processor.Process(request)
		if err != nil {
			return nil, fmt.Errorf("process request: %w", err)
		}
		if response == nil {
			return inactiveReply(), nil
		}
		// The response only feeds the redirect target; its body is
		// never sent to the client.
		return redirectReply(processor.RedirectURI(request, response)), nil
	default:
		return nil, &clientError{message: "unsupported redirect behavior"}
	}
}

// invoke runs the processor and commits its outcome.
func (d *Dispatcher) invoke(processor rest.Processor, request rest.Request, callback string) (*Reply, error) {
	response, err := processor.Process(request)
	if err != nil {
		return nil, fmt.Errorf("process request: %w", err)
	}
	if response == nil {
		return inactiveReply(), nil
	}

	body, err := response.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	if callback != "" {
		body = httputil.WrapJSONP(callback, body)
	}
	return jsonReply(response.Status().Code(), body), nil
}

// decodeArguments merges URI query arguments with body arguments.
func (d *Dispatcher) decodeArguments(req *http.Request) (args.Arguments, error) {
	var body io.Reader
	if req.Body != nil && req.Body != http.NoBody && req.ContentLength != 0 {
		body = req.Body
	}
	return args.Decode(req.URL.RawQuery, body, req.Header.Get("Content-Type"))
}

// requestURI returns the raw request URI including the query string.
func requestURI(req *http.Request) string {
	if req.RequestURI != "" {
		return req.RequestURI
	}
	return req.URL.RequestURI()
}

func jsonReply(status int, body []byte) *Reply {
	header := make(http.Header)
	header.Set("Content-Type", httputil.ContentTypeJSON)
	return &Reply{StatusCode: status, Header: header, Body: body}
}

func errorReply(status rest.Status, message string) *Reply {
	return jsonReply(status.Code(), httputil.ErrorDocument(status, message))
}

func inactiveReply() *Reply {
	return errorReply(rest.StatusServiceUnavailable, httputil.MessageServiceUnavailable)
}

func redirectReply(location string) *Reply {
	header := make(http.Header)
	header.Set("Location", location)
	return &Reply{StatusCode: rest.StatusTemporaryRedirect.Code(), Header: header}
}
