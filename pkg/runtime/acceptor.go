package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/neakor/hemera/pkg/exec"
	"github.com/neakor/hemera/pkg/metrics"
	"github.com/neakor/hemera/pkg/router"
)

// Acceptor is the cyclic task that accepts connections from an
// endpoint and submits a pump for each one. One invocation accepts at
// most one connection.
type Acceptor struct {
	endpoint   *Endpoint
	service    *exec.Service
	dispatcher *router.Dispatcher
	log        *slog.Logger
	reg        *metrics.Registry
	accepted   *metrics.Counter
}

// NewAcceptor wires an acceptor to an endpoint. Accepted connections
// are pumped by tasks submitted to the given service and dispatched
// through the given dispatcher.
func NewAcceptor(endpoint *Endpoint, service *exec.Service, dispatcher *router.Dispatcher, log *slog.Logger, reg *metrics.Registry) *Acceptor {
	if log == nil {
		log = slog.Default()
	}
	a := &Acceptor{
		endpoint:   endpoint,
		service:    service,
		dispatcher: dispatcher,
		log:        log,
		reg:        reg,
	}
	if reg != nil {
		a.accepted = reg.Counter("connections_accepted_total")
	}
	return a
}

// Execute accepts one connection. A closed endpoint is the normal
// shutdown path and stops the task quietly; any other accept failure
// means the listening socket is unusable, so the task stops as well.
func (a *Acceptor) Execute(_ context.Context) (exec.Directive, error) {
	conn, err := a.endpoint.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			a.log.Info("connection listener closed")
			return exec.Stop, nil
		}
		a.log.Error("accepting connection failed", "error", err)
		return exec.Stop, nil
	}
	metrics.IncCounter(a.accepted)
	pump := NewConnPump(conn, a.dispatcher, a.endpoint.Params(), a.log, a.reg)
	a.service.Submit(pump)
	a.log.Debug("connection accepted", "connection", pump.ID(), "remote", conn.RemoteAddr().String())
	return exec.Continue, nil
}

// Cleanup closes the endpoint in case termination was triggered by
// something other than SignalTerminate.
func (a *Acceptor) Cleanup() error {
	_ = a.endpoint.Close()
	return nil
}

// SignalTerminate closes the endpoint, unblocking a pending accept.
func (a *Acceptor) SignalTerminate() { _ = a.endpoint.Close() }
