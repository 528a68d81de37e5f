package runtime

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/neakor/hemera/pkg/exec"
	"github.com/neakor/hemera/pkg/metrics"
	"github.com/neakor/hemera/pkg/router"
)

// ConnPump owns a single accepted connection and drives HTTP exchanges
// on it. Each Execute invocation handles at most one request/response
// pair; the connection stays alive across invocations until the client
// closes it, asks for Connection: close, times out, or the service
// terminates the pump.
type ConnPump struct {
	conn       net.Conn
	reader     *bufio.Reader
	dispatcher *router.Dispatcher
	params     ExchangeParams
	log        *slog.Logger

	// Connection-scoped exchange context, stable across requests.
	id        string
	remote    string
	exchanges int

	closed   atomic.Bool
	active   *metrics.Gauge
	requests *metrics.Counter
}

// NewConnPump binds a pump to an accepted connection. The pump takes
// ownership of the connection and closes it during cleanup.
func NewConnPump(conn net.Conn, dispatcher *router.Dispatcher, params ExchangeParams, log *slog.Logger, reg *metrics.Registry) *ConnPump {
	if log == nil {
		log = slog.Default()
	}
	size := params.BufferSize
	if size <= 0 {
		size = 4096
	}
	p := &ConnPump{
		conn:       conn,
		reader:     bufio.NewReaderSize(conn, size),
		dispatcher: dispatcher,
		params:     params,
		id:         uuid.NewString(),
		remote:     conn.RemoteAddr().String(),
	}
	p.log = log.With("connection", p.id, "remote", p.remote)
	if reg != nil {
		p.active = reg.Gauge("connections_active")
		p.requests = reg.Counter("requests_total")
	}
	metrics.IncGauge(p.active)
	return p
}

// ID returns the pump's connection identifier.
func (p *ConnPump) ID() string { return p.id }

// Execute performs one HTTP exchange. Any condition that ends the
// connection's usefulness reports a stop directive rather than an
// error: a closing client is the normal end of a connection, not a
// failure the exception handler should see.
func (p *ConnPump) Execute(_ context.Context) (exec.Directive, error) {
	if p.closed.Load() {
		return exec.Stop, nil
	}
	if p.params.ReadTimeout > 0 {
		_ = p.conn.SetReadDeadline(time.Now().Add(p.params.ReadTimeout))
	}
	req, err := http.ReadRequest(p.reader)
	if err != nil {
		p.logEnd(err)
		return exec.Stop, nil
	}
	p.exchanges++

	reply := p.dispatcher.Dispatch(req)
	drainBody(req)
	metrics.IncCounterLabel(p.requests, strconv.Itoa(reply.StatusCode))

	if err := p.writeReply(req, reply); err != nil {
		p.log.Debug("response write failed", "error", err)
		return exec.Stop, nil
	}
	p.log.Debug("exchange committed", "exchange", p.exchanges, "method", req.Method, "uri", req.RequestURI, "status", reply.StatusCode)
	if req.Close {
		return exec.Stop, nil
	}
	return exec.Continue, nil
}

// Cleanup closes the connection. Teardown errors on an already-dying
// socket carry no signal, so they are swallowed.
func (p *ConnPump) Cleanup() error {
	p.closeConn()
	metrics.DecGauge(p.active)
	return nil
}

// SignalTerminate force-closes the connection so a pump blocked in a
// read unblocks immediately.
func (p *ConnPump) SignalTerminate() { p.closeConn() }

func (p *ConnPump) closeConn() {
	if p.closed.CompareAndSwap(false, true) {
		_ = p.conn.Close()
	}
}

func (p *ConnPump) logEnd(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		p.log.Debug("connection closed")
	case isTimeout(err):
		p.log.Warn("client socket timed out")
	default:
		p.log.Debug("connection ended", "error", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (p *ConnPump) writeReply(req *http.Request, reply *router.Reply) error {
	header := reply.Header
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Server", p.params.ServerName)
	header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	resp := &http.Response{
		StatusCode:    reply.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Request:       req,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(reply.Body)),
		ContentLength: int64(len(reply.Body)),
		Close:         req.Close,
	}
	return resp.Write(p.conn)
}

// drainBody consumes whatever the dispatcher left unread so the next
// request on the connection starts at a frame boundary.
func drainBody(req *http.Request) {
	if req.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, req.Body)
	_ = req.Body.Close()
}
