package runtime

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/neakor/hemera/pkg/config"
	"github.com/neakor/hemera/pkg/tlsutil"
)

// ExchangeParams are the HTTP framing parameters every connection
// accepted by an endpoint is bound to.
type ExchangeParams struct {
	// ReadTimeout bounds how long a pump waits for the next request
	// on an idle connection. Zero disables the deadline.
	ReadTimeout time.Duration

	// BufferSize is applied to the connection's socket buffers and to
	// the buffered reader framing requests.
	BufferSize int

	// ServerName is sent back in the Server header of every response.
	ServerName string
}

// Endpoint wraps a listening socket together with the exchange
// parameters its connections inherit.
type Endpoint struct {
	listener net.Listener
	params   ExchangeParams
}

// NewEndpoint wraps an existing listener. The caller keeps control of
// the listener's lifetime until the endpoint is closed.
func NewEndpoint(listener net.Listener, params ExchangeParams) *Endpoint {
	if params.BufferSize <= 0 {
		params.BufferSize = 4096
	}
	return &Endpoint{listener: listener, params: params}
}

// Listen opens a TCP endpoint on the configured port, wrapping it in a
// TLS listener when the configuration enables TLS.
func Listen(cfg *config.Configuration) (*Endpoint, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("bind server socket on port %d: %w", cfg.Port, err)
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsCfg, err := tlsutil.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			_ = listener.Close()
			return nil, err
		}
		listener = tls.NewListener(listener, tlsCfg)
	}
	return NewEndpoint(listener, ExchangeParams{
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		BufferSize:  cfg.BufferSize,
		ServerName:  cfg.ServerName,
	}), nil
}

// Accept blocks for the next connection and applies the endpoint's
// socket options to it before handing it back.
func (e *Endpoint) Accept() (net.Conn, error) {
	conn, err := e.listener.Accept()
	if err != nil {
		return nil, err
	}
	e.tune(conn)
	return conn, nil
}

// tune applies latency-oriented TCP options. Failures are ignored: the
// options are an optimization, not a correctness requirement.
func (e *Endpoint) tune(conn net.Conn) {
	raw := conn
	if nc, ok := conn.(interface{ NetConn() net.Conn }); ok {
		raw = nc.NetConn()
	}
	tcp, ok := raw.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tcp.SetNoDelay(true)
	_ = tcp.SetKeepAlive(true)
	_ = tcp.SetReadBuffer(e.params.BufferSize)
	_ = tcp.SetWriteBuffer(e.params.BufferSize)
}

// Params returns the exchange parameters connections inherit.
func (e *Endpoint) Params() ExchangeParams { return e.params }

// Addr returns the listener's bound address.
func (e *Endpoint) Addr() net.Addr { return e.listener.Addr() }

// Close shuts the listening socket, unblocking any pending Accept.
func (e *Endpoint) Close() error { return e.listener.Close() }
