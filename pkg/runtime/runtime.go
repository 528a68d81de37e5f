package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/neakor/hemera/pkg/config"
	"github.com/neakor/hemera/pkg/exec"
	"github.com/neakor/hemera/pkg/metrics"
	"github.com/neakor/hemera/pkg/rest"
	"github.com/neakor/hemera/pkg/router"
)

// shutdownGrace bounds how long Stop waits for in-flight tasks.
const shutdownGrace = 5 * time.Second

// Runtime assembles the endpoint, acceptor, dispatcher, and task
// service into a startable server.
type Runtime struct {
	cfg        *config.Configuration
	registry   rest.Registry
	log        *slog.Logger
	exceptions exec.ExceptionHandler
	reg        *metrics.Registry
	service    *exec.Service
	dispatcher *router.Dispatcher

	mu        sync.RWMutex
	endpoint  *Endpoint
	acceptor  *exec.Handle
	running   bool
	stopped   bool
	startTime time.Time
}

// Option customizes a runtime.
type Option func(*Runtime)

// WithLogger sets the logger shared by the runtime's components.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) {
		if log != nil {
			r.log = log
		}
	}
}

// WithExceptionHandler sets the handler that receives unexpected
// processor and task errors.
func WithExceptionHandler(h exec.ExceptionHandler) Option {
	return func(r *Runtime) {
		if h != nil {
			r.exceptions = h
		}
	}
}

// WithMetrics attaches a metrics registry. Without one the runtime
// runs unmetered.
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Runtime) { r.reg = reg }
}

// New builds a runtime serving the given resource registry.
func New(cfg *config.Configuration, registry rest.Registry, opts ...Option) *Runtime {
	if cfg == nil {
		cfg = config.DefaultConfiguration()
	}
	r := &Runtime{
		cfg:      cfg,
		registry: registry,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exceptions == nil {
		r.exceptions = exec.NewLogExceptionHandler(r.log)
	}
	r.service = exec.NewService(
		exec.WithLogger(r.log.With("component", "exec")),
		exec.WithExceptionHandler(r.exceptions),
	)
	r.dispatcher = router.New(registry,
		router.WithLogger(r.log.With("component", "router")),
		router.WithExceptionHandler(r.exceptions),
	)
	return r
}

// Start binds the server socket and launches the acceptor. A runtime
// is single-use: once stopped it cannot be started again.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("runtime is already running")
	}
	if r.stopped {
		return errors.New("runtime has been stopped")
	}
	endpoint, err := Listen(r.cfg)
	if err != nil {
		r.log.Error("binding server socket failed", "port", r.cfg.Port, "error", err)
		return err
	}
	r.endpoint = endpoint
	acceptor := NewAcceptor(endpoint, r.service, r.dispatcher, r.log.With("component", "acceptor"), r.reg)
	r.acceptor = r.service.Submit(acceptor)
	r.running = true
	r.startTime = time.Now()
	if r.cfg.TLS != nil && r.cfg.TLS.Enabled {
		r.log.Info("secure connection listener opened", "addr", endpoint.Addr().String())
	} else {
		r.log.Info("connection listener opened", "addr", endpoint.Addr().String())
	}
	return nil
}

// Stop closes the endpoint and drains all connection pumps, forcing
// lingering connections closed. It is idempotent. The drain happens
// outside the state lock so Addr, IsRunning, and Uptime stay responsive
// while connections wind down.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	acceptor := r.acceptor
	r.running = false
	r.stopped = true
	r.mu.Unlock()

	acceptor.Terminate()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err := r.service.Shutdown(ctx)
	r.log.Info("runtime stopped")
	return err
}

// Addr returns the bound listener address, or nil before Start.
func (r *Runtime) Addr() net.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.endpoint == nil {
		return nil
	}
	return r.endpoint.Addr()
}

// IsRunning reports whether the runtime is serving.
func (r *Runtime) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Uptime returns how long the runtime has been serving, or zero when
// it is not running.
func (r *Runtime) Uptime() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return 0
	}
	return time.Since(r.startTime)
}
