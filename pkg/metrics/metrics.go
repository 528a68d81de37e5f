// Package metrics provides a small in-process counter/gauge registry
// used by the runtime to track connection and request totals.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing metric with an optional single
// label dimension.
type Counter struct {
	name string

	base uint64 // unlabeled count, atomic

	mu      sync.RWMutex
	byLabel map[string]*uint64
}

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Inc increments the unlabeled count.
func (c *Counter) Inc() {
	atomic.AddUint64(&c.base, 1)
}

// IncLabel increments the count for one label value.
func (c *Counter) IncLabel(label string) {
	c.mu.RLock()
	v, ok := c.byLabel[label]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		v, ok = c.byLabel[label]
		if !ok {
			v = new(uint64)
			c.byLabel[label] = v
		}
		c.mu.Unlock()
	}
	atomic.AddUint64(v, 1)
}

// Value returns the unlabeled count.
func (c *Counter) Value() uint64 {
	return atomic.LoadUint64(&c.base)
}

// LabelValue returns the count for one label value.
func (c *Counter) LabelValue(label string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.byLabel[label]; ok {
		return atomic.LoadUint64(v)
	}
	return 0
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	val  int64 // atomic
}

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }

// Inc increments the gauge.
func (g *Gauge) Inc() { atomic.AddInt64(&g.val, 1) }

// Dec decrements the gauge.
func (g *Gauge) Dec() { atomic.AddInt64(&g.val, -1) }

// Set sets the gauge to an absolute value.
func (g *Gauge) Set(v int64) { atomic.StoreInt64(&g.val, v) }

// Value returns the current value.
func (g *Gauge) Value() int64 { return atomic.LoadInt64(&g.val) }

// Registry holds named metrics. A nil *Registry is valid and records
// nothing, so instrumentation points never need nil checks.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the counter with the given name, creating it on first
// use. Returns nil on a nil registry.
func (r *Registry) Counter(name string) *Counter {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = &Counter{name: name, byLabel: make(map[string]*uint64)}
		r.counters[name] = c
	}
	return c
}

// Gauge returns the gauge with the given name, creating it on first
// use. Returns nil on a nil registry.
func (r *Registry) Gauge(name string) *Gauge {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = &Gauge{name: name}
		r.gauges[name] = g
	}
	return g
}

// Snapshot returns all current values keyed by metric name; labeled
// counter values use the form `name{label}`. Keys are sorted so the
// output is stable.
func (r *Registry) Snapshot() map[string]int64 {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int64)
	for name, c := range r.counters {
		out[name] = int64(c.Value())
		c.mu.RLock()
		labels := make([]string, 0, len(c.byLabel))
		for label := range c.byLabel {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			out[name+"{"+label+"}"] = int64(atomic.LoadUint64(c.byLabel[label]))
		}
		c.mu.RUnlock()
	}
	for name, g := range r.gauges {
		out[name] = g.Value()
	}
	return out
}

// IncCounter is a nil-safe convenience for counter increments.
func IncCounter(c *Counter) {
	if c != nil {
		c.Inc()
	}
}

// IncCounterLabel is a nil-safe convenience for labeled increments.
func IncCounterLabel(c *Counter, label string) {
	if c != nil {
		c.IncLabel(label)
	}
}

// IncGauge is a nil-safe convenience for gauge increments.
func IncGauge(g *Gauge) {
	if g != nil {
		g.Inc()
	}
}

// DecGauge is a nil-safe convenience for gauge decrements.
func DecGauge(g *Gauge) {
	if g != nil {
		g.Dec()
	}
}
