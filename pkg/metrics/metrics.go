// Package metrics provides a small Prometheus-compatible metrics registry
// using only the standard library. Counters and gauges, with optional
// labels baked into the metric name, exposed in the text exposition
// format over HTTP.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing counter.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge can go up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.val.Store(n) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

// Registry holds named metrics in insertion order.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	help     map[string]string
	types    map[string]string
	order    []string
}

// New creates a new Registry.
func New() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		help:     make(map[string]string),
		types:    make(map[string]string),
	}
}

func (r *Registry) track(name, typ, help string) {
	if _, ok := r.types[name]; !ok {
		r.order = append(r.order, name)
	}
	r.types[name] = typ
	if help != "" {
		r.help[name] = help
	}
}

// WithLabels bakes label pairs into a metric name:
// WithLabels("x_total", "kind", "faqs") -> `x_total{kind="faqs"}`.
func WithLabels(name string, pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", pairs[i], pairs[i+1])
	}
	b.WriteByte('}')
	return b.String()
}

// Counter returns (or creates) a counter by name.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{}
	r.counters[name] = c
	r.track(name, "counter", help)
	return c
}

// Gauge returns (or creates) a gauge by name.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[name] = g
	r.track(name, "gauge", help)
	return g
}

// Render writes all metrics in the Prometheus text format.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	seen := make(map[string]bool)
	for _, name := range r.order {
		base := name
		if i := strings.IndexByte(base, '{'); i >= 0 {
			base = base[:i]
		}
		if !seen[base] {
			seen[base] = true
			if h := r.help[name]; h != "" {
				fmt.Fprintf(&b, "# HELP %s %s\n", base, h)
			}
			fmt.Fprintf(&b, "# TYPE %s %s\n", base, r.types[name])
		}
		if c, ok := r.counters[name]; ok {
			fmt.Fprintf(&b, "%s %d\n", name, c.Value())
		}
		if g, ok := r.gauges[name]; ok {
			fmt.Fprintf(&b, "%s %d\n", name, g.Value())
		}
	}
	return b.String()
}

// Handler returns an http.Handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, r.Render())
	})
}

// ServeAsync starts a /metrics endpoint on the given port in a goroutine.
func (r *Registry) ServeAsync(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	go http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
