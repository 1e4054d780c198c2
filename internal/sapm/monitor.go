package sapm

import (
	"context"
	"sync"
	"time"
)

// Monitor drives Graph.Tick from a polling timer. The next tick is armed
// only after the previous one has returned, so passes never overlap.
type Monitor struct {
	graph    *Graph
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	// gen invalidates callbacks of timers that were stopped or replaced.
	gen uint64
}

// NewMonitor creates a stopped monitor polling at the graph's configured
// interval.
func NewMonitor(g *Graph) *Monitor {
	return &Monitor{graph: g, interval: g.opts.Idle.PollInterval}
}

// Start arms the timer, replacing any timer that is already running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	gen := m.gen
	m.timer = time.AfterFunc(m.interval, func() { m.fire(ctx, gen) })
}

// Stop disarms the timer. It is safe to call repeatedly or before Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Run starts the monitor and blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.Start(ctx)
	<-ctx.Done()
	m.Stop()
	return nil
}

func (m *Monitor) stopLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) fire(ctx context.Context, gen uint64) {
	if !m.current(gen) || ctx.Err() != nil {
		return
	}
	m.graph.Tick(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || ctx.Err() != nil {
		return
	}
	m.timer = time.AfterFunc(m.interval, func() { m.fire(ctx, gen) })
}

func (m *Monitor) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}
