package sapm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/regbus"
	"github.com/stretchr/testify/require"
)

type powerChange struct {
	name string
	on   bool
}

type recorder struct {
	mu       sync.Mutex
	changes  []powerChange
	failures map[string]error
	passes   []PassStats
	idle     []IdleState
}

func newRecorder() *recorder {
	return &recorder{failures: make(map[string]error)}
}

func (r *recorder) PassCompleted(stats PassStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = append(r.passes, stats)
}

func (r *recorder) PowerChanged(c *Component, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, powerChange{name: c.Name, on: on})
}

func (r *recorder) WriteFailed(c *Component, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[c.Name] = err
}

func (r *recorder) IdleStateChanged(_, to IdleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle = append(r.idle, to)
}

// take returns and clears the recorded power changes.
func (r *recorder) take() []powerChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.changes
	r.changes = nil
	return out
}

func (r *recorder) idleStates() []IdleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]IdleState(nil), r.idle...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGraph(t *testing.T, card *config.Card, bus RegisterBus, opts ...Option) (*Graph, *recorder) {
	t.Helper()
	rec := newRecorder()
	g, err := New(context.Background(), card, bus, append([]Option{WithObserver(rec)}, opts...)...)
	require.NoError(t, err)
	rec.take()
	return g, rec
}

func newMemoryGraph(t *testing.T, card *config.Card, opts ...Option) (*Graph, *regbus.Memory, *recorder) {
	t.Helper()
	mem := regbus.NewMemory(nil)
	g, rec := newTestGraph(t, card, mem, opts...)
	return g, mem, rec
}

func names(changes []powerChange) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.name)
	}
	return out
}

func poweredSet(g *Graph) map[string]bool {
	out := make(map[string]bool)
	for _, c := range g.Components() {
		if c.Powered {
			out[c.Name] = true
		}
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// requireFixedPoint checks that every component's power matches its rule.
func requireFixedPoint(t *testing.T, g *Graph) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.components {
		require.Equal(t, DesiredPower(c), c.power, "component %s is not at its desired power", c.Name)
	}
}
