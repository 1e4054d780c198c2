package sapm

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

// MarkDirty queues the named component for re-evaluation on the next pass.
func (g *Graph) MarkDirty(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.componentIndex[name]
	if !ok {
		return fmt.Errorf("%w: component %q", ErrUnknownControlBinding, name)
	}
	g.markDirtyLocked(c)
	return nil
}

func (g *Graph) markDirtyLocked(c *Component) {
	if c.dirty {
		return
	}
	c.dirty = true
	g.dirty = append(g.dirty, c)
}

// Recompute drains the dirty queue and commits every resulting transition.
func (g *Graph) Recompute(ctx context.Context) PassStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recomputeLocked(ctx)
}

// recomputeLocked evaluates every dirty component once. A component whose
// power changes marks its connected neighbours that disagree with the new
// value, and those are appended to the same worklist. Transitions are then
// committed power-down first.
func (g *Graph) recomputeLocked(ctx context.Context) PassStats {
	var stats PassStats
	if len(g.dirty) == 0 {
		return stats
	}
	start := g.opts.Now()

	var up, down []*Component
	for i := 0; i < len(g.dirty); i++ {
		c := g.dirty[i]
		stats.Evaluated++

		c.desiredPower = DesiredPower(c)
		if c.desiredPower == c.power {
			continue
		}
		if g.idle.state == IdleStandby && !g.applyStandbyHint(ctx, c) {
			continue
		}

		for _, p := range c.sources {
			if p.connected && p.Source.power != c.desiredPower {
				g.markDirtyLocked(p.Source)
			}
		}
		for _, p := range c.sinks {
			if p.connected && p.Sink.power != c.desiredPower {
				g.markDirtyLocked(p.Sink)
			}
		}

		if c.desiredPower {
			up = insertBySequence(up, c, true)
		} else {
			down = insertBySequence(down, c, false)
		}
	}

	for _, c := range g.dirty {
		c.dirty = false
	}
	g.dirty = g.dirty[:0]

	failedDown := g.commit(ctx, down, false)
	failedUp := g.commit(ctx, up, true)

	stats.PoweredDown = len(down) - failedDown
	stats.PoweredUp = len(up) - failedUp
	stats.WriteFailures = failedDown + failedUp
	stats.Powered = g.poweredCountLocked()
	stats.Duration = g.opts.Now().Sub(start)

	g.opts.Observer.PassCompleted(stats)
	ctxlog.FromContext(ctx).Debug("Recompute pass complete.",
		"card", g.name,
		"evaluated", stats.Evaluated,
		"powered_up", stats.PoweredUp,
		"powered_down", stats.PoweredDown,
		"write_failures", stats.WriteFailures)
	return stats
}

func (g *Graph) poweredCountLocked() int {
	n := 0
	for _, c := range g.components {
		if c.power {
			n++
		}
	}
	return n
}
