package sapm

import (
	"context"
	"slices"
	"time"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

// IdleState is the idle monitor state of a card.
type IdleState int

const (
	IdleActive IdleState = iota
	IdleStandby
	IdleSleep
)

func (s IdleState) String() string {
	switch s {
	case IdleActive:
		return "active"
	case IdleStandby:
		return "standby"
	case IdleSleep:
		return "sleep"
	}
	return "unknown"
}

type idleMonitor struct {
	enabled          bool
	standbyRequested bool
	state            IdleState
	lastActivity     time.Time
	standbyAt        time.Time
	// asleep holds the components that were powered when the card slept.
	asleep []*Component
}

// IdleStatus is a point-in-time copy of the idle monitor.
type IdleStatus struct {
	State        IdleState
	Enabled      bool
	LastActivity time.Time
	Config       IdleConfig
}

// IdleStatus reports the idle monitor state.
func (g *Graph) IdleStatus() IdleStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return IdleStatus{
		State:        g.idle.state,
		Enabled:      g.idle.enabled,
		LastActivity: g.idle.lastActivity,
		Config:       *g.opts.Idle,
	}
}

// ArmIdleMonitor enables or disables idle escalation. Either way it counts
// as activity, so a sleeping card wakes up.
func (g *Graph) ArmIdleMonitor(ctx context.Context, enable bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idle.enabled = enable
	g.noteActivityLocked(ctx)
	g.recomputeLocked(ctx)
	ctxlog.FromContext(ctx).Info("Idle monitor armed.", "card", g.name, "enabled", enable)
}

// RequestStandbyNow skips the inactivity window and runs a tick at once. The
// request is dropped by the next activity.
func (g *Graph) RequestStandbyNow(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idle.standbyRequested = true
	g.tickLocked(ctx)
}

// NotifyActivity resets the idle clock. A sleeping card is powered back to
// the set it had before sleeping.
func (g *Graph) NotifyActivity(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.noteActivityLocked(ctx)
	g.recomputeLocked(ctx)
}

// Tick retries components left dirty by failed writes, then advances the
// idle state machine. The state machine does nothing while the monitor is
// disabled or the card is already asleep.
func (g *Graph) Tick(ctx context.Context) IdleState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idle.state != IdleSleep {
		g.recomputeLocked(ctx)
	}
	g.tickLocked(ctx)
	return g.idle.state
}

func (g *Graph) tickLocked(ctx context.Context) {
	if !g.idle.enabled || g.idle.state == IdleSleep {
		return
	}
	now := g.opts.Now()
	cfg := g.opts.Idle

	switch g.idle.state {
	case IdleActive:
		skipWindow := cfg.StandbyNow || g.idle.standbyRequested
		if !skipWindow && now.Sub(g.idle.lastActivity) <= cfg.StandbyAfter {
			return
		}
		g.enterStandbyLocked(ctx, now)
	case IdleStandby:
		if now.Sub(g.idle.standbyAt) <= cfg.SleepAfter {
			return
		}
		g.enterSleepLocked(ctx)
	}
}

func (g *Graph) enterStandbyLocked(ctx context.Context, now time.Time) {
	for _, c := range g.components {
		g.applyStandbyHint(ctx, c)
	}
	g.idle.standbyRequested = false
	g.idle.standbyAt = now
	g.setIdleStateLocked(ctx, IdleStandby)
}

// applyStandbyHint runs the hint registered for c's kind, if any. It reports
// false only when a hint ran and failed.
func (g *Graph) applyStandbyHint(ctx context.Context, c *Component) bool {
	hint, ok := g.opts.StandbyHints[c.Kind]
	if !ok {
		return true
	}
	if err := hint(ctx, c); err != nil {
		ctxlog.FromContext(ctx).Warn("Standby hint failed.", "component", c.Name, "error", err)
		return false
	}
	return true
}

// enterSleepLocked powers down everything that is on and remembers it.
func (g *Graph) enterSleepLocked(ctx context.Context) {
	var down []*Component
	for _, c := range g.components {
		if c.power {
			down = insertBySequence(down, c, false)
		}
	}
	start := g.opts.Now()
	g.idle.asleep = slices.Clone(down)
	failed := g.commit(ctx, down, false)
	g.opts.Observer.PassCompleted(PassStats{
		Evaluated:     len(down),
		PoweredDown:   len(down) - failed,
		WriteFailures: failed,
		Powered:       g.poweredCountLocked(),
		Duration:      g.opts.Now().Sub(start),
	})
	ctxlog.FromContext(ctx).Info("Card entering sleep.",
		"card", g.name, "powered_down", len(down)-failed, "write_failures", failed)
	g.setIdleStateLocked(ctx, IdleSleep)
}

// noteActivityLocked resets the idle clock. Waking from sleep queues the
// remembered components; the caller's recompute powers them back up.
func (g *Graph) noteActivityLocked(ctx context.Context) {
	g.idle.lastActivity = g.opts.Now()
	g.idle.standbyRequested = false
	if g.idle.state == IdleSleep {
		for _, c := range g.idle.asleep {
			g.markDirtyLocked(c)
		}
		g.idle.asleep = nil
	}
	if g.idle.state != IdleActive {
		g.setIdleStateLocked(ctx, IdleActive)
	}
}

func (g *Graph) setIdleStateLocked(ctx context.Context, to IdleState) {
	from := g.idle.state
	if from == to {
		return
	}
	g.idle.state = to
	g.opts.Observer.IdleStateChanged(from, to)
	ctxlog.FromContext(ctx).Info("Idle state changed.", "card", g.name, "from", from.String(), "to", to.String())
}
