package sapm

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

// WriteControl sets a control to value. The bound paths are updated and the
// graph is recomputed before the control register itself is written, so
// power follows the new route before signal does. Writing the current value
// of a sleeping card still wakes it. A failed read of the control field
// leaves the card untouched, idle state included.
func (g *Graph) WriteControl(ctx context.Context, name string, value uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctl, ok := g.controlIndex[name]
	if !ok {
		return fmt.Errorf("%w: control %q", ErrUnknownControlBinding, name)
	}
	raw, ok := ctl.rawFor(value)
	if !ok {
		return fmt.Errorf("%w: %d for %s control %q", ErrInvalidControlValue, value, ctl.Type, name)
	}

	cur, err := g.readField(ctx, ctl.Register)
	if err != nil {
		return fmt.Errorf("%w: read control %q: %w", ErrRegisterWriteFailed, name, err)
	}

	g.noteActivityLocked(ctx)

	changed := g.applyControlLocked(ctl, raw)
	ctxlog.FromContext(ctx).Debug("Control written.", "control", name, "value", value, "paths_changed", changed)
	g.recomputeLocked(ctx)

	if cur == raw {
		return nil
	}
	if err := g.updateField(ctx, ctl.Register, raw); err != nil {
		return fmt.Errorf("control %q: %w", name, err)
	}
	return nil
}

// ReadControl returns the user-facing value of a control from the register.
func (g *Graph) ReadControl(ctx context.Context, name string) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctl, ok := g.controlIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: control %q", ErrUnknownControlBinding, name)
	}
	raw, err := g.readField(ctx, ctl.Register)
	if err != nil {
		return 0, fmt.Errorf("%w: read control %q: %w", ErrRegisterWriteFailed, name, err)
	}
	return ctl.valueFor(raw), nil
}

// applyControlLocked re-derives the connect flag of every path bound to ctl
// from raw and marks both endpoints of each changed path dirty. It returns
// the number of paths that changed.
func (g *Graph) applyControlLocked(ctl *Control, raw uint32) int {
	changed := 0
	for _, p := range ctl.paths {
		if g.setConnectedLocked(p, ctl.pathConnected(p, raw)) {
			changed++
		}
	}
	return changed
}

func (g *Graph) setConnectedLocked(p *Path, connected bool) bool {
	if p.connected == connected {
		return false
	}
	p.connected = connected
	g.markDirtyLocked(p.Source)
	g.markDirtyLocked(p.Sink)
	return true
}

// SetPathConnected flips the connect flag of a control-gated path and
// recomputes. It does not touch the control register; it is meant for
// callers that already programmed the route themselves. Static paths cannot
// be changed.
func (g *Graph) SetPathConnected(ctx context.Context, source, sink string, connected bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.findPathLocked(source, sink)
	if p == nil || p.Control == nil {
		return fmt.Errorf("%w: path %s -> %s", ErrUnknownControlBinding, source, sink)
	}
	g.noteActivityLocked(ctx)
	g.setConnectedLocked(p, connected)
	g.recomputeLocked(ctx)
	return nil
}

func (g *Graph) findPathLocked(source, sink string) *Path {
	src, ok := g.componentIndex[source]
	if !ok {
		return nil
	}
	for _, p := range src.sinks {
		if p.Sink.Name == sink {
			return p
		}
	}
	return nil
}

// NotifyStreamActive records whether a stream holds the named component on
// and recomputes.
func (g *Graph) NotifyStreamActive(ctx context.Context, name string, active bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.componentIndex[name]
	if !ok {
		return fmt.Errorf("%w: component %q", ErrUnknownControlBinding, name)
	}
	g.noteActivityLocked(ctx)
	if c.active != active {
		c.active = active
		g.markDirtyLocked(c)
	}
	g.recomputeLocked(ctx)
	return nil
}
