package sapm

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

// OrderForTransition returns components in the order they must be switched
// for the given direction. Equal priorities keep their input order.
func OrderForTransition(components []*Component, powerUp bool) []*Component {
	var out []*Component
	for _, c := range components {
		out = insertBySequence(out, c, powerUp)
	}
	return out
}

// insertBySequence places c immediately before the first entry whose
// priority is strictly greater than c's.
func insertBySequence(list []*Component, c *Component, powerUp bool) []*Component {
	prio := Priority(c.Kind, powerUp)
	at := len(list)
	for i, e := range list {
		if Priority(e.Kind, powerUp) > prio {
			at = i
			break
		}
	}
	return slices.Insert(list, at, c)
}

// commit switches every component in seq to on and returns the number of
// failed writes. A failed component keeps its previous power and is queued
// for the next pass.
func (g *Graph) commit(ctx context.Context, seq []*Component, on bool) int {
	logger := ctxlog.FromContext(ctx)
	failed := 0
	for _, c := range seq {
		if c.Register != nil {
			if err := g.writePower(ctx, c, on); err != nil {
				failed++
				logger.Error("Register write failed.", "component", c.Name, "power", on, "error", err)
				g.opts.Observer.WriteFailed(c, err)
				g.markDirtyLocked(c)
				continue
			}
		}
		c.power = on
		g.opts.Observer.PowerChanged(c, on)
		logger.Debug("Component power changed.", "component", c.Name, "kind", c.Kind.String(), "power", on)
	}
	return failed
}

// writePower updates the component's power field with a read-modify-write.
func (g *Graph) writePower(ctx context.Context, c *Component, on bool) error {
	r := c.Register
	return g.updateField(ctx, *r, r.powerField(on))
}

func (g *Graph) updateField(ctx context.Context, r RegisterLocation, val uint32) error {
	ctx, cancel := g.busContext(ctx)
	defer cancel()

	cur, err := g.bus.ReadRegister(ctx, r.Address)
	if err != nil {
		return fmt.Errorf("%w: read %#x: %w", ErrRegisterWriteFailed, r.Address, err)
	}
	next := r.update(cur, val)
	if next == cur {
		return nil
	}
	if err := g.bus.WriteRegister(ctx, r.Address, next); err != nil {
		return fmt.Errorf("%w: write %#x: %w", ErrRegisterWriteFailed, r.Address, err)
	}
	return nil
}

func (g *Graph) readRegister(ctx context.Context, addr uint32) (uint32, error) {
	ctx, cancel := g.busContext(ctx)
	defer cancel()
	return g.bus.ReadRegister(ctx, addr)
}

func (g *Graph) readField(ctx context.Context, r RegisterLocation) (uint32, error) {
	regVal, err := g.readRegister(ctx, r.Address)
	if err != nil {
		return 0, err
	}
	return r.field(regVal), nil
}

// busContext detaches a register access from the caller's cancellation; a
// pass always runs to completion. Only WriteTimeout bounds the access.
func (g *Graph) busContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if g.opts.WriteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.opts.WriteTimeout)
}
