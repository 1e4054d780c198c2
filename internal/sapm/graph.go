// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sapm

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/ctxlog"
	"go.uber.org/multierr"
)

// Graph owns all components, paths and controls of one audio card. A single
// mutex guards every mutable field and is held for a whole recompute and
// commit, so control writes and idle ticks never interleave.
type Graph struct {
	mu sync.Mutex

	name string
	bus  RegisterBus
	opts Options

	components     []*Component
	componentIndex map[string]*Component
	controls       []*Control
	controlIndex   map[string]*Control
	paths          []*Path

	// dirty is the FIFO worklist of components awaiting re-evaluation.
	dirty []*Component

	idle idleMonitor
}

// New builds the graph described by card, seeds its power and connect state
// from the register bus and runs one recompute so the card starts at a fixed
// point. Every topology problem is reported at once; each one wraps
// ErrInvalidTopology.
func New(ctx context.Context, card *config.Card, bus RegisterBus, opts ...Option) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	if card == nil {
		return nil, fmt.Errorf("%w: card is nil", ErrInvalidTopology)
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: register bus is nil", ErrInvalidTopology)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	// The graph owns its copy; options may be shared between graphs.
	var idle IdleConfig
	switch {
	case o.Idle != nil:
		idle = *o.Idle
	case card.Idle != nil:
		idle = IdleConfig{
			Enabled:      card.Idle.Enabled,
			PollInterval: card.Idle.PollInterval,
			StandbyAfter: card.Idle.StandbyAfter,
			SleepAfter:   card.Idle.SleepAfter,
			StandbyNow:   card.Idle.StandbyNow,
		}
	}
	idle = idle.withDefaults()
	o.Idle = &idle

	g := &Graph{
		name:           card.Name,
		bus:            bus,
		opts:           o,
		componentIndex: make(map[string]*Component, len(card.Components)),
		controlIndex:   make(map[string]*Control, len(card.Controls)),
	}

	// First pass: components and controls. Second pass: routes, which need both.
	errs := multierr.Combine(g.addComponents(card.Components), g.addControls(card.Controls))
	errs = multierr.Append(errs, g.addRoutes(card.Routes))
	if errs != nil {
		return nil, errs
	}
	logger.Debug("Graph topology built.",
		"card", g.name,
		"components", len(g.components),
		"paths", len(g.paths),
		"controls", len(g.controls))

	for _, loop := range g.feedbackLoops() {
		logger.Warn("Feedback loop in topology.", "card", g.name, "path", loop.String())
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.readInitialState(ctx)
	g.idle.enabled = o.Idle.Enabled
	g.idle.lastActivity = o.Now()
	for _, c := range g.components {
		g.markDirtyLocked(c)
	}
	g.recomputeLocked(ctx)
	return g, nil
}

func (g *Graph) addComponents(defs []*config.Component) error {
	var errs error
	for _, def := range defs {
		if def.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: component of kind %q has no name", ErrInvalidTopology, def.Kind))
			continue
		}
		kind, err := ParseKind(def.Kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: component %q: %w", ErrInvalidTopology, def.Name, err))
			continue
		}
		if _, dup := g.componentIndex[def.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate component %q", ErrInvalidTopology, def.Name))
			continue
		}
		c := &Component{Kind: kind, Name: def.Name}
		if def.Register != nil {
			loc := registerLocation(def.Register)
			c.Register = &loc
		}
		g.components = append(g.components, c)
		g.componentIndex[c.Name] = c
	}
	return errs
}

func (g *Graph) addControls(defs []*config.Control) error {
	var errs error
	for _, def := range defs {
		typ, err := ParseControlType(def.Type)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: control %q: %w", ErrInvalidTopology, def.Name, err))
			continue
		}
		if _, dup := g.controlIndex[def.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate control %q", ErrInvalidTopology, def.Name))
			continue
		}
		ctl := &Control{
			Name:     def.Name,
			Type:     typ,
			Register: registerLocation(&def.Field),
			Min:      def.Min,
			Max:      def.Max,
			Texts:    def.Texts,
			Values:   def.Values,
		}
		switch {
		case typ == ControlEnum && len(ctl.Texts) == 0:
			errs = multierr.Append(errs, fmt.Errorf("%w: enum control %q has no items", ErrInvalidTopology, def.Name))
			continue
		case typ == ControlEnum && len(ctl.Values) > 0 && len(ctl.Values) != len(ctl.Texts):
			errs = multierr.Append(errs, fmt.Errorf("%w: enum control %q has %d texts but %d values",
				ErrInvalidTopology, def.Name, len(ctl.Texts), len(ctl.Values)))
			continue
		case typ != ControlEnum && ctl.Max < ctl.Min:
			errs = multierr.Append(errs, fmt.Errorf("%w: control %q has max %d below min %d",
				ErrInvalidTopology, def.Name, ctl.Max, ctl.Min))
			continue
		}
		g.controls = append(g.controls, ctl)
		g.controlIndex[ctl.Name] = ctl
	}
	return errs
}

func (g *Graph) addRoutes(defs []*config.Route) error {
	var errs error
	for _, def := range defs {
		src, okSrc := g.componentIndex[def.Source]
		sink, okSink := g.componentIndex[def.Sink]
		if !okSrc || !okSink {
			errs = multierr.Append(errs, fmt.Errorf("%w: route %s -> %s references an unknown component",
				ErrInvalidTopology, def.Source, def.Sink))
			continue
		}
		p := &Path{Source: src, Sink: sink, connected: true}
		if def.Control != "" {
			ctl, ok := g.controlIndex[def.Control]
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: route %s -> %s references unknown control %q",
					ErrInvalidTopology, def.Source, def.Sink, def.Control))
				continue
			}
			if ctl.Type == ControlVolume {
				errs = multierr.Append(errs, fmt.Errorf("%w: volume control %q cannot gate route %s -> %s",
					ErrInvalidTopology, ctl.Name, def.Source, def.Sink))
				continue
			}
			p.Control = ctl
			p.Item = def.Item
			if ctl.Type == ControlEnum {
				if p.Item == "" {
					p.Item = src.Name
				}
				if !containsString(ctl.Texts, p.Item) {
					errs = multierr.Append(errs, fmt.Errorf("%w: route %s -> %s selects item %q not offered by control %q",
						ErrInvalidTopology, def.Source, def.Sink, p.Item, ctl.Name))
					continue
				}
			}
			p.connected = false
			ctl.paths = append(ctl.paths, p)
			sink.controls = appendUnique(sink.controls, ctl)
		}
		src.sinks = append(src.sinks, p)
		sink.sources = append(sink.sources, p)
		g.paths = append(g.paths, p)
	}
	return errs
}

// readInitialState seeds current power and connect flags from the hardware.
// Read failures leave the component off or the path disconnected.
func (g *Graph) readInitialState(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, c := range g.components {
		if c.Register == nil {
			continue
		}
		regVal, err := g.readRegister(ctx, c.Register.Address)
		if err != nil {
			logger.Error("Failed to read initial power state.", "component", c.Name, "error", err)
			continue
		}
		c.power = (c.Register.field(regVal) != 0) != c.Register.Invert
	}
	for _, ctl := range g.controls {
		if len(ctl.paths) == 0 {
			continue
		}
		raw, err := g.readField(ctx, ctl.Register)
		if err != nil {
			logger.Error("Failed to read initial control value.", "control", ctl.Name, "error", err)
			continue
		}
		for _, p := range ctl.paths {
			p.connected = ctl.pathConnected(p, raw)
		}
	}
}

// feedbackLoops returns one closing path per cycle found by a depth-first
// walk over all paths, connected or not.
func (g *Graph) feedbackLoops() []*Path {
	permanent := make(map[*Component]bool, len(g.components))
	temporary := make(map[*Component]bool)
	var loops []*Path

	var visit func(c *Component)
	visit = func(c *Component) {
		if permanent[c] {
			return
		}
		temporary[c] = true
		for _, p := range c.sinks {
			if temporary[p.Sink] {
				loops = append(loops, p)
				continue
			}
			visit(p.Sink)
		}
		delete(temporary, c)
		permanent[c] = true
	}

	for _, c := range g.components {
		visit(c)
	}
	return loops
}

func registerLocation(f *config.RegisterField) RegisterLocation {
	mask := f.Mask
	if mask == 0 {
		mask = 1
	}
	return RegisterLocation{Address: f.Address, Shift: f.Shift, Mask: mask, Invert: f.Invert}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(list []*Control, ctl *Control) []*Control {
	for _, c := range list {
		if c == ctl {
			return list
		}
	}
	return append(list, ctl)
}

// ParseControlType maps a configuration name to its ControlType. An empty
// name is a switch.
func ParseControlType(s string) (ControlType, error) {
	switch s {
	case "", "switch":
		return ControlSwitch, nil
	case "enum":
		return ControlEnum, nil
	case "volume":
		return ControlVolume, nil
	}
	return 0, fmt.Errorf("unknown control type %q", s)
}

// Name returns the card name.
func (g *Graph) Name() string { return g.name }

// ComponentState is a point-in-time copy of a component's state.
type ComponentState struct {
	Name        string
	Kind        Kind
	Powered     bool
	Active      bool
	HasRegister bool
}

func (c *Component) state() ComponentState {
	return ComponentState{
		Name:        c.Name,
		Kind:        c.Kind,
		Powered:     c.power,
		Active:      c.active,
		HasRegister: c.Register != nil,
	}
}

// Components returns the state of every component in declaration order.
func (g *Graph) Components() []ComponentState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ComponentState, 0, len(g.components))
	for _, c := range g.components {
		out = append(out, c.state())
	}
	return out
}

// Component returns the state of the named component.
func (g *Graph) Component(name string) (ComponentState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.componentIndex[name]
	if !ok {
		return ComponentState{}, false
	}
	return c.state(), true
}

// ControlInfo describes a control without touching the register bus.
type ControlInfo struct {
	Name  string
	Type  ControlType
	Min   uint32
	Max   uint32
	Texts []string
	// Routes lists the paths the control gates.
	Routes []string
}

// Controls describes every control in declaration order.
func (g *Graph) Controls() []ControlInfo {
	out := make([]ControlInfo, 0, len(g.controls))
	for _, ctl := range g.controls {
		out = append(out, ctl.info())
	}
	return out
}

// ControlInfo describes the named control.
func (g *Graph) ControlInfo(name string) (ControlInfo, bool) {
	ctl, ok := g.controlIndex[name]
	if !ok {
		return ControlInfo{}, false
	}
	return ctl.info(), true
}

func (c *Control) info() ControlInfo {
	routes := make([]string, 0, len(c.paths))
	for _, p := range c.paths {
		routes = append(routes, p.String())
	}
	return ControlInfo{Name: c.Name, Type: c.Type, Min: c.Min, Max: c.Max, Texts: c.Texts, Routes: routes}
}
