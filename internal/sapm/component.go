// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the graph's data model: Components (the nodes), Paths
// (the directed edges between them) and Controls (the user-facing knobs that
// drive a path's connect flag or a plain register field).
//
// Components are created once when the graph is built and live as long as
// the graph. Paths hold back-references to their endpoints and never own
// them. All mutable fields are guarded by the owning Graph's mutex.

package sapm

// RegisterLocation addresses the power bit(s) of a component, or the field of
// a control, inside the register bus.
type RegisterLocation struct {
	Address uint32
	Shift   uint32
	Mask    uint32
	Invert  bool
}

// field extracts this location's field from a full register value.
func (r RegisterLocation) field(regVal uint32) uint32 {
	return (regVal >> r.Shift) & r.Mask
}

// update returns regVal with this location's field replaced by val.
func (r RegisterLocation) update(regVal, val uint32) uint32 {
	m := r.Mask << r.Shift
	return (regVal &^ m) | ((val & r.Mask) << r.Shift)
}

// powerField is the field value that represents the given power state.
func (r RegisterLocation) powerField(on bool) uint32 {
	if on != r.Invert {
		return 1
	}
	return 0
}

// Component is a single node of the power graph.
type Component struct {
	Kind Kind
	Name string
	// Register is nil for pure logical nodes without a power bit.
	Register *RegisterLocation

	power        bool
	desiredPower bool
	active       bool
	dirty        bool

	sources []*Path // paths where this component is the sink
	sinks   []*Path // paths where this component is the source
	// controls bound to this component's incoming paths
	controls []*Control
}

// Powered reports the last committed power state.
func (c *Component) Powered() bool { return c.power }

// Active reports whether a stream currently holds the component on.
func (c *Component) Active() bool { return c.active }

// Sources returns the paths feeding this component.
func (c *Component) Sources() []*Path { return c.sources }

// Sinks returns the paths leaving this component.
func (c *Component) Sinks() []*Path { return c.sinks }

// Controls returns the controls bound to this component's incoming paths.
func (c *Component) Controls() []*Control { return c.controls }

// Path is a directed edge from Source to Sink.
type Path struct {
	Source *Component
	Sink   *Component
	// Control is nil for statically connected paths.
	Control *Control
	// Item is the enum text selecting this path when Control is an enum.
	Item string

	connected bool
}

// Connected reports whether signal currently flows across the path.
func (p *Path) Connected() bool { return p.connected }

// String renders the path as "source -> sink".
func (p *Path) String() string {
	return p.Source.Name + " -> " + p.Sink.Name
}

// ControlType selects how a control's value is interpreted.
type ControlType int

const (
	// ControlSwitch connects its paths when the effective value is non-zero.
	ControlSwitch ControlType = iota
	// ControlEnum selects one of several source paths by item index.
	ControlEnum
	// ControlVolume is a plain register field with no topology effect.
	ControlVolume
)

// String returns the configuration name of the control type.
func (t ControlType) String() string {
	switch t {
	case ControlSwitch:
		return "switch"
	case ControlEnum:
		return "enum"
	case ControlVolume:
		return "volume"
	}
	return "unknown"
}

// Control is a user-facing named knob backed by a register field.
type Control struct {
	Name     string
	Type     ControlType
	Register RegisterLocation
	Min      uint32
	Max      uint32
	// Texts and Values describe enum items. Values is empty unless the field
	// stores something other than the item index.
	Texts  []string
	Values []uint32

	paths []*Path
}

// Paths returns the paths whose connect flag this control drives.
func (c *Control) Paths() []*Path { return c.paths }

// pathConnected decides a bound path's connect flag from a raw field value.
func (c *Control) pathConnected(p *Path, raw uint32) bool {
	switch c.Type {
	case ControlSwitch:
		if !c.Register.Invert {
			return raw != 0
		}
		if raw > c.Max {
			return false
		}
		return c.Max-raw != 0
	case ControlEnum:
		idx, ok := c.itemIndex(raw)
		return ok && c.Texts[idx] == p.Item
	}
	return false
}

// itemIndex maps a raw enum field value to its item index.
func (c *Control) itemIndex(raw uint32) (int, bool) {
	if len(c.Values) == 0 {
		if int(raw) < len(c.Texts) {
			return int(raw), true
		}
		return 0, false
	}
	for i, v := range c.Values {
		if v == raw && i < len(c.Texts) {
			return i, true
		}
	}
	return 0, false
}

// rawFor converts a user value into the field value stored in the register.
func (c *Control) rawFor(value uint32) (uint32, bool) {
	switch c.Type {
	case ControlEnum:
		if int(value) >= len(c.Texts) {
			return 0, false
		}
		if len(c.Values) > 0 {
			if int(value) >= len(c.Values) {
				return 0, false
			}
			return c.Values[value], true
		}
		return value, true
	default:
		if value < c.Min || value > c.Max {
			return 0, false
		}
		return value, true
	}
}

// valueFor converts a raw field value back into the user-facing value.
func (c *Control) valueFor(raw uint32) uint32 {
	if c.Type == ControlEnum && len(c.Values) > 0 {
		if idx, ok := c.itemIndex(raw); ok {
			return uint32(idx)
		}
	}
	return raw
}
