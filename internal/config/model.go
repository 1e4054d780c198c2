package config

import "time"

// Card is the unified, format-agnostic description of one audio card: its
// power components, the routes between them, user controls, the initial
// register contents and the idle policy.
type Card struct {
	Name        string
	Description string
	Components  []*Component
	Controls    []*Control
	Routes      []*Route
	Registers   []*Register
	Idle        *Idle
}

// RegisterField addresses a bit field inside a codec register.
type RegisterField struct {
	Address uint32
	Shift   uint32
	Mask    uint32
	Invert  bool
}

// Component is the format-agnostic representation of a `component` block.
type Component struct {
	Kind string
	Name string
	// Register is nil for components without a power bit.
	Register *RegisterField
}

// Control is the format-agnostic representation of a `control` block.
type Control struct {
	Name   string
	Type   string
	Field  RegisterField
	Min    uint32
	Max    uint32
	Texts  []string
	Values []uint32
}

// Route is the format-agnostic representation of a `route` block. An empty
// Control means the route is always connected.
type Route struct {
	Source  string
	Sink    string
	Control string
	Item    string
}

// Register is an initial register value.
type Register struct {
	Address uint32
	Value   uint32
}

// Idle holds the idle monitor policy. Zero durations mean "use the default".
type Idle struct {
	Enabled      bool
	PollInterval time.Duration
	StandbyAfter time.Duration
	SleepAfter   time.Duration
	StandbyNow   bool
}
