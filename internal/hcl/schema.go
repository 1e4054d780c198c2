package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Cards      []*cardBlock      `hcl:"card,block"`
	Components []*componentBlock `hcl:"component,block"`
	Controls   []*controlBlock   `hcl:"control,block"`
	Routes     []*routeBlock     `hcl:"route,block"`
	Registers  []*registerBlock  `hcl:"register,block"`
	Idle       []*idleBlock      `hcl:"idle,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type cardBlock struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}

// Numeric attributes are kept as expressions so they can be written either
// as numbers or as strings with a base prefix ("0x1f").
type componentBlock struct {
	Kind   string         `hcl:"kind,label"`
	Name   string         `hcl:"name,label"`
	Reg    hcl.Expression `hcl:"reg,optional"`
	Shift  hcl.Expression `hcl:"shift,optional"`
	Mask   hcl.Expression `hcl:"mask,optional"`
	Invert bool           `hcl:"invert,optional"`
}

type controlBlock struct {
	Name   string         `hcl:"name,label"`
	Type   string         `hcl:"type,optional"`
	Reg    hcl.Expression `hcl:"reg"`
	Shift  hcl.Expression `hcl:"shift,optional"`
	Mask   hcl.Expression `hcl:"mask,optional"`
	Invert bool           `hcl:"invert,optional"`
	Min    hcl.Expression `hcl:"min,optional"`
	Max    hcl.Expression `hcl:"max,optional"`
	Texts  []string       `hcl:"texts,optional"`
	Values hcl.Expression `hcl:"values,optional"`
}

type routeBlock struct {
	Source  string `hcl:"source"`
	Sink    string `hcl:"sink"`
	Control string `hcl:"control,optional"`
	Item    string `hcl:"item,optional"`
}

type registerBlock struct {
	Address string         `hcl:"address,label"`
	Value   hcl.Expression `hcl:"value"`
}

type idleBlock struct {
	Enabled      bool   `hcl:"enabled,optional"`
	PollInterval string `hcl:"poll_interval,optional"`
	StandbyAfter string `hcl:"standby_after,optional"`
	SleepAfter   string `hcl:"sleep_after,optional"`
	StandbyNow   bool   `hcl:"standby_now,optional"`
}
