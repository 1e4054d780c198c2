package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/ctxlog"
	"github.com/specialistvlad/sapmd/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL card loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges all blocks into
// a single card. Only one card and one idle block may be declared in total.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Card, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	card := &config.Card{}
	var cardSeen, idleSeen string
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, c := range root.Cards {
			if cardSeen != "" {
				return nil, fmt.Errorf("%s: card %q already declared in %s", file, c.Name, cardSeen)
			}
			cardSeen = file
			card.Name = c.Name
			card.Description = c.Description
		}
		for _, c := range root.Components {
			comp, diags := translateComponent(c)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode component %q in %s: %w", c.Name, file, diags)
			}
			card.Components = append(card.Components, comp)
		}
		for _, c := range root.Controls {
			ctl, diags := translateControl(c)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode control %q in %s: %w", c.Name, file, diags)
			}
			card.Controls = append(card.Controls, ctl)
		}
		for _, r := range root.Routes {
			card.Routes = append(card.Routes, &config.Route{
				Source:  r.Source,
				Sink:    r.Sink,
				Control: r.Control,
				Item:    r.Item,
			})
		}
		for _, r := range root.Registers {
			reg, diags := translateRegister(r)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode register %q in %s: %w", r.Address, file, diags)
			}
			card.Registers = append(card.Registers, reg)
		}
		for _, i := range root.Idle {
			if idleSeen != "" {
				return nil, fmt.Errorf("%s: idle block already declared in %s", file, idleSeen)
			}
			idleSeen = file
			idle, err := translateIdle(i)
			if err != nil {
				return nil, fmt.Errorf("failed to decode idle block in %s: %w", file, err)
			}
			card.Idle = idle
		}
	}

	if card.Name == "" {
		card.Name = "default"
	}
	logger.Debug("HCL loading complete.",
		"card", card.Name,
		"components", len(card.Components),
		"controls", len(card.Controls),
		"routes", len(card.Routes),
		"registers", len(card.Registers))
	return card, nil
}

func translateField(regExpr, shiftExpr, maskExpr hcl.Expression, invert bool) (config.RegisterField, bool, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	addr, present, d := decodeUint32(regExpr)
	diags = append(diags, d...)
	shift, _, d := decodeUint32(shiftExpr)
	diags = append(diags, d...)
	mask, hasMask, d := decodeUint32(maskExpr)
	diags = append(diags, d...)
	if !hasMask {
		mask = 1
	}
	return config.RegisterField{Address: addr, Shift: shift, Mask: mask, Invert: invert}, present, diags
}

func translateComponent(c *componentBlock) (*config.Component, hcl.Diagnostics) {
	field, present, diags := translateField(c.Reg, c.Shift, c.Mask, c.Invert)
	comp := &config.Component{Kind: c.Kind, Name: c.Name}
	if present {
		comp.Register = &field
	}
	return comp, diags
}

func translateControl(c *controlBlock) (*config.Control, hcl.Diagnostics) {
	field, _, diags := translateField(c.Reg, c.Shift, c.Mask, c.Invert)
	minVal, _, d := decodeUint32(c.Min)
	diags = append(diags, d...)
	maxVal, hasMax, d := decodeUint32(c.Max)
	diags = append(diags, d...)
	values, d := decodeUint32List(c.Values)
	diags = append(diags, d...)
	if !hasMax {
		maxVal = field.Mask
	}
	return &config.Control{
		Name:   c.Name,
		Type:   c.Type,
		Field:  field,
		Min:    minVal,
		Max:    maxVal,
		Texts:  c.Texts,
		Values: values,
	}, diags
}

func translateRegister(r *registerBlock) (*config.Register, hcl.Diagnostics) {
	addr, diags := parseAddress(r.Address, r.Value.Range())
	val, present, d := decodeUint32(r.Value)
	diags = append(diags, d...)
	if !diags.HasErrors() && !present {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing register value",
			Subject:  r.Value.Range().Ptr(),
		})
	}
	return &config.Register{Address: addr, Value: val}, diags
}

func translateIdle(i *idleBlock) (*config.Idle, error) {
	idle := &config.Idle{Enabled: i.Enabled, StandbyNow: i.StandbyNow}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"poll_interval", i.PollInterval, &idle.PollInterval},
		{"standby_after", i.StandbyAfter, &idle.StandbyAfter},
		{"sleep_after", i.SleepAfter, &idle.SleepAfter},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return idle, nil
}
