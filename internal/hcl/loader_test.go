package hcl

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHCL = `
card "demo" {
  description = "Demo codec"
}

component "mic" "Mic" {
  reg   = "0x10"
  shift = 0
}

component "pga" "Pga" {
  reg    = 16
  shift  = 1
  invert = true
}

component "adc" "Adc" {
  reg   = "0x10"
  shift = 2
}

component "aif_out" "AifOut" {}

register "0x10" {
  value = "0b101"
}

idle {
  enabled       = true
  poll_interval = "5s"
  standby_after = "30s"
}
`

const controlsHCL = `
control "Mic Switch" {
  reg = "0x20"
}

control "Capture Source" {
  type   = "enum"
  reg    = "0x20"
  shift  = 4
  mask   = "0x3"
  texts  = ["Mic", "Line"]
  values = [0, "0x2"]
}

control "Capture Volume" {
  type = "volume"
  reg  = 48
  mask = 63
  min  = 1
}

route {
  source  = "Mic"
  sink    = "Pga"
  control = "Mic Switch"
}

route {
  source = "Pga"
  sink   = "Adc"
}
`

func TestLoader_Load(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"card.hcl":          cardHCL,
		"routing/main.hcl":  controlsHCL,
		"routing/notes.txt": "not hcl",
	})

	card, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", card.Name)
	assert.Equal(t, "Demo codec", card.Description)

	require.Len(t, card.Components, 4)
	assert.Equal(t, &config.Component{
		Kind:     "mic",
		Name:     "Mic",
		Register: &config.RegisterField{Address: 0x10, Shift: 0, Mask: 1},
	}, card.Components[0])
	assert.Equal(t, &config.RegisterField{Address: 0x10, Shift: 1, Mask: 1, Invert: true}, card.Components[1].Register)
	assert.Nil(t, card.Components[3].Register)

	require.Len(t, card.Controls, 3)
	sw := card.Controls[0]
	assert.Equal(t, "", sw.Type)
	assert.Equal(t, uint32(1), sw.Max, "max defaults to the field mask")

	mux := card.Controls[1]
	assert.Equal(t, "enum", mux.Type)
	assert.Equal(t, config.RegisterField{Address: 0x20, Shift: 4, Mask: 0x3}, mux.Field)
	assert.Equal(t, []string{"Mic", "Line"}, mux.Texts)
	assert.Equal(t, []uint32{0, 2}, mux.Values)

	vol := card.Controls[2]
	assert.Equal(t, uint32(1), vol.Min)
	assert.Equal(t, uint32(63), vol.Max)

	assert.Equal(t, []*config.Route{
		{Source: "Mic", Sink: "Pga", Control: "Mic Switch"},
		{Source: "Pga", Sink: "Adc"},
	}, card.Routes)

	assert.Equal(t, []*config.Register{{Address: 0x10, Value: 5}}, card.Registers)
	assert.Equal(t, &config.Idle{Enabled: true, PollInterval: 5 * time.Second, StandbyAfter: 30 * time.Second}, card.Idle)
}

func TestLoader_Errors(t *testing.T) {
	load := func(t *testing.T, files map[string]string) error {
		t.Helper()
		_, err := NewLoader().Load(context.Background(), testutil.WriteFiles(t, files))
		return err
	}

	t.Run("syntax error", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `component "mic" {`})
		assert.ErrorContains(t, err, "failed to parse HCL file")
	})

	t.Run("bad register number", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `component "mic" "Mic" { reg = "0xZZ" }`})
		assert.ErrorContains(t, err, `failed to decode component "Mic"`)
		assert.ErrorContains(t, err, "Invalid register number")
	})

	t.Run("negative numbers are rejected", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `register "0x1" { value = -1 }`})
		assert.ErrorContains(t, err, `failed to decode register "0x1"`)
	})

	t.Run("two cards", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `card "a" {}`, "b.hcl": `card "b" {}`})
		assert.ErrorContains(t, err, "already declared")
	})

	t.Run("bad duration", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `idle { sleep_after = "soon" }`})
		assert.ErrorContains(t, err, "sleep_after")
	})

	t.Run("missing required attribute", func(t *testing.T) {
		err := load(t, map[string]string{"a.hcl": `route { source = "Mic" }`})
		assert.ErrorContains(t, err, "failed to decode HCL file")
	})

	t.Run("no files", func(t *testing.T) {
		err := load(t, map[string]string{"readme.md": "hi"})
		assert.ErrorContains(t, err, "no .hcl files found")
	})
}

func TestCtyToUint32(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `
component "mic" "Mic" {
  reg   = 4294967295
  shift = "31"
}
`,
	})
	card, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), card.Components[0].Register.Address)
	assert.Equal(t, uint32(31), card.Components[0].Register.Shift)
	assert.Equal(t, "default", card.Name)
}
