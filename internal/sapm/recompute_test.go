package sapm

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/sapmd/internal/config"
	"github.com/specialistvlad/sapmd/internal/regbus"
	"github.com/specialistvlad/sapmd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureChain(t *testing.T) {
	ctx := context.Background()
	g, mem, rec := newMemoryGraph(t, testutil.CaptureCard())

	t.Run("connecting the mic powers the chain up in sequence", func(t *testing.T) {
		require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))

		changes := rec.take()
		for _, c := range changes {
			assert.True(t, c.on)
		}
		order := names(changes)
		assert.Equal(t, []string{"AifOut", "Mic", "Pga", "Adc"}, order)
		assert.Less(t, indexOf(order, "Pga"), indexOf(order, "Adc"))

		assert.Equal(t, uint32(0xF), mem.Value(testutil.PowerReg))
		writes := mem.Writes()
		require.NotEmpty(t, writes)
		assert.Equal(t, regbus.Write{Address: testutil.RoutingReg, Value: 1}, writes[len(writes)-1],
			"the route is opened only after its components are powered")
		requireFixedPoint(t, g)
	})

	t.Run("disconnecting the mic powers the chain down in sequence", func(t *testing.T) {
		require.NoError(t, g.WriteControl(ctx, "Mic Switch", 0))

		changes := rec.take()
		for _, c := range changes {
			assert.False(t, c.on)
		}
		order := names(changes)
		assert.Equal(t, []string{"Adc", "Pga", "Mic", "AifOut"}, order)
		assert.Less(t, indexOf(order, "Adc"), indexOf(order, "Pga"))

		assert.Equal(t, uint32(0), mem.Value(testutil.PowerReg))
		assert.Equal(t, uint32(0), mem.Value(testutil.RoutingReg))
		requireFixedPoint(t, g)
	})

	t.Run("rewriting the same value changes nothing", func(t *testing.T) {
		mem.ResetWrites()
		require.NoError(t, g.WriteControl(ctx, "Mic Switch", 0))
		assert.Empty(t, mem.Writes())
		assert.Empty(t, rec.take())
	})
}

func TestRecompute_Idempotent(t *testing.T) {
	ctx := context.Background()
	g, mem, _ := newMemoryGraph(t, testutil.CaptureCard())
	require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))

	mem.ResetWrites()
	for _, c := range g.Components() {
		require.NoError(t, g.MarkDirty(c.Name))
	}
	first := g.Recompute(ctx)
	second := g.Recompute(ctx)

	assert.Equal(t, 4, first.Evaluated)
	assert.Zero(t, first.PoweredUp+first.PoweredDown)
	assert.Equal(t, 4, first.Powered)
	assert.Equal(t, PassStats{}, second)
	assert.Empty(t, mem.Writes())
}

func TestComponentWithoutRegister(t *testing.T) {
	ctx := context.Background()
	g, mem, rec := newMemoryGraph(t, testutil.PlaybackCard())

	line, ok := g.Component("Line")
	require.True(t, ok)
	assert.True(t, line.Powered, "a line is both source and sink endpoint")
	assert.False(t, line.HasRegister)

	require.NoError(t, g.WriteControl(ctx, "Source", 1))

	assert.Equal(t, []string{"AifIn", "Source Mux", "Dac", "Mixer", "Spk"}, names(rec.take()))
	spk, _ := g.Component("Spk")
	assert.True(t, spk.Powered)

	powerWrites := 0
	for _, w := range mem.Writes() {
		switch w.Address {
		case testutil.PowerReg:
			powerWrites++
		case testutil.RoutingReg:
		default:
			t.Fatalf("unexpected write to %#x", w.Address)
		}
	}
	assert.Equal(t, 2, powerWrites, "only Dac and Mixer own power bits")
	assert.Equal(t, uint32(1<<testutil.DacBit|1<<testutil.MixerBit), mem.Value(testutil.PowerReg))
	assert.Equal(t, uint32(1<<4), mem.Value(testutil.RoutingReg))
	requireFixedPoint(t, g)

	t.Run("switching the mux to line drops the playback side", func(t *testing.T) {
		require.NoError(t, g.WriteControl(ctx, "Source", 2))

		assert.Equal(t, map[string]bool{"Line": true, "Source Mux": true, "Mixer": true, "Spk": true}, poweredSet(g))
		assert.Equal(t, uint32(1<<testutil.MixerBit), mem.Value(testutil.PowerReg))
		assert.Equal(t, uint32(2<<4), mem.Value(testutil.RoutingReg))
		requireFixedPoint(t, g)
	})
}

func TestWriteFailureIsolation(t *testing.T) {
	ctx := context.Background()
	card := testutil.CaptureCard()
	const pgaReg uint32 = 0x11
	card.Components[1].Register.Address = pgaReg

	bus := testutil.NewFlakyBus(regbus.NewMemory(nil))
	g, rec := newTestGraph(t, card, bus)
	bus.FailWrites(pgaReg)

	require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))

	assert.Equal(t, map[string]bool{"Mic": true, "Adc": true, "AifOut": true}, poweredSet(g))
	rec.mu.Lock()
	failure := rec.failures["Pga"]
	last := rec.passes[len(rec.passes)-1]
	rec.mu.Unlock()
	assert.ErrorIs(t, failure, ErrRegisterWriteFailed)
	assert.ErrorIs(t, failure, testutil.ErrInjected)
	assert.Equal(t, 1, last.WriteFailures)
	assert.Equal(t, 3, last.PoweredUp)

	t.Run("failed component is retried on the next tick", func(t *testing.T) {
		bus.Heal()
		g.Tick(ctx)

		pga, _ := g.Component("Pga")
		assert.True(t, pga.Powered)
		requireFixedPoint(t, g)
	})
}

func TestWriteTimeout(t *testing.T) {
	ctx := context.Background()
	card := testutil.CaptureCard()
	const pgaReg uint32 = 0x11
	card.Components[1].Register.Address = pgaReg

	bus := testutil.NewFlakyBus(regbus.NewMemory(nil))
	g, rec := newTestGraph(t, card, bus, WithWriteTimeout(20*time.Millisecond))
	bus.StallWrites(pgaReg)

	require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))

	rec.mu.Lock()
	failure := rec.failures["Pga"]
	rec.mu.Unlock()
	assert.ErrorIs(t, failure, ErrRegisterWriteFailed)
	assert.ErrorIs(t, failure, context.DeadlineExceeded)
	pga, _ := g.Component("Pga")
	assert.False(t, pga.Powered)
}

func TestNotifyStreamActive(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newMemoryGraph(t, testutil.CaptureCard())

	require.NoError(t, g.NotifyStreamActive(ctx, "Adc", true))
	adc, _ := g.Component("Adc")
	assert.True(t, adc.Active)
	assert.True(t, adc.Powered, "a running capture stream holds the adc on while its input path is connected")
	assert.Equal(t, map[string]bool{"Adc": true}, poweredSet(g))

	require.NoError(t, g.NotifyStreamActive(ctx, "Adc", false))
	assert.Empty(t, poweredSet(g))

	err := g.NotifyStreamActive(ctx, "Dsp", true)
	assert.ErrorIs(t, err, ErrUnknownControlBinding)
}

func TestSetPathConnected(t *testing.T) {
	ctx := context.Background()
	g, mem, _ := newMemoryGraph(t, testutil.CaptureCard())

	require.NoError(t, g.SetPathConnected(ctx, "Mic", "Pga", true))
	assert.Len(t, poweredSet(g), 4)
	assert.Equal(t, uint32(0), mem.Value(testutil.RoutingReg), "the control register is left alone")

	err := g.SetPathConnected(ctx, "Pga", "Adc", false)
	assert.ErrorIs(t, err, ErrUnknownControlBinding, "static paths cannot be switched")

	err = g.SetPathConnected(ctx, "Mic", "Adc", true)
	assert.ErrorIs(t, err, ErrUnknownControlBinding)
}

func TestMarkDirty_Unknown(t *testing.T) {
	g, _, _ := newMemoryGraph(t, testutil.CaptureCard())
	assert.ErrorIs(t, g.MarkDirty("Nope"), ErrUnknownControlBinding)
}

func TestCanceledCallerContext(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("a pass still commits every transition", func(t *testing.T) {
		g, mem, rec := newMemoryGraph(t, testutil.CaptureCard())

		require.NoError(t, g.SetPathConnected(canceled, "Mic", "Pga", true))
		assert.Len(t, poweredSet(g), 4)
		assert.Equal(t, uint32(0xF), mem.Value(testutil.PowerReg))
		rec.mu.Lock()
		assert.Empty(t, rec.failures)
		rec.mu.Unlock()
	})

	t.Run("control writes reach the register", func(t *testing.T) {
		g, mem, _ := newMemoryGraph(t, testutil.CaptureCard())

		require.NoError(t, g.WriteControl(canceled, "Mic Switch", 1))
		assert.Len(t, poweredSet(g), 4)
		assert.Equal(t, uint32(1), mem.Value(testutil.RoutingReg))
	})

	t.Run("waking a sleeping card restores power", func(t *testing.T) {
		ctx := context.Background()
		g, clock, _, _ := newIdleGraph(t, IdleConfig{Enabled: true, StandbyNow: true, SleepAfter: time.Second})
		require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))
		require.Equal(t, IdleStandby, g.Tick(ctx))
		clock.Advance(2 * time.Second)
		require.Equal(t, IdleSleep, g.Tick(ctx))

		g.NotifyActivity(canceled)
		assert.Equal(t, IdleActive, g.IdleStatus().State)
		assert.Len(t, poweredSet(g), 4)
	})
}

// dualCaptureCard has two microphones, each behind its own PGA, selected by
// the "Capture Mux" enum into one ADC.
func dualCaptureCard() *config.Card {
	bit := func(shift uint32) *config.RegisterField {
		return &config.RegisterField{Address: testutil.PowerReg, Shift: shift, Mask: 1}
	}
	return &config.Card{
		Name: "dual",
		Components: []*config.Component{
			{Kind: "mic", Name: "MicA", Register: bit(0)},
			{Kind: "mic", Name: "MicB", Register: bit(1)},
			{Kind: "pga", Name: "PgaA", Register: bit(2)},
			{Kind: "pga", Name: "PgaB", Register: bit(3)},
			{Kind: "mux", Name: "Capture Mux"},
			{Kind: "adc", Name: "Adc", Register: bit(4)},
			{Kind: "aif_out", Name: "AifOut", Register: bit(5)},
		},
		Controls: []*config.Control{
			{
				Name:  "Capture Mux",
				Type:  "enum",
				Field: config.RegisterField{Address: testutil.RoutingReg, Mask: 1},
				Texts: []string{"PgaA", "PgaB"},
			},
		},
		Routes: []*config.Route{
			{Source: "MicA", Sink: "PgaA"},
			{Source: "MicB", Sink: "PgaB"},
			{Source: "PgaA", Sink: "Capture Mux", Control: "Capture Mux"},
			{Source: "PgaB", Sink: "Capture Mux", Control: "Capture Mux"},
			{Source: "Capture Mux", Sink: "Adc"},
			{Source: "Adc", Sink: "AifOut"},
		},
	}
}

func TestMuxSwitch_DownBeforeUp(t *testing.T) {
	ctx := context.Background()
	g, _, rec := newMemoryGraph(t, dualCaptureCard())
	require.Equal(t, map[string]bool{"MicA": true, "PgaA": true, "Capture Mux": true, "Adc": true, "AifOut": true}, poweredSet(g))
	rec.take()

	require.NoError(t, g.WriteControl(ctx, "Capture Mux", 1))

	changes := rec.take()
	assert.Equal(t, []powerChange{
		{name: "PgaA", on: false},
		{name: "MicA", on: false},
		{name: "MicB", on: true},
		{name: "PgaB", on: true},
	}, changes)

	firstUp := len(changes)
	for i, c := range changes {
		if c.on {
			firstUp = i
			break
		}
	}
	for _, c := range changes[firstUp:] {
		assert.True(t, c.on, "%s powered down after the first power-up", c.name)
	}
	assert.Equal(t, map[string]bool{"MicB": true, "PgaB": true, "Capture Mux": true, "Adc": true, "AifOut": true}, poweredSet(g))
	requireFixedPoint(t, g)
}
