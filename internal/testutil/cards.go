package testutil

import "github.com/specialistvlad/sapmd/internal/config"

// Register addresses used by the fixture cards.
const (
	PowerReg   uint32 = 0x10
	RoutingReg uint32 = 0x20
	VolumeReg  uint32 = 0x30
)

// Bit positions of the fixture components inside PowerReg.
const (
	MicBit uint32 = iota
	PgaBit
	AdcBit
	AifOutBit
	DacBit
	MixerBit
	SpkBit
	MicBiasBit
)

func powerBit(shift uint32) *config.RegisterField {
	return &config.RegisterField{Address: PowerReg, Shift: shift, Mask: 1}
}

// CaptureCard is a capture chain Mic -> Pga -> Adc -> AifOut. The Mic -> Pga
// route is gated by the "Mic Switch" control at RoutingReg bit 0, so it
// starts disconnected on a zeroed register file.
func CaptureCard() *config.Card {
	return &config.Card{
		Name: "capture",
		Components: []*config.Component{
			{Kind: "mic", Name: "Mic", Register: powerBit(MicBit)},
			{Kind: "pga", Name: "Pga", Register: powerBit(PgaBit)},
			{Kind: "adc", Name: "Adc", Register: powerBit(AdcBit)},
			{Kind: "aif_out", Name: "AifOut", Register: powerBit(AifOutBit)},
		},
		Controls: []*config.Control{
			{Name: "Mic Switch", Type: "switch", Field: config.RegisterField{Address: RoutingReg, Shift: 0, Mask: 1}, Max: 1},
		},
		Routes: []*config.Route{
			{Source: "Mic", Sink: "Pga", Control: "Mic Switch"},
			{Source: "Pga", Sink: "Adc"},
			{Source: "Adc", Sink: "AifOut"},
		},
	}
}

// PlaybackCard is a playback chain AifIn -> Dac -> Mixer -> Spk where Spk
// has no register of its own. A "Source" mux on RoutingReg bits 4-5 picks
// between Dac and Line into the mixer, and "Volume" is a plain field.
func PlaybackCard() *config.Card {
	return &config.Card{
		Name: "playback",
		Components: []*config.Component{
			{Kind: "aif_in", Name: "AifIn"},
			{Kind: "dac", Name: "Dac", Register: powerBit(DacBit)},
			{Kind: "line", Name: "Line"},
			{Kind: "mux", Name: "Source Mux"},
			{Kind: "mixer", Name: "Mixer", Register: powerBit(MixerBit)},
			{Kind: "spk", Name: "Spk"},
		},
		Controls: []*config.Control{
			{
				Name:  "Source",
				Type:  "enum",
				Field: config.RegisterField{Address: RoutingReg, Shift: 4, Mask: 0x3},
				Texts: []string{"Off", "Dac", "Line"},
			},
			{Name: "Volume", Type: "volume", Field: config.RegisterField{Address: VolumeReg, Shift: 0, Mask: 0x3f}, Max: 63},
		},
		Routes: []*config.Route{
			{Source: "AifIn", Sink: "Dac"},
			{Source: "Dac", Sink: "Source Mux", Control: "Source"},
			{Source: "Line", Sink: "Source Mux", Control: "Source"},
			{Source: "Source Mux", Sink: "Mixer"},
			{Source: "Mixer", Sink: "Spk"},
		},
	}
}
