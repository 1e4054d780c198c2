// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the closed set of component kinds and the data-driven
// tables indexed by them: terminal endpoint classification, power-check
// policy, standby hints and the power-up / power-down sequencing priorities.

package sapm

import (
	"fmt"
	"math"
)

// Kind is the type tag of a Component.
type Kind int

const (
	KindInput Kind = iota
	KindOutput
	KindMux
	KindVirtualMux
	KindValueMux
	KindMixer
	KindNamedMixer
	KindPga
	KindOutputDriver
	KindAdc
	KindDac
	KindMicBias
	KindMic
	KindHeadphone
	KindSpeaker
	KindLine
	KindAnalogSwitch
	KindVmid
	KindPre
	KindPost
	KindSupply
	KindRegulatorSupply
	KindClockSupply
	KindAifIn
	KindAifOut
	KindSignalGenerator
	KindSink

	kindCount
)

var kindNames = [kindCount]string{
	KindInput:           "input",
	KindOutput:          "output",
	KindMux:             "mux",
	KindVirtualMux:      "virtual_mux",
	KindValueMux:        "value_mux",
	KindMixer:           "mixer",
	KindNamedMixer:      "named_mixer",
	KindPga:             "pga",
	KindOutputDriver:    "out_drv",
	KindAdc:             "adc",
	KindDac:             "dac",
	KindMicBias:         "micbias",
	KindMic:             "mic",
	KindHeadphone:       "hp",
	KindSpeaker:         "spk",
	KindLine:            "line",
	KindAnalogSwitch:    "analog_switch",
	KindVmid:            "vmid",
	KindPre:             "pre",
	KindPost:            "post",
	KindSupply:          "supply",
	KindRegulatorSupply: "regulator_supply",
	KindClockSupply:     "clock_supply",
	KindAifIn:           "aif_in",
	KindAifOut:          "aif_out",
	KindSignalGenerator: "siggen",
	KindSink:            "sink",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a configuration name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown component kind %q", s)
}

// runLast is the priority used for kinds that have no sequencing entry.
const runLast = math.MaxInt32

// Power-up priorities. Lower runs first.
var powerUpSeq = map[Kind]int{
	KindPre:          0,
	KindSupply:       1,
	KindMicBias:      2,
	KindAifIn:        3,
	KindAifOut:       3,
	KindMic:          4,
	KindMux:          5,
	KindVirtualMux:   5,
	KindValueMux:     5,
	KindDac:          6,
	KindMixer:        7,
	KindNamedMixer:   7,
	KindPga:          8,
	KindAdc:          9,
	KindOutputDriver: 10,
	KindHeadphone:    10,
	KindSpeaker:      10,
	KindPost:         11,
}

// Power-down priorities. Lower runs first.
var powerDownSeq = map[Kind]int{
	KindPre:          0,
	KindAdc:          1,
	KindHeadphone:    2,
	KindSpeaker:      2,
	KindOutputDriver: 2,
	KindPga:          4,
	KindNamedMixer:   5,
	KindMixer:        5,
	KindDac:          6,
	KindMic:          7,
	KindMicBias:      8,
	KindMux:          9,
	KindVirtualMux:   9,
	KindValueMux:     9,
	KindAifIn:        10,
	KindAifOut:       10,
	KindSupply:       11,
	KindPost:         12,
}

// Priority returns the sequencing priority of a kind for the given direction.
func Priority(k Kind, powerUp bool) int {
	table := powerDownSeq
	if powerUp {
		table = powerUpSeq
	}
	if p, ok := table[k]; ok {
		return p
	}
	return runLast
}

var sourceEndpoints = [kindCount]bool{
	KindDac:   true,
	KindAifIn: true,
	KindInput: true,
	KindMic:   true,
	KindLine:  true,
}

var sinkEndpoints = [kindCount]bool{
	KindAdc:       true,
	KindAifOut:    true,
	KindOutput:    true,
	KindHeadphone: true,
	KindSpeaker:   true,
	KindLine:      true,
}

// IsSourceEndpoint reports whether signal originates at this kind.
func IsSourceEndpoint(k Kind) bool {
	return k >= 0 && k < kindCount && sourceEndpoints[k]
}

// IsSinkEndpoint reports whether signal terminates at this kind.
func IsSinkEndpoint(k Kind) bool {
	return k >= 0 && k < kindCount && sinkEndpoints[k]
}
