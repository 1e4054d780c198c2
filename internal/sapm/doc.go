// Package sapm implements the audio power-domain dependency graph.
//
// A Graph holds the components of one audio card and the paths between
// them. A component is powered only while it sits on a complete route from
// a source endpoint (DAC, microphone, line in) to a sink endpoint (ADC,
// speaker, headphone). Control writes and stream notifications flip path
// connect flags or activity overrides, mark the affected components dirty
// and recompute. Resulting transitions are committed through a RegisterBus
// in fixed per-kind order: all power-downs first, then all power-ups.
//
// An idle monitor collapses the card to standby and then to sleep after
// periods of inactivity, and restores the previous power set on the next
// activity.
package sapm
