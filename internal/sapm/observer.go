package sapm

import "time"

// PassStats summarises one recompute pass.
type PassStats struct {
	Evaluated     int
	PoweredUp     int
	PoweredDown   int
	WriteFailures int
	// Powered is the number of powered components after the pass.
	Powered  int
	Duration time.Duration
}

// Observer receives engine events. Calls are made with the graph lock held
// and must not call back into the Graph.
type Observer interface {
	PassCompleted(stats PassStats)
	PowerChanged(c *Component, on bool)
	WriteFailed(c *Component, err error)
	IdleStateChanged(from, to IdleState)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PassCompleted(PassStats) {}
func (NopObserver) PowerChanged(*Component, bool) {}
func (NopObserver) WriteFailed(*Component, error) {}
func (NopObserver) IdleStateChanged(_, _ IdleState) {}
