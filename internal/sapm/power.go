package sapm

// powerCheck decides the desired power of one component.
type powerCheck func(c *Component) bool

// powerChecks holds the kinds with a dedicated rule. Every other kind falls
// back to the generic complete-path rule.
var powerChecks = [kindCount]powerCheck{
	KindAdc:    capturePower,
	KindAifOut: capturePower,
	KindDac:    playbackPower,
	KindAifIn:  playbackPower,
}

// DesiredPower evaluates the power rule for c's kind against the current
// connect flags and stream activity.
func DesiredPower(c *Component) bool {
	if c.Kind >= 0 && c.Kind < kindCount {
		if check := powerChecks[c.Kind]; check != nil {
			return check(c)
		}
	}
	return genericPower(c)
}

func genericPower(c *Component) bool {
	return OnCompletePath(c)
}

// capturePower keeps a running capture stream on while any incoming path is
// connected, even if nothing upstream reaches a source endpoint.
func capturePower(c *Component) bool {
	if !c.active {
		return genericPower(c)
	}
	return anyConnected(c.sources)
}

// playbackPower keeps a running playback stream on while any outgoing path
// is connected.
func playbackPower(c *Component) bool {
	if !c.active {
		return genericPower(c)
	}
	return anyConnected(c.sinks)
}

func anyConnected(paths []*Path) bool {
	for _, p := range paths {
		if p.connected {
			return true
		}
	}
	return false
}
