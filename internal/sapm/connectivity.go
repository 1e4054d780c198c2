package sapm

// ReachableSources counts the source endpoints reachable from c by walking
// connected paths upstream. A source endpoint counts itself. Each component
// is visited at most once per call, so feedback loops terminate.
func ReachableSources(c *Component) int {
	return countSources(c, make(map[*Component]struct{}))
}

// ReachableSinks is the downstream counterpart of ReachableSources.
func ReachableSinks(c *Component) int {
	return countSinks(c, make(map[*Component]struct{}))
}

func countSources(c *Component, visited map[*Component]struct{}) int {
	if IsSourceEndpoint(c.Kind) {
		return 1
	}
	if _, seen := visited[c]; seen {
		return 0
	}
	visited[c] = struct{}{}

	n := 0
	for _, p := range c.sources {
		if p.connected {
			n += countSources(p.Source, visited)
		}
	}
	return n
}

func countSinks(c *Component, visited map[*Component]struct{}) int {
	if IsSinkEndpoint(c.Kind) {
		return 1
	}
	if _, seen := visited[c]; seen {
		return 0
	}
	visited[c] = struct{}{}

	n := 0
	for _, p := range c.sinks {
		if p.connected {
			n += countSinks(p.Sink, visited)
		}
	}
	return n
}

// OnCompletePath reports whether c sits between a reachable source endpoint
// and a reachable sink endpoint.
func OnCompletePath(c *Component) bool {
	return ReachableSources(c) > 0 && ReachableSinks(c) > 0
}
