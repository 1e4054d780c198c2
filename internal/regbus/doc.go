// Package regbus provides register bus implementations for the power graph:
// an in-memory codec register file and a circuit-breaker wrapper that stops
// hammering a bus that keeps failing.
package regbus
