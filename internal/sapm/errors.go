package sapm

import "errors"

var (
	// ErrInvalidTopology is returned when the card description references
	// components, controls or registers that do not exist or are malformed.
	// It is fatal: the graph is not constructed.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrRegisterWriteFailed marks a failed or timed-out register access while
	// committing a power transition. It is isolated to one component.
	ErrRegisterWriteFailed = errors.New("register write failed")

	// ErrUnknownControlBinding is returned when a write targets a control,
	// path or component that is not part of the graph.
	ErrUnknownControlBinding = errors.New("unknown control binding")

	// ErrInvalidControlValue is returned when a control write is out of range.
	ErrInvalidControlValue = errors.New("invalid control value")
)
