// Package api exposes a power graph over a small JSON HTTP interface:
// component and control inspection, control writes, stream notifications
// and idle monitor management.
package api
