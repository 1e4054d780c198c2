// Package app wires one sapmd instance together: the logger, the card
// loader, the register bus, the power graph with its idle monitor, metrics
// and the HTTP API. It is decoupled from any specific entrypoint like a CLI.
package app
