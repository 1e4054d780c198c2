package config

import (
	"context"
)

// Loader is the interface for a format-specific card loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic card model. Multiple files are merged into one card.
	Load(ctx context.Context, paths ...string) (*Card, error)
}
