// Package config defines the format-agnostic card model, along with the
// Loader interface for reading it from configuration sources.
//
// The `config.Card` is the single source of truth for the `sapm` package.
// Concrete loaders, such as for HCL, are provided in separate packages.
package config
