// Package config holds the format-agnostic model of a task grid. Loaders
// (HCL today) translate their syntax into this model; the builder consumes
// it without knowing where it came from.
package config
