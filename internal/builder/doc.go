// Package builder turns a loaded grid model into launched scheduler nodes.
// It validates the model first (known kinds, known dependencies, no cycles,
// unique names), then launches one node per task in dependency order so
// every prerequisite handle exists before its dependents reference it.
package builder
