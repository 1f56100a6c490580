// Package cmd implements the cobra command tree for the fleetcred CLI,
// including the bootstrap pipeline, registry inspection, configuration
// management, and shell completion.
package cmd
