// Package kubeconfig turns per-cluster obtain commands into one combined,
// multi-context credential store. It parses raw bundles, applies user
// identity overrides, renames contexts to their anchors, and writes the
// assembled store with an atomic replace.
package kubeconfig
