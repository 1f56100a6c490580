// Package registry loads and merges the cluster catalog documents: the
// shipped base catalog and the user's sparse overrides. The merged registry
// is the read-only source of truth consulted before any credentials are
// obtained.
package registry
