package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get for anchors absent from the registry.
	ErrNotFound = errors.New("cluster entry not found")
	// ErrDuplicateAnchor is returned when a source document defines the same
	// anchor twice.
	ErrDuplicateAnchor = errors.New("duplicate anchor")
)

// Registry is the merged, ordered collection of cluster entries. It is a
// read-only projection: queries never touch the assembled store and never
// invoke external commands.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds a registry from catalog entries, preserving their order. Every
// entry must carry a unique, non-empty anchor; the base catalog is loaded
// data, so an ambiguous catalog is an error rather than a panic.
func New(entries []Entry) (*Registry, error) {
	reg := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		anchor := strings.TrimSpace(entry.Anchor)
		if anchor == "" {
			return nil, fmt.Errorf("base catalog entry %d has no anchor", i)
		}
		if _, exists := reg.index[anchor]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAnchor, anchor)
		}
		entry.Anchor = anchor
		reg.index[anchor] = len(reg.entries)
		reg.entries = append(reg.entries, entry)
	}
	return reg, nil
}

// List returns every entry in catalog order.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ListConfigured returns only the entries whose merged override is non-empty.
// The result is always a subset of List.
func (r *Registry) ListConfigured() []Entry {
	var out []Entry
	for _, entry := range r.entries {
		if entry.Configured() {
			out = append(out, entry)
		}
	}
	return out
}

// Get returns the entry for the anchor, or an error wrapping ErrNotFound.
// Callers are expected to fall back to List to present valid anchors.
func (r *Registry) Get(anchor string) (Entry, error) {
	idx, ok := r.index[strings.TrimSpace(anchor)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, anchor)
	}
	return r.entries[idx], nil
}

// Anchors returns all anchors in catalog order.
func (r *Registry) Anchors() []string {
	out := make([]string, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.Anchor
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// FilterOptions narrows a listing. Zero values match everything.
type FilterOptions struct {
	// Provider matches the metadata provider classification, case-insensitively.
	Provider string
	// Keyword matches any metadata keyword, case-insensitively.
	Keyword string
	// ConfiguredOnly drops unconfigured entries.
	ConfiguredOnly bool
}

// Filter returns the entries matching opts, in catalog order.
func (r *Registry) Filter(opts FilterOptions) []Entry {
	var out []Entry
	for _, entry := range r.entries {
		if opts.ConfiguredOnly && !entry.Configured() {
			continue
		}
		if opts.Provider != "" && !strings.EqualFold(entry.Metadata.Provider, opts.Provider) {
			continue
		}
		if opts.Keyword != "" && !entry.HasKeyword(opts.Keyword) {
			continue
		}
		out = append(out, entry)
	}
	return out
}
