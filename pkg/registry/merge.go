package registry

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
)

// Merge combines the base catalog with the user overrides into one registry.
//
// Every override entry must reference an existing base anchor: entries with a
// missing anchor, an unknown anchor, or a repeated anchor are skipped with
// one warning each and their base entry stays untouched. Matching entries are
// deep-merged into a copy of the base entry, with collections replaced
// wholesale rather than appended. Merge is a pure function over its inputs;
// with empty overrides the result equals base.
//
// A base catalog with duplicate or missing anchors is ambiguous and fails the
// merge outright.
func Merge(base, overrides Document) (*Registry, []Warning, error) {
	reg, err := New(base.Clusters)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	seen := make(map[string]bool, len(overrides.Clusters))

	for i, ov := range overrides.Clusters {
		anchor := strings.TrimSpace(ov.Anchor)
		if anchor == "" {
			warnings = append(warnings, Warning{
				Reason: fmt.Sprintf("override entry %d has no anchor", i),
			})
			continue
		}
		idx, ok := reg.index[anchor]
		if !ok {
			warnings = append(warnings, Warning{
				Anchor: anchor,
				Reason: "anchor not present in base catalog",
			})
			continue
		}
		if seen[anchor] {
			warnings = append(warnings, Warning{
				Anchor: anchor,
				Reason: "duplicate override entry, keeping the first",
			})
			continue
		}
		seen[anchor] = true

		merged := reg.entries[idx].Clone()
		src := ov.Clone()
		src.Anchor = anchor
		if err := mergo.Merge(&merged, src, mergo.WithOverride); err != nil {
			return nil, nil, fmt.Errorf("failed to merge override for %s: %w", anchor, err)
		}
		reg.entries[idx] = merged
	}

	return reg, warnings, nil
}
