package registry

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Document is the on-disk shape shared by the base catalog and the user
// overrides. Both are YAML with a single clusters collection keyed by anchor.
type Document struct {
	Clusters []Entry `json:"clusters,omitempty"`
}

// Entry describes one cluster of the fleet. In the base catalog every field
// may be set; override documents carry only anchor plus the override subtree.
type Entry struct {
	// Anchor uniquely identifies the cluster across both documents and names
	// its context in the assembled store.
	Anchor string `json:"anchor"`
	// Metadata is informational only and never affects pipeline behavior.
	Metadata Metadata `json:"metadata,omitempty"`
	// Obtain is the argv vector whose execution emits the raw credential
	// bundle on stdout. Defined by the base catalog.
	Obtain []string `json:"obtain,omitempty"`
	// ObtainTimeout optionally bounds this entry's obtain invocation ("90s").
	// Empty selects the engine-wide timeout.
	ObtainTimeout string `json:"obtainTimeout,omitempty"`
	// Override carries the user-supplied identity customization. Nil or empty
	// means the entry is unconfigured.
	Override *Override `json:"override,omitempty"`
}

// Metadata holds descriptive fields for discovery.
type Metadata struct {
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Provider    string   `json:"provider,omitempty"`
}

// Override is the user-supplied fragment that makes an entry usable: named
// identity overrides carrying an exec credential-fetch specification.
type Override struct {
	Identities []IdentityOverride `json:"identities,omitempty"`
}

// IdentityOverride rewires one identity of the obtained bundle to fetch its
// credentials through the given exec specification.
type IdentityOverride struct {
	Name            string           `json:"name"`
	CredentialFetch *CredentialFetch `json:"credentialFetch,omitempty"`
}

// CredentialFetch mirrors the exec credential plugin shape of a kubeconfig
// user entry.
type CredentialFetch struct {
	APIVersion         string   `json:"apiVersion,omitempty"`
	Command            string   `json:"command"`
	Args               []string `json:"args,omitempty"`
	Env                []EnvVar `json:"env,omitempty"`
	InstallHint        string   `json:"installHint,omitempty"`
	ProvideClusterInfo bool     `json:"provideClusterInfo,omitempty"`
}

// EnvVar is one environment variable passed to a credential-fetch exec.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Warning reports a non-fatal problem with a single override entry. The
// entry it concerns stays at its base state.
type Warning struct {
	Anchor string `json:"anchor,omitempty"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.Anchor == "" {
		return w.Reason
	}
	return w.Anchor + ": " + w.Reason
}

// Empty reports whether the override carries no usable content. A nil
// override and an explicit empty object are equivalent.
func (o *Override) Empty() bool {
	return o == nil || len(o.Identities) == 0
}

// Configured reports whether the entry's merged override is non-empty.
// Unconfigured entries are enumerable for discovery but never enter the
// pipeline.
func (e Entry) Configured() bool {
	return !e.Override.Empty()
}

// Clone returns a deep copy of the entry, so merges never mutate a source
// document.
func (e Entry) Clone() Entry {
	out := e
	out.Obtain = slices.Clone(e.Obtain)
	out.Metadata.Keywords = slices.Clone(e.Metadata.Keywords)
	if e.Override != nil {
		ov := e.Override.clone()
		out.Override = &ov
	}
	return out
}

func (o Override) clone() Override {
	var out Override
	for _, id := range o.Identities {
		cid := id
		if id.CredentialFetch != nil {
			cf := *id.CredentialFetch
			cf.Args = slices.Clone(cf.Args)
			cf.Env = slices.Clone(cf.Env)
			cid.CredentialFetch = &cf
		}
		out.Identities = append(out.Identities, cid)
	}
	return out
}

// HasKeyword reports whether the entry's metadata carries the keyword,
// case-insensitively.
func (e Entry) HasKeyword(keyword string) bool {
	return slices.ContainsFunc(e.Metadata.Keywords, func(k string) bool {
		return strings.EqualFold(k, keyword)
	})
}
