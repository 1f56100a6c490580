package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseCatalog() Document {
	return Document{Clusters: []Entry{
		{
			Anchor: "a",
			Metadata: Metadata{
				Description: "Production EU",
				Keywords:    []string{"prod", "eu"},
				Provider:    "aws",
			},
			Obtain:   []string{"aws", "eks", "update-kubeconfig", "--name", "a"},
			Override: &Override{},
		},
		{
			Anchor:   "b",
			Metadata: Metadata{Description: "Staging", Provider: "gcp"},
			Obtain:   []string{"gcloud", "container", "clusters", "get-credentials", "b"},
			Override: &Override{},
		},
		{
			Anchor: "c",
			Obtain: []string{"aws", "eks", "update-kubeconfig", "--name", "c"},
		},
	}}
}

func userOverride(anchor, identity string) Entry {
	return Entry{
		Anchor: anchor,
		Override: &Override{
			Identities: []IdentityOverride{{
				Name: identity,
				CredentialFetch: &CredentialFetch{
					APIVersion: "client.authentication.k8s.io/v1beta1",
					Command:    "fleet-login",
					Args:       []string{"--cluster", anchor},
				},
			}},
		},
	}
}

func TestMergeEmptyOverridesEqualsBase(t *testing.T) {
	base := baseCatalog()

	reg, warnings, err := Merge(base, Document{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, base.Clusters, reg.List())
	assert.Equal(t, []string{"a", "b", "c"}, reg.Anchors())
}

func TestMergeAppliesOverride(t *testing.T) {
	overrides := Document{Clusters: []Entry{userOverride("a", "fleet-user")}}

	reg, warnings, err := Merge(baseCatalog(), overrides)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	entry, err := reg.Get("a")
	require.NoError(t, err)
	require.True(t, entry.Configured())
	require.Len(t, entry.Override.Identities, 1)
	assert.Equal(t, "fleet-user", entry.Override.Identities[0].Name)
	assert.Equal(t, "fleet-login", entry.Override.Identities[0].CredentialFetch.Command)

	// Base-only fields survive the merge untouched.
	assert.Equal(t, "Production EU", entry.Metadata.Description)
	assert.Equal(t, []string{"aws", "eks", "update-kubeconfig", "--name", "a"}, entry.Obtain)

	// Entries without an override stay at their base state.
	b, err := reg.Get("b")
	require.NoError(t, err)
	assert.False(t, b.Configured())
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := baseCatalog()
	overrides := Document{Clusters: []Entry{userOverride("a", "fleet-user")}}

	_, _, err := Merge(base, overrides)
	require.NoError(t, err)

	assert.Equal(t, baseCatalog(), base, "base document must stay untouched")
	require.Len(t, overrides.Clusters[0].Override.Identities, 1)
	assert.Equal(t, "fleet-user", overrides.Clusters[0].Override.Identities[0].Name)
}

func TestMergeSkipsEntryWithoutAnchor(t *testing.T) {
	overrides := Document{Clusters: []Entry{
		{Anchor: "  ", Override: &Override{Identities: []IdentityOverride{{Name: "x"}}}},
		userOverride("a", "fleet-user"),
	}}

	reg, warnings, err := Merge(baseCatalog(), overrides)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, "no anchor")

	entry, err := reg.Get("a")
	require.NoError(t, err)
	assert.True(t, entry.Configured())
}

func TestMergeRejectsUnknownAnchor(t *testing.T) {
	overrides := Document{Clusters: []Entry{userOverride("z", "fleet-user")}}

	reg, warnings, err := Merge(baseCatalog(), overrides)
	require.NoError(t, err)

	require.Len(t, warnings, 1, "exactly one warning per unknown anchor")
	assert.Equal(t, "z", warnings[0].Anchor)

	assert.Equal(t, []string{"a", "b", "c"}, reg.Anchors(), "unknown anchors are never created")
	_, err = reg.Get("z")
	assert.ErrorIs(t, err, ErrNotFound)
	for _, entry := range reg.List() {
		assert.NotEqual(t, "z", entry.Anchor)
	}
}

func TestMergeDuplicateOverrideKeepsFirst(t *testing.T) {
	overrides := Document{Clusters: []Entry{
		userOverride("a", "first"),
		userOverride("a", "second"),
	}}

	reg, warnings, err := Merge(baseCatalog(), overrides)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "a", warnings[0].Anchor)
	assert.Contains(t, warnings[0].Reason, "duplicate")

	entry, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "first", entry.Override.Identities[0].Name)
}

func TestMergeRejectsDuplicateBaseAnchors(t *testing.T) {
	base := Document{Clusters: []Entry{
		{Anchor: "a", Obtain: []string{"cmd"}},
		{Anchor: "a", Obtain: []string{"cmd"}},
	}}

	_, _, err := Merge(base, Document{})
	require.ErrorIs(t, err, ErrDuplicateAnchor)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestMergeRejectsBaseEntryWithoutAnchor(t *testing.T) {
	base := Document{Clusters: []Entry{{Obtain: []string{"cmd"}}}}

	_, _, err := Merge(base, Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no anchor")
}

func TestMergeReplacesCollectionsWholesale(t *testing.T) {
	base := Document{Clusters: []Entry{{
		Anchor: "a",
		Obtain: []string{"aws", "eks", "update-kubeconfig", "--name", "a"},
		Override: &Override{Identities: []IdentityOverride{
			{Name: "stale-one"},
			{Name: "stale-two"},
		}},
	}}}
	overrides := Document{Clusters: []Entry{{
		Anchor:   "a",
		Obtain:   []string{"custom-obtain"},
		Override: &Override{Identities: []IdentityOverride{{Name: "fresh"}}},
	}}}

	reg, warnings, err := Merge(base, overrides)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	entry, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"custom-obtain"}, entry.Obtain, "argv replaced, not appended")
	require.Len(t, entry.Override.Identities, 1, "identity list replaced, not appended")
	assert.Equal(t, "fresh", entry.Override.Identities[0].Name)
}

func TestMergeAnchorUniqueness(t *testing.T) {
	overrides := Document{Clusters: []Entry{
		userOverride("a", "one"),
		userOverride("c", "two"),
	}}

	reg, _, err := Merge(baseCatalog(), overrides)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, entry := range reg.List() {
		counts[entry.Anchor]++
	}
	for anchor, n := range counts {
		assert.Equal(t, 1, n, "anchor %s must appear exactly once", anchor)
	}
}
