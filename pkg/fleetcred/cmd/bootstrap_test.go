/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
)

// fleetFixture lays out a base catalog with anchors a, b and c. a and b serve
// real bundles through cat, c emits nothing and so never yields a usable
// bundle.
type fleetFixture struct {
	basePath      string
	overridesPath string
	storePath     string
	dir           string
}

func newFleetFixture(t *testing.T) fleetFixture {
	t.Helper()
	dir := t.TempDir()
	bundleA := writeTestBundle(t, dir, "cluster-a", "user-a", "arn:aws:eks:eu-central-1:111122223333:cluster/a")
	bundleB := writeTestBundle(t, dir, "cluster-b", "user-b", "gke_acme_europe-west4_b")

	base := fmt.Sprintf(`clusters:
  - anchor: a
    metadata:
      provider: aws
      description: production EU
      keywords: [prod, eu]
    obtain: ["cat", %q]
  - anchor: b
    metadata:
      provider: gcp
    obtain: ["cat", %q]
  - anchor: c
    metadata:
      provider: aws
    obtain: ["true"]
`, bundleA, bundleB)

	overrides := `clusters:
  - anchor: a
    override:
      identities:
        - name: user-a
          credentialFetch:
            command: token-helper
            args: ["--cluster", "a"]
  - anchor: c
    override:
      identities:
        - name: user-c
          credentialFetch:
            command: token-helper
`

	return fleetFixture{
		basePath:      writeTestFile(t, dir, "base.yaml", base),
		overridesPath: writeTestFile(t, dir, "overrides.yaml", overrides),
		storePath:     filepath.Join(dir, "store", "store.yaml"),
		dir:           dir,
	}
}

func (f fleetFixture) args(sub ...string) []string {
	return append(sub,
		"--base-catalog", f.basePath,
		"--overrides", f.overridesPath,
		"--store", f.storePath,
	)
}

func TestBootstrap_PartialFailure(t *testing.T) {
	fx := newFleetFixture(t)
	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)

	tr.root.SetArgs(fx.args("bootstrap"))
	err := tr.root.Execute()
	require.NoError(t, err, "one assembled cluster is a successful run")

	assert.Contains(t, buf.String(), "1 configured, 0 skipped, 1 failed, 0 warnings")
	assert.Contains(t, buf.String(), "Wrote credential store to "+fx.storePath)

	store, err := clientcmd.LoadFromFile(fx.storePath)
	require.NoError(t, err)
	require.Len(t, store.Contexts, 1)
	require.Contains(t, store.Contexts, "a", "the assembled context is renamed to the anchor")
	assert.Equal(t, "a", store.CurrentContext)

	authInfo := store.AuthInfos["user-a"]
	require.NotNil(t, authInfo)
	require.NotNil(t, authInfo.Exec, "the identity override replaces the credential fetch")
	assert.Equal(t, "token-helper", authInfo.Exec.Command)
	assert.Equal(t, []string{"--cluster", "a"}, authInfo.Exec.Args)
}

func TestBootstrap_RunAlias(t *testing.T) {
	fx := newFleetFixture(t)
	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)

	tr.root.SetArgs(fx.args("run"))
	err := tr.root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 configured")
}

func TestBootstrap_AllObtainsFailing(t *testing.T) {
	fx := newFleetFixture(t)
	onlyC := writeTestFile(t, fx.dir, "only-c.yaml", `clusters:
  - anchor: c
    override:
      identities:
        - name: user-c
          credentialFetch:
            command: token-helper
`)

	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)
	tr.root.SetArgs([]string{
		"bootstrap",
		"--base-catalog", fx.basePath,
		"--overrides", onlyC,
		"--store", fx.storePath,
	})
	err := tr.root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cluster credentials could be assembled")
	assert.Contains(t, buf.String(), "0 configured, 0 skipped, 1 failed, 0 warnings")
}

func TestBootstrap_NothingConfigured(t *testing.T) {
	fx := newFleetFixture(t)
	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)

	tr.root.SetArgs([]string{
		"bootstrap",
		"--base-catalog", fx.basePath,
		"--store", fx.storePath,
	})
	err := tr.root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clusters are configured")
}

func TestBootstrap_MissingBaseCatalog(t *testing.T) {
	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)

	tr.root.SetArgs([]string{"bootstrap"})
	err := tr.root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "base catalog source is not configured")
}

func TestBootstrap_UnknownOverrideAnchorWarns(t *testing.T) {
	fx := newFleetFixture(t)
	withGhost := writeTestFile(t, fx.dir, "ghost.yaml", `clusters:
  - anchor: a
    override:
      identities:
        - name: user-a
          credentialFetch:
            command: token-helper
  - anchor: ghost
    override:
      identities:
        - name: user-ghost
          credentialFetch:
            command: token-helper
`)

	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)
	tr.root.SetArgs([]string{
		"bootstrap",
		"--base-catalog", fx.basePath,
		"--overrides", withGhost,
		"--store", fx.storePath,
	})
	err := tr.root.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 configured, 0 skipped, 0 failed, 1 warnings")
}

func TestBootstrap_RunLog(t *testing.T) {
	fx := newFleetFixture(t)
	runLogPath := filepath.Join(fx.dir, "runs.jsonl")

	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)
	tr.root.SetArgs(fx.args("bootstrap", "--run-log", runLogPath))
	err := tr.root.Execute()
	require.NoError(t, err)

	raw, err := os.ReadFile(runLogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3, "one record per candidate plus the summary")

	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "every line is standalone JSON")
		assert.NotEmpty(t, rec["runID"])
	}

	var sum map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &sum))
	assert.Equal(t, "summary", sum["state"])
}

func TestBootstrap_StoreIsRebuiltBetweenRuns(t *testing.T) {
	fx := newFleetFixture(t)

	runWith := func(overridesPath string) {
		buf := &bytes.Buffer{}
		tr := newTestRoot(t, buf)
		tr.root.SetArgs([]string{
			"bootstrap",
			"--base-catalog", fx.basePath,
			"--overrides", overridesPath,
			"--store", fx.storePath,
		})
		require.NoError(t, tr.root.Execute())
	}

	both := writeTestFile(t, fx.dir, "both.yaml", `clusters:
  - anchor: a
    override:
      identities:
        - name: user-a
          credentialFetch:
            command: token-helper
  - anchor: b
    override:
      identities:
        - name: user-b
          credentialFetch:
            command: token-helper
`)
	onlyB := writeTestFile(t, fx.dir, "only-b.yaml", `clusters:
  - anchor: b
    override:
      identities:
        - name: user-b
          credentialFetch:
            command: token-helper
`)

	runWith(both)
	store, err := clientcmd.LoadFromFile(fx.storePath)
	require.NoError(t, err)
	require.Len(t, store.Contexts, 2)

	runWith(onlyB)
	store, err = clientcmd.LoadFromFile(fx.storePath)
	require.NoError(t, err)
	require.Len(t, store.Contexts, 1)
	assert.Contains(t, store.Contexts, "b")
	assert.NotContains(t, store.Contexts, "a", "dropped entries must not survive a rerun")
}

func TestBootstrap_ConcurrencyFlag(t *testing.T) {
	fx := newFleetFixture(t)
	buf := &bytes.Buffer{}
	tr := newTestRoot(t, buf)

	tr.root.SetArgs(fx.args("bootstrap", "--concurrency", "4"))
	err := tr.root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 configured")
}
