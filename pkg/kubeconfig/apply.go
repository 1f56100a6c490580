package kubeconfig

import (
	"strings"

	"go.uber.org/zap"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/telekom/k8s-fleetcred/pkg/registry"
)

// ApplyOverride substitutes the entry's identity overrides into the bundle
// and renames the bundle's current context to the entry's anchor. Both steps
// are tolerant: an override identity absent from the bundle and a bundle
// without a discoverable current context are warnings, not failures, and the
// bundle stays mergeable.
func ApplyOverride(bundle *clientcmdapi.Config, entry registry.Entry, logger *zap.SugaredLogger) *clientcmdapi.Config {
	if entry.Override != nil {
		for _, id := range entry.Override.Identities {
			name := strings.TrimSpace(id.Name)
			if name == "" {
				continue
			}
			authInfo, ok := bundle.AuthInfos[name]
			if !ok {
				logger.Warnw("override identity not present in bundle, override has no effect",
					"anchor", entry.Anchor, "identity", name)
				continue
			}
			authInfo.Exec = execConfig(id.CredentialFetch)
			if authInfo.Exec != nil {
				// Bearer and basic credentials take precedence over an exec
				// plugin at connection time, so a leftover static credential
				// would silently undo the replacement.
				authInfo.Token = ""
				authInfo.TokenFile = ""
				authInfo.Username = ""
				authInfo.Password = ""
				authInfo.AuthProvider = nil
			}
			logger.Debugw("replaced credential fetch", "anchor", entry.Anchor, "identity", name)
		}
	}

	renameCurrentContext(bundle, entry.Anchor, logger)
	return bundle
}

// execConfig converts the catalog's credential-fetch shape into the exec
// credential plugin stanza of a kubeconfig user entry.
func execConfig(fetch *registry.CredentialFetch) *clientcmdapi.ExecConfig {
	if fetch == nil {
		return nil
	}
	apiVersion := fetch.APIVersion
	if apiVersion == "" {
		apiVersion = "client.authentication.k8s.io/v1beta1"
	}
	ec := &clientcmdapi.ExecConfig{
		APIVersion:         apiVersion,
		Command:            fetch.Command,
		Args:               append([]string(nil), fetch.Args...),
		InstallHint:        fetch.InstallHint,
		ProvideClusterInfo: fetch.ProvideClusterInfo,
		InteractiveMode:    clientcmdapi.NeverExecInteractiveMode,
	}
	for _, env := range fetch.Env {
		ec.Env = append(ec.Env, clientcmdapi.ExecEnvVar{Name: env.Name, Value: env.Value})
	}
	return ec
}

// renameCurrentContext re-keys the bundle's current context under the anchor
// so every context in the combined store is named by its anchor, regardless
// of what the obtain command called it (cloud ARNs, opaque IDs). Obtain
// commands that set no current context keep their original naming.
func renameCurrentContext(bundle *clientcmdapi.Config, anchor string, logger *zap.SugaredLogger) {
	current := bundle.CurrentContext
	if current == "" {
		logger.Warnw("bundle has no current context, keeping original context names", "anchor", anchor)
		return
	}
	ctx, ok := bundle.Contexts[current]
	if !ok {
		logger.Warnw("current context missing from bundle, keeping original context names",
			"anchor", anchor, "context", current)
		return
	}
	if current == anchor {
		return
	}
	delete(bundle.Contexts, current)
	bundle.Contexts[anchor] = ctx
	bundle.CurrentContext = anchor
}
