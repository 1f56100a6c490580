package kubeconfig

import (
	"bytes"
	"errors"
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// ErrEmptyBundle marks obtain output without a single cluster endpoint.
var ErrEmptyBundle = errors.New("bundle contains no cluster endpoint")

// ParseBundle parses raw obtain output into a kubeconfig-shaped bundle and
// enforces the structural minimum: a usable bundle carries at least one
// cluster endpoint. Anything less is a hard failure for the entry that
// produced it.
func ParseBundle(raw []byte) (*clientcmdapi.Config, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrEmptyBundle)
	}
	cfg, err := clientcmd.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundle: %w", err)
	}
	if len(cfg.Clusters) == 0 {
		return nil, ErrEmptyBundle
	}
	return cfg, nil
}
