package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/telekom/k8s-fleetcred/pkg/registry"
)

// loadRegistry fetches the base catalog and override document from the
// resolved sources and merges them.
func loadRegistry(ctx context.Context, rt *runtimeState, logger *zap.SugaredLogger) (*registry.Registry, []registry.Warning, error) {
	loader := registry.NewLoader(logger)
	base, err := loader.LoadBase(ctx, rt.BaseCatalog())
	if err != nil {
		return nil, nil, err
	}
	overrides, err := loader.LoadOverrides(ctx, rt.OverridesSource())
	if err != nil {
		return nil, nil, err
	}
	return registry.Merge(base, overrides)
}

func logWarnings(logger *zap.SugaredLogger, warnings []registry.Warning) {
	for _, w := range warnings {
		logger.Warnw("registry merge warning", "anchor", w.Anchor, "reason", w.Reason)
	}
}
