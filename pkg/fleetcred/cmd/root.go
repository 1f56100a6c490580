package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/config"
	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/output"
	"github.com/telekom/k8s-fleetcred/pkg/ratelimit"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
}

type runtimeState struct {
	configPath        string
	cfg               *config.Config
	outputFormat      string
	baseOverride      string
	overridesOverride string
	storeOverride     string
	debug             bool
	writer            io.Writer
	logger            *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{configPath: cfg.ConfigPath, writer: cfg.OutputWriter}

	root := &cobra.Command{
		Use:          "fleetcred",
		Short:        "Fleet credential bootstrapper",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("FLEETCRED_OUTPUT")
			}
			if rt.baseOverride == "" {
				rt.baseOverride = os.Getenv("FLEETCRED_BASE_CATALOG")
			}
			if rt.overridesOverride == "" {
				rt.overridesOverride = os.Getenv("FLEETCRED_OVERRIDES")
			}
			if rt.storeOverride == "" {
				rt.storeOverride = os.Getenv("FLEETCRED_STORE")
			}
			if !rt.debug {
				rt.debug = strings.EqualFold(os.Getenv("FLEETCRED_DEBUG"), "true")
			}

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "path" {
				return nil
			}

			// The registry sources can be supplied entirely via flags or env
			// vars, so a missing config file is not an error.
			loaded, err := config.Load(rt.configPath)
			if err != nil {
				if os.IsNotExist(err) {
					defaults := config.DefaultConfig()
					rt.cfg = &defaults
				} else {
					return err
				}
			} else {
				if err := loaded.Validate(); err != nil {
					return err
				}
				rt.cfg = loaded
			}

			if format := output.Format(rt.OutputFormat()); !output.Valid(format) {
				return fmt.Errorf("unknown output format: %s", format)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml, wide")
	root.PersistentFlags().StringVar(&rt.baseOverride, "base-catalog", "", "Base catalog path or URL (bypass config)")
	root.PersistentFlags().StringVar(&rt.overridesOverride, "overrides", "", "Override document path or URL (bypass config)")
	root.PersistentFlags().StringVar(&rt.storeOverride, "store", "", "Combined store path (bypass config)")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewBootstrapCommand(),
		NewClusterCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) BaseCatalog() string {
	if rt.baseOverride != "" {
		return rt.baseOverride
	}
	if rt.cfg != nil {
		return rt.cfg.BaseCatalog
	}
	return ""
}

func (rt *runtimeState) OverridesSource() string {
	if rt.overridesOverride != "" {
		return rt.overridesOverride
	}
	if rt.cfg != nil {
		return rt.cfg.Overrides
	}
	return ""
}

func (rt *runtimeState) StorePath() string {
	if rt.storeOverride != "" {
		return rt.storeOverride
	}
	if rt.cfg != nil {
		return rt.cfg.StoreOrDefault()
	}
	return config.DefaultStorePath()
}

func (rt *runtimeState) OutputFormat() string {
	if rt.outputFormat != "" {
		return rt.outputFormat
	}
	if rt.cfg != nil && rt.cfg.Settings.OutputFormat != "" {
		return rt.cfg.Settings.OutputFormat
	}
	return "table"
}

func (rt *runtimeState) Debug() bool {
	if rt.debug {
		return true
	}
	return rt.cfg != nil && rt.cfg.Settings.Debug
}

func (rt *runtimeState) ObtainTimeout() (time.Duration, error) {
	if rt.cfg == nil {
		return 0, nil
	}
	return rt.cfg.ObtainTimeout()
}

func (rt *runtimeState) Concurrency() int {
	if rt.cfg == nil {
		return 1
	}
	return rt.cfg.ConcurrencyOrDefault()
}

func (rt *runtimeState) RateLimit() ratelimit.Config {
	if rt.cfg == nil {
		return ratelimit.Config{}
	}
	return ratelimit.Config{Rate: rt.cfg.Obtain.Rate, Burst: rt.cfg.Obtain.Burst}
}

func (rt *runtimeState) RunLogPath() string {
	if rt.cfg != nil {
		return rt.cfg.RunLog
	}
	return ""
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() (*zap.SugaredLogger, error) {
	if rt.logger != nil {
		return rt.logger, nil
	}
	logger, err := setupLogger(rt.Debug())
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	return rt.logger, nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

func setupLogger(debug bool) (*zap.SugaredLogger, error) {
	var zlog *zap.Logger
	var err error
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return zlog.Sugar(), nil
}
