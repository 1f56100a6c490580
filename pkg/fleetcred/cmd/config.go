package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/config"
	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/output"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fleetcred configuration",
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(),
		newConfigPathCommand(),
	)

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		baseCatalog string
		overrides   string
		store       string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a fleetcred config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPathValue()
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			cfg := config.DefaultConfig()
			cfg.BaseCatalog = baseCatalog
			cfg.Overrides = overrides
			cfg.Store = store
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Initialized config at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseCatalog, "base-catalog", "", "Base catalog path or URL")
	cmd.Flags().StringVar(&overrides, "overrides", "", "Override document path or URL")
	cmd.Flags().StringVar(&store, "store", "", "Combined store path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")

	_ = cmd.MarkFlagRequired("base-catalog")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"view"},
		Short:   "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return output.WriteObject(rt.Writer(), output.FormatYAML, rt.cfg)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), rt.configPathValue())
			return nil
		},
	}
}
