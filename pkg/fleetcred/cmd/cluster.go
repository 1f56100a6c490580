package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/output"
	"github.com/telekom/k8s-fleetcred/pkg/registry"
)

func NewClusterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cluster",
		Aliases: []string{"clusters"},
		Short:   "Inspect the merged cluster registry",
	}
	cmd.AddCommand(
		newClusterListCommand(),
		newClusterGetCommand(),
		newClusterValidateCommand(),
	)
	return cmd
}

func newClusterListCommand() *cobra.Command {
	var (
		configuredOnly bool
		provider       string
		keyword        string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clusters from the merged registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			logger, err := rt.Logger()
			if err != nil {
				return err
			}
			reg, warnings, err := loadRegistry(cmd.Context(), rt, logger)
			if err != nil {
				return err
			}
			logWarnings(logger, warnings)

			entries := reg.Filter(registry.FilterOptions{
				Provider:       provider,
				Keyword:        keyword,
				ConfiguredOnly: configuredOnly,
			})

			format := output.Format(rt.OutputFormat())
			switch format {
			case output.FormatJSON, output.FormatYAML:
				return output.WriteObject(rt.Writer(), format, entries)
			case output.FormatTable:
				output.WriteClusterTable(rt.Writer(), entries)
				return nil
			case output.FormatWide:
				output.WriteClusterTableWide(rt.Writer(), entries)
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", format)
			}
		},
	}

	cmd.Flags().BoolVar(&configuredOnly, "configured", false, "Only show clusters with a user override")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider classification")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Filter by metadata keyword")
	return cmd
}

func newClusterGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ANCHOR",
		Short: "Get a cluster entry by anchor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			logger, err := rt.Logger()
			if err != nil {
				return err
			}
			reg, warnings, err := loadRegistry(cmd.Context(), rt, logger)
			if err != nil {
				return err
			}
			logWarnings(logger, warnings)

			entry, err := reg.Get(args[0])
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					return fmt.Errorf("%w (known anchors: %s)", err, strings.Join(reg.Anchors(), ", "))
				}
				return err
			}

			format := output.Format(rt.OutputFormat())
			switch format {
			case output.FormatTable:
				output.WriteClusterTable(rt.Writer(), []registry.Entry{entry})
				return nil
			case output.FormatWide:
				output.WriteClusterTableWide(rt.Writer(), []registry.Entry{entry})
				return nil
			default:
				return output.WriteObject(rt.Writer(), format, entry)
			}
		},
	}
}

func newClusterValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate ANCHOR",
		Short: "Check that a cluster is configured and its override is complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			logger, err := rt.Logger()
			if err != nil {
				return err
			}
			reg, warnings, err := loadRegistry(cmd.Context(), rt, logger)
			if err != nil {
				return err
			}
			logWarnings(logger, warnings)

			anchor := args[0]
			entry, err := reg.Get(anchor)
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					return fmt.Errorf("%w (known anchors: %s)", err, strings.Join(reg.Anchors(), ", "))
				}
				return err
			}
			if !entry.Configured() {
				return fmt.Errorf("cluster %s has no override configured", anchor)
			}
			if err := registry.ValidateOverride(entry); err != nil {
				return fmt.Errorf("cluster %s override is invalid: %w", anchor, err)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "cluster %s is configured\n", anchor)
			return nil
		},
	}
}
