package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/k8s-fleetcred/pkg/fleetcred/output"
	"github.com/telekom/k8s-fleetcred/pkg/kubeconfig"
	"github.com/telekom/k8s-fleetcred/pkg/pipeline"
	"github.com/telekom/k8s-fleetcred/pkg/ratelimit"
	"github.com/telekom/k8s-fleetcred/pkg/runlog"
)

func NewBootstrapCommand() *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
		runLogPath  string
	)

	cmd := &cobra.Command{
		Use:     "bootstrap",
		Aliases: []string{"run"},
		Short:   "Obtain credentials for every configured cluster and assemble the store",
		Long: `Bootstrap merges the base catalog with the user override document, runs the
obtain command of every configured cluster, applies the identity overrides and
assembles all resulting credentials into one combined store.

The command exits non-zero unless at least one cluster was assembled.`,
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

			if timeout == 0 {
				timeout, err = rt.ObtainTimeout()
				if err != nil {
					return err
				}
			}
			if concurrency == 0 {
				concurrency = rt.Concurrency()
			}
			if runLogPath == "" {
				runLogPath = rt.RunLogPath()
			}

			sinks := []runlog.Sink{runlog.NewLogSink(logger.Desugar())}
			if runLogPath != "" {
				fileSink, err := runlog.NewFileSink(runLogPath)
				if err != nil {
					return err
				}
				defer func() { _ = fileSink.Close() }()
				sinks = append(sinks, fileSink)
			}

			storePath := rt.StorePath()
			engine := pipeline.New(pipeline.Config{
				Registry:    reg,
				Warnings:    warnings,
				Runner:      kubeconfig.NewRunner(logger, ratelimit.New(rt.RateLimit()), timeout),
				Assembler:   kubeconfig.NewAssembler(storePath, logger),
				Sink:        runlog.NewMultiSink(sinks, logger.Desugar()),
				Logger:      logger,
				Concurrency: concurrency,
			})

			summary, runErr := engine.Run(cmd.Context())
			output.WriteSummary(rt.Writer(), summary)
			if runErr != nil {
				return runErr
			}
			if !summary.Succeeded() {
				if len(reg.ListConfigured()) == 0 {
					return errors.New("no clusters are configured")
				}
				return errors.New("no cluster credentials could be assembled")
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Wrote credential store to %s\n", storePath)
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of parallel obtain commands (defaults to config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-cluster obtain timeout (defaults to config)")
	cmd.Flags().StringVar(&runLogPath, "run-log", "", "Append JSONL run records to this file")
	return cmd
}
