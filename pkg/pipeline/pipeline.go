package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/telekom/k8s-fleetcred/pkg/kubeconfig"
	"github.com/telekom/k8s-fleetcred/pkg/registry"
	"github.com/telekom/k8s-fleetcred/pkg/runlog"
)

// ObtainRunner produces a credential bundle for a single registry entry.
// kubeconfig.Runner is the production implementation.
type ObtainRunner interface {
	Obtain(ctx context.Context, entry registry.Entry) (*clientcmdapi.Config, error)
}

// Summary reports the outcome of one run. Configured counts entries whose
// credentials ended up in the store, Skipped counts entries rejected by
// validation, Failed counts obtain failures. Warnings carries the number of
// merge warnings observed while the registry was assembled.
type Summary struct {
	Configured int `json:"configured"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Warnings   int `json:"warnings"`
}

// Succeeded reports whether at least one entry made it into the store.
func (s Summary) Succeeded() bool {
	return s.Configured > 0
}

// Config carries the collaborators of an Engine.
type Config struct {
	Registry    *registry.Registry
	Warnings    []registry.Warning
	Runner      ObtainRunner
	Assembler   *kubeconfig.Assembler
	Sink        runlog.Sink
	Logger      *zap.SugaredLogger
	Concurrency int
}

// Engine walks the configured entries of a merged registry and folds their
// credential bundles into a combined store.
type Engine struct {
	reg         *registry.Registry
	warnings    []registry.Warning
	runner      ObtainRunner
	assembler   *kubeconfig.Assembler
	sink        runlog.Sink
	logger      *zap.SugaredLogger
	concurrency int
}

// New builds an Engine. A concurrency below one falls back to sequential
// processing, which keeps entry order and store assembly deterministic.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		reg:         cfg.Registry,
		warnings:    cfg.Warnings,
		runner:      cfg.Runner,
		assembler:   cfg.Assembler,
		sink:        cfg.Sink,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run processes every configured entry and finalizes the store. Per-entry
// failures are absorbed into the summary; the returned error is reserved for
// store write failures, which discard nothing less than the whole run.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	summary := Summary{Warnings: len(e.warnings)}

	for _, w := range e.warnings {
		e.logger.Warnw("registry merge warning", "run_id", runID, "anchor", w.Anchor, "reason", w.Reason)
	}

	candidates := e.reg.ListConfigured()
	e.logger.Infow("starting bootstrap run",
		"run_id", runID,
		"clusters", e.reg.Len(),
		"candidates", len(candidates),
		"concurrency", e.concurrency)

	if len(candidates) == 0 {
		e.logger.Warnw("no clusters are configured, nothing to bootstrap", "run_id", runID)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, entry := range candidates {
		g.Go(func() error {
			rec := e.processEntry(gctx, runID, entry)
			mu.Lock()
			switch rec.State {
			case runlog.StateMerged:
				summary.Configured++
			case runlog.StateSkipped:
				summary.Skipped++
			case runlog.StateFailed:
				summary.Failed++
			}
			mu.Unlock()
			e.record(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	if err := e.assembler.Finalize(ctx); err != nil {
		return summary, fmt.Errorf("failed to write combined store: %w", err)
	}

	if len(candidates) > 0 && summary.Configured == 0 {
		e.logger.Warnw("no cluster credentials could be assembled", "run_id", runID, "candidates", len(candidates))
	}
	e.logger.Infow("bootstrap run complete",
		"run_id", runID,
		"configured", summary.Configured,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"warnings", summary.Warnings)
	e.record(ctx, &runlog.Record{
		RunID:      runID,
		Time:       time.Now().UTC(),
		State:      runlog.StateSummary,
		Configured: summary.Configured,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
	})
	return summary, nil
}

// processEntry takes one configured entry through validation, obtain, override
// application and store merge. It never fails the run.
func (e *Engine) processEntry(ctx context.Context, runID string, entry registry.Entry) *runlog.Record {
	start := time.Now()
	rec := &runlog.Record{
		RunID:  runID,
		Time:   start.UTC(),
		Anchor: entry.Anchor,
	}

	if err := registry.ValidateOverride(entry); err != nil {
		e.logger.Warnw("skipping cluster with incomplete override",
			"run_id", runID, "anchor", entry.Anchor, "reason", err.Error())
		rec.State = runlog.StateSkipped
		rec.Reason = err.Error()
		rec.Duration = time.Since(start)
		return rec
	}

	bundle, err := e.runner.Obtain(ctx, entry)
	if err != nil {
		e.logger.Errorw("failed to obtain credentials",
			"run_id", runID, "anchor", entry.Anchor, "error", err)
		rec.State = runlog.StateFailed
		rec.Reason = err.Error()
		rec.Duration = time.Since(start)
		return rec
	}

	kubeconfig.ApplyOverride(bundle, entry, e.logger)
	e.assembler.Merge(bundle)
	e.logger.Infow("assembled cluster credentials",
		"run_id", runID, "anchor", entry.Anchor, "duration", time.Since(start))
	rec.State = runlog.StateMerged
	rec.Duration = time.Since(start)
	return rec
}

func (e *Engine) record(ctx context.Context, rec *runlog.Record) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Write(ctx, rec); err != nil {
		e.logger.Warnw("failed to write run record", "sink", e.sink.Name(), "error", err)
	}
}
