// SPDX-FileCopyrightText: 2024 Deutsche Telekom AG
// SPDX-License-Identifier: Apache-2.0

package runlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the terminal state a registry entry reached within one run.
type State string

const (
	// StateMerged means the entry's bundle was assembled into the store.
	StateMerged State = "merged"
	// StateSkipped means the entry's override failed validation.
	StateSkipped State = "skipped"
	// StateFailed means the entry's obtain command failed or produced an
	// unusable bundle.
	StateFailed State = "failed"
	// StateSummary marks the run-level closing record.
	StateSummary State = "summary"
)

// Record is one line of a bootstrap run's history. Entry records carry an
// anchor and a state; the closing summary record carries the run counts.
type Record struct {
	RunID    string        `json:"runID"`
	Time     time.Time     `json:"time"`
	State    State         `json:"state"`
	Anchor   string        `json:"anchor,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	// Summary-only counts.
	Configured int `json:"configured,omitempty"`
	Skipped    int `json:"skipped,omitempty"`
	Failed     int `json:"failed,omitempty"`
}

// Sink defines the interface for run record destinations.
type Sink interface {
	// Write sends a record to the sink.
	Write(ctx context.Context, rec *Record) error

	// Close releases any resources held by the sink.
	Close() error

	// Name returns the sink's identifier.
	Name() string
}

// LogSink writes run records to a structured logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("runlog")}
}

// Write logs the record.
func (s *LogSink) Write(_ context.Context, rec *Record) error {
	fields := []zap.Field{
		zap.String("run_id", rec.RunID),
		zap.String("state", string(rec.State)),
		zap.Time("time", rec.Time),
	}

	if rec.Anchor != "" {
		fields = append(fields, zap.String("anchor", rec.Anchor))
	}
	if rec.Reason != "" {
		fields = append(fields, zap.String("reason", rec.Reason))
	}
	if rec.Duration > 0 {
		fields = append(fields, zap.Duration("duration", rec.Duration))
	}
	if rec.State == StateSummary {
		fields = append(fields,
			zap.Int("configured", rec.Configured),
			zap.Int("skipped", rec.Skipped),
			zap.Int("failed", rec.Failed),
		)
	}

	s.logger.Info("run_record", fields...)
	return nil
}

// Close is a no-op for LogSink.
func (s *LogSink) Close() error {
	return nil
}

// Name returns the sink identifier.
func (s *LogSink) Name() string {
	return "log"
}

// FileSink appends run records to a JSONL file. Records from concurrent
// pipeline workers are serialized so lines never interleave.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewFileSink opens (or creates) the JSONL file at path for appending.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log %s: %w", path, err)
	}
	return &FileSink{file: f, path: path}, nil
}

// Write appends the record as one JSON line.
func (s *FileSink) Write(_ context.Context, rec *Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append run record to %s: %w", s.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Name returns the sink identifier.
func (s *FileSink) Name() string {
	return "file"
}

// MultiSink writes to multiple sinks.
type MultiSink struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMultiSink creates a sink that writes to multiple destinations.
func NewMultiSink(sinks []Sink, logger *zap.Logger) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger}
}

// Write sends the record to all sinks. Sink failures are logged and the last
// error returned; a broken sink never fails the run that feeds it.
func (s *MultiSink) Write(ctx context.Context, rec *Record) error {
	var lastErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, rec); err != nil {
			// Use string representation to avoid noisy stacktraces for transient errors
			s.logger.Warn("run record sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("error", err.Error()))
			lastErr = err
		}
	}
	return lastErr
}

// Close closes all sinks.
func (s *MultiSink) Close() error {
	var lastErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Name returns the sink identifier.
func (s *MultiSink) Name() string {
	return "multi"
}
