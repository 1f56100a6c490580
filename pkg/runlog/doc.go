// Package runlog records per-entry outcomes of bootstrap runs and forwards
// them to configurable sinks (structured log, JSONL file), so operators can
// reconstruct which anchors were assembled, skipped, or failed in any run.
package runlog
