// Package pipeline drives a bootstrap run: every configured registry entry is
// validated, its credentials obtained, its override applied, and its bundle
// merged into the combined store, with per-entry isolation so one failure
// never halts the batch.
package pipeline
