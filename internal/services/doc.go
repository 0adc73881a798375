// Package services defines shared utilities consumed by the pipeline phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, playlist names, phase names, and
//     per-job correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure messages
//     uniform and classifiable for run history.
//
// Use these helpers when wiring new phase logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
