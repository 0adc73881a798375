// Package pipeline orchestrates a burn run end to end.
//
// Phases run in strict order on the calling goroutine:
//
//	catalog -> capacity gate -> transcode (bounded pool) -> assembly
//	        -> actual-size gate -> archive upload -> burn -> eject
//
// Only the transcode phase is parallel. Every phase boundary is logged with
// the run ID so a run can be followed through burnaudio.log, and the final
// Report is persisted to the history store whatever the outcome.
package pipeline
