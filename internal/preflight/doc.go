// Package preflight provides readiness checks for the directories, external
// programs, burner and archive storage that BurnAudio depends on.
//
// These checks run in two contexts:
//   - "burnaudio burn" calls RunAll and CheckSystemDeps before touching the
//     library, so a missing encoder fails the run before any staging work.
//   - "burnaudio status" renders every check for the operator.
//
// Each optional check is gated by its config toggle.
package preflight
