// Package logs reads the BurnAudio log file for `burnaudio logs`.
//
// Last returns the final lines with bounded memory; Follow polls for lines
// appended after a byte offset until its context ends.
package logs
