// Package burn writes an assembled image to the medium.
//
// The Controller re-checks the image's real size against the medium, asks
// for confirmation when configured, takes an exclusive lock on the burner,
// optionally waits for a medium, runs the burn tool and then ejects. Ejection
// is attempted after every burn attempt whether or not it succeeded, and an
// eject failure is only logged.
package burn
