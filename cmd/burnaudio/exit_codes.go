package main

import (
	"context"
	"errors"

	"burnaudio/internal/capacity"
	"burnaudio/internal/deps"
	"burnaudio/internal/pipeline"
	"burnaudio/internal/services"
)

const (
	exitOK = iota
	exitFailure
	exitConfig
	exitCapacity
	exitNoPlaylists
	exitInterrupted = 130
)

// exitCode maps a command error onto the process exit status. A declined
// burn is reported by the burn command as a nil error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, capacity.ErrCapacityExceeded):
		return exitCapacity
	case errors.Is(err, pipeline.ErrNoPlaylists):
		return exitNoPlaylists
	case errors.Is(err, deps.ErrToolMissing), errors.Is(err, services.ErrConfiguration):
		return exitConfig
	default:
		return exitFailure
	}
}
