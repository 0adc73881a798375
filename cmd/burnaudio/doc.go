// Command burnaudio compiles library playlists onto a single audio disc.
//
// The burn subcommand resolves the named playlists against the local library
// database, gates the selection on disc capacity, transcodes tracks with a
// bounded worker pool, assembles an ISO image and hands it to the burner.
// Supporting subcommands manage the library (playlists, library import), show
// earlier runs (history), report environment readiness (status), and manage
// configuration and staging directories.
package main
