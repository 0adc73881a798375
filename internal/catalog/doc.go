// Package catalog answers playlist and track queries against the local media
// library.
//
// The Library type persists playlists and their ordered tracks in SQLite and
// can import extended M3U files. Catalog layers the lookup rules the burn
// pipeline depends on over any Source: case-insensitive playlist matching,
// "did you mean" suggestions, and per-track availability checks that report a
// missing backing file without failing the whole query.
//
// A Library holds a single database session and is not safe for concurrent
// use; the pipeline queries it from the orchestrating goroutine before any
// transcode work is dispatched.
package catalog
