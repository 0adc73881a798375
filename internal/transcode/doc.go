// Package transcode decides how each track reaches the staging tree and
// performs that conversion.
//
// Classify maps a library kind to an Action: AAC sources are re-encoded to
// MP3 by piping the configured decoder into the configured encoder, while
// every other kind is copied byte-for-byte with checksum verification. The
// Dispatcher turns playlist selections into Jobs with unique output paths and
// executes a Job as a workerpool function, always returning a Result.
package transcode
