// Package textutil provides filename sanitization and bounded string helpers
// shared by the transcode, image and archive packages.
package textutil
