package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrPlaylistNotFound reports a requested playlist name absent from the library.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrTrackNotFound reports a track whose backing file does not exist.
	ErrTrackNotFound = errors.New("track not found")
)

// Well-known track kind labels.
const (
	KindAAC          = "AAC audio file"
	KindPurchasedAAC = "Purchased AAC audio file"
	KindMPEG         = "MPEG audio file"
)

// TrackRecord is one playlist entry as reported by the library. Records are
// immutable once returned; callers receive copies.
type TrackRecord struct {
	Title       string
	Artist      string
	TrackNumber int
	SourcePath  string
	Kind        string
	SizeBytes   int64
}

// Playlist summarizes a library playlist.
type Playlist struct {
	Name       string
	TrackCount int
}

// Selection is a resolved playlist with its available tracks in catalog order.
type Selection struct {
	// Requested is the name as the user typed it.
	Requested string
	// Name is the catalog's spelling and names the output subdirectory.
	Name        string
	Tracks      []TrackRecord
	Unavailable []TrackError
}

// TrackError describes a track excluded from a selection.
type TrackError struct {
	Playlist string
	Position int
	Track    TrackRecord
	Err      error
}

func (e TrackError) Error() string {
	return fmt.Sprintf("%s #%d %s - %s: %v", e.Playlist, e.Position, e.Track.Artist, e.Track.Title, e.Err)
}

func (e TrackError) Unwrap() error {
	return e.Err
}

// NotFoundError carries the requested name and close matches from the library.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("playlist %q not found", e.Name)
	}
	return fmt.Sprintf("playlist %q not found (did you mean %s?)", e.Name, quoteJoin(e.Suggestions))
}

func (e *NotFoundError) Unwrap() error {
	return ErrPlaylistNotFound
}

func quoteJoin(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", v)
	}
	return out
}
