package transcode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"burnaudio/internal/catalog"
	"burnaudio/internal/textutil"
)

// ErrUnknownQuality reports a quality tier outside low, med and high.
var ErrUnknownQuality = errors.New("unknown quality tier")

// Action is how a track is brought into the output tree.
type Action int

const (
	// Reencode decodes the source and encodes it to MP3.
	Reencode Action = iota
	// CopyThrough copies the source unchanged.
	CopyThrough
)

func (a Action) String() string {
	switch a {
	case Reencode:
		return "reencode"
	case CopyThrough:
		return "copy"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

var reencodeKinds = []string{catalog.KindAAC, catalog.KindPurchasedAAC}

// Classify returns Reencode for AAC kinds and CopyThrough for everything else.
func Classify(kind string) Action {
	folder := cases.Fold()
	folded := folder.String(strings.TrimSpace(kind))
	for _, k := range reencodeKinds {
		if folded == folder.String(k) {
			return Reencode
		}
	}
	return CopyThrough
}

// Bitrate returns the MP3 bitrate in kbps for a quality tier.
func Bitrate(quality string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "low":
		return 64, nil
	case "med":
		return 128, nil
	case "high":
		return 192, nil
	default:
		return 0, fmt.Errorf("%w: %q (want low, med or high)", ErrUnknownQuality, quality)
	}
}

// OutputName builds "{artist} - {title} - {trackNumber}.{ext}" with
// filesystem-unsafe characters replaced. Long names lose bytes from the
// artist and title only, so the track number and extension always survive.
func OutputName(artist, title string, trackNumber int, ext string) string {
	ext = textutil.SanitizeFileName(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	tail := fmt.Sprintf(" - %d", trackNumber)
	if ext != "" {
		tail += "." + ext
	}
	head := textutil.SanitizeFileName(artist + " - " + title)
	head = strings.TrimSpace(textutil.TruncateBytes(head, textutil.MaxFileNameBytes-len(tail)))
	return head + tail
}

// OutputExt is the extension a track has after action runs.
func OutputExt(action Action, sourcePath string) string {
	if action == Reencode {
		return "mp3"
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(sourcePath), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}
