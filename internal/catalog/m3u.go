package catalog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KindForPath derives a library kind label from the file extension.
func KindForPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "m4a", "aac":
		return KindAAC
	case "m4p":
		return KindPurchasedAAC
	case "mp3":
		return KindMPEG
	case "":
		return "audio file"
	default:
		return strings.ToUpper(ext) + " audio file"
	}
}

// ParseM3U reads an M3U or extended M3U playlist. Relative entries resolve
// against the playlist's directory. Sizes come from the filesystem; entries
// that cannot be stat'ed keep a zero size and are reported unavailable when
// the playlist is queried.
func ParseM3U(path string) ([]TrackRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist file: %w", err)
	}
	defer file.Close()

	baseDir := filepath.Dir(path)
	var (
		tracks  []TrackRecord
		pending *extInf
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			info := parseExtInf(strings.TrimPrefix(line, "#EXTINF:"))
			pending = &info
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}

		location := line
		if strings.HasPrefix(location, "file://") {
			location = strings.TrimPrefix(location, "file://")
		}
		if !filepath.IsAbs(location) {
			location = filepath.Join(baseDir, location)
		}
		location = filepath.Clean(location)

		rec := TrackRecord{
			TrackNumber: len(tracks) + 1,
			SourcePath:  location,
			Kind:        KindForPath(location),
		}
		if pending != nil {
			rec.Artist, rec.Title = pending.artist, pending.title
			pending = nil
		}
		if rec.Title == "" {
			rec.Title = strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
		}
		if rec.Artist == "" {
			rec.Artist = "Unknown Artist"
		}
		if info, statErr := os.Stat(location); statErr == nil && !info.IsDir() {
			rec.SizeBytes = info.Size()
		}
		tracks = append(tracks, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist file: %w", err)
	}
	return tracks, nil
}

type extInf struct {
	artist string
	title  string
}

// parseExtInf handles "<secs>,<Artist> - <Title>".
func parseExtInf(value string) extInf {
	_, display, found := strings.Cut(value, ",")
	if !found {
		return extInf{}
	}
	display = strings.TrimSpace(display)
	if artist, title, ok := strings.Cut(display, " - "); ok {
		return extInf{artist: strings.TrimSpace(artist), title: strings.TrimSpace(title)}
	}
	return extInf{title: display}
}

// ImportM3U parses the playlist file at path and stores it under name.
func (l *Library) ImportM3U(ctx context.Context, name, path string) (int, error) {
	tracks, err := ParseM3U(path)
	if err != nil {
		return 0, err
	}
	if err := l.ReplacePlaylist(ctx, name, tracks); err != nil {
		return 0, err
	}
	return len(tracks), nil
}
