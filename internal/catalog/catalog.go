package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/cases"

	"burnaudio/internal/logging"
)

// Source is the metadata query surface of a media library.
type Source interface {
	ListPlaylistNames(ctx context.Context) ([]string, error)
	TracksForPlaylist(ctx context.Context, name string) ([]TrackRecord, error)
}

const (
	maxSuggestions      = 3
	suggestionThreshold = 0.75
)

// Catalog resolves user playlist requests against a Source.
type Catalog struct {
	source Source
	logger *slog.Logger
}

// New constructs a Catalog over source.
func New(source Source, logger *slog.Logger) *Catalog {
	return &Catalog{
		source: source,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// FindPlaylist matches name case-insensitively against the library's
// playlists. A miss returns a *NotFoundError wrapping ErrPlaylistNotFound.
func (c *Catalog) FindPlaylist(ctx context.Context, name string) (Playlist, error) {
	names, err := c.source.ListPlaylistNames(ctx)
	if err != nil {
		return Playlist{}, fmt.Errorf("list playlist names: %w", err)
	}
	folder := cases.Fold()
	want := folder.String(name)
	for _, candidate := range names {
		if folder.String(candidate) == want {
			return Playlist{Name: candidate}, nil
		}
	}
	return Playlist{}, &NotFoundError{Name: name, Suggestions: suggest(want, names)}
}

func suggest(folded string, names []string) []string {
	type scored struct {
		name  string
		score float64
	}
	folder := cases.Fold()
	metric := metrics.NewJaroWinkler()
	metric.CaseSensitive = false

	var matches []scored
	for _, candidate := range names {
		score := strutil.Similarity(folded, folder.String(candidate), metric)
		if score >= suggestionThreshold {
			matches = append(matches, scored{name: candidate, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// TracksOf returns the playlist's tracks in catalog order. Tracks without a
// readable backing file are returned separately as TrackErrors wrapping
// ErrTrackNotFound; they never fail the query.
func (c *Catalog) TracksOf(ctx context.Context, playlist Playlist) ([]TrackRecord, []TrackError, error) {
	records, err := c.source.TracksForPlaylist(ctx, playlist.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("tracks for %q: %w", playlist.Name, err)
	}

	available := make([]TrackRecord, 0, len(records))
	var missing []TrackError
	for i, rec := range records {
		if reason := checkSource(rec.SourcePath); reason != nil {
			missing = append(missing, TrackError{
				Playlist: playlist.Name,
				Position: i + 1,
				Track:    rec,
				Err:      reason,
			})
			continue
		}
		available = append(available, rec)
	}
	return available, missing, nil
}

func checkSource(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no location in library", ErrTrackNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTrackNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrTrackNotFound, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrTrackNotFound, path)
	}
	return nil
}

// Select resolves each requested name into a Selection. Names that match no
// playlist are returned as errors and skipped; names that resolve to the same
// playlist are selected once.
func (c *Catalog) Select(ctx context.Context, requested []string) ([]Selection, []error, error) {
	logger := logging.WithContext(ctx, c.logger)
	var (
		selections []Selection
		notFound   []error
		seen       = make(map[string]struct{})
	)
	for _, name := range requested {
		playlist, err := c.FindPlaylist(ctx, name)
		if err != nil {
			if errors.Is(err, ErrPlaylistNotFound) {
				logging.WarnWithContext(logger, "playlist not found", "playlist_not_found",
					logging.String(logging.FieldErrorHint, "check the name with `burnaudio playlists`"),
					logging.String(logging.FieldImpact, "playlist skipped"),
					logging.String("requested", name),
					logging.Error(err),
				)
				notFound = append(notFound, err)
				continue
			}
			return nil, notFound, err
		}
		if _, dup := seen[playlist.Name]; dup {
			continue
		}
		seen[playlist.Name] = struct{}{}

		tracks, missing, err := c.TracksOf(ctx, playlist)
		if err != nil {
			return nil, notFound, err
		}
		for _, m := range missing {
			logging.WarnWithContext(logger, "track unavailable", "track_not_found",
				logging.String(logging.FieldErrorHint, "re-import the playlist or restore the file"),
				logging.String(logging.FieldImpact, "track skipped"),
				logging.String(logging.FieldPlaylist, playlist.Name),
				logging.Int("position", m.Position),
				logging.Error(m.Err),
			)
		}
		selections = append(selections, Selection{
			Requested:   name,
			Name:        playlist.Name,
			Tracks:      tracks,
			Unavailable: missing,
		})
	}
	return selections, notFound, nil
}
