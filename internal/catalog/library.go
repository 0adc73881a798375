package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaDDL string

const schemaVersion = 1

// Library is the SQLite-backed media library.
type Library struct {
	db   *sql.DB
	path string
}

// OpenLibrary opens or creates the library database at path.
func OpenLibrary(path string) (*Library, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	lib := &Library{db: db, path: path}
	if err := lib.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return lib, nil
}

// Path returns the database file location.
func (l *Library) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying database connection.
func (l *Library) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Library) initSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply library schema: %w", err)
	}
	var current int
	err := l.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := l.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case current != schemaVersion:
		return fmt.Errorf("library schema version %d is not supported (want %d); remove %s and re-import", current, schemaVersion, l.path)
	}
	return nil
}

// ListPlaylistNames returns every playlist name in the library.
func (l *Library) ListPlaylistNames(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT name FROM playlists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan playlist name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListPlaylists returns each playlist with its track count.
func (l *Library) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT p.name, COUNT(pt.track_id)
        FROM playlists p
        LEFT JOIN playlist_tracks pt ON pt.playlist_id = p.id
        GROUP BY p.id
        ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.Name, &p.TrackCount); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TracksForPlaylist returns the tracks of the exactly named playlist in
// position order. The returned SourcePath is empty when the library has no
// location for a track.
func (l *Library) TracksForPlaylist(ctx context.Context, name string) ([]TrackRecord, error) {
	var playlistID int64
	err := l.db.QueryRowContext(ctx, `SELECT id FROM playlists WHERE name = ?`, name).Scan(&playlistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup playlist %q: %w", name, err)
	}

	rows, err := l.db.QueryContext(ctx, `
        SELECT t.title, t.artist, t.track_number, t.location, t.kind, t.size_bytes
        FROM playlist_tracks pt
        JOIN tracks t ON t.id = pt.track_id
        WHERE pt.playlist_id = ?
        ORDER BY pt.position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("query tracks for %q: %w", name, err)
	}
	defer rows.Close()

	var out []TrackRecord
	for rows.Next() {
		var (
			rec      TrackRecord
			location sql.NullString
		)
		if err := rows.Scan(&rec.Title, &rec.Artist, &rec.TrackNumber, &location, &rec.Kind, &rec.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if location.Valid {
			rec.SourcePath = location.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReplacePlaylist stores name with the given tracks in order, replacing any
// existing playlist of the same name. Tracks are shared across playlists by
// location.
func (l *Library) ReplacePlaylist(ctx context.Context, name string, tracks []TrackRecord) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("playlist name is empty")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO playlists (name, created_at, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`, name, now, now); err != nil {
		return fmt.Errorf("upsert playlist: %w", err)
	}
	var playlistID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlists WHERE name = ?`, name).Scan(&playlistID); err != nil {
		return fmt.Errorf("lookup playlist id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("clear playlist tracks: %w", err)
	}

	for i, rec := range tracks {
		trackID, err := upsertTrack(ctx, tx, rec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)`,
			playlistID, i+1, trackID,
		); err != nil {
			return fmt.Errorf("link track %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func upsertTrack(ctx context.Context, tx *sql.Tx, rec TrackRecord) (int64, error) {
	if strings.TrimSpace(rec.SourcePath) == "" {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (title, artist, track_number, location, kind, size_bytes) VALUES (?, ?, ?, NULL, ?, ?)`,
			rec.Title, rec.Artist, rec.TrackNumber, rec.Kind, rec.SizeBytes,
		)
		if err != nil {
			return 0, fmt.Errorf("insert track %q: %w", rec.Title, err)
		}
		return res.LastInsertId()
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO tracks (title, artist, track_number, location, kind, size_bytes)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(location) DO UPDATE SET
            title = excluded.title,
            artist = excluded.artist,
            track_number = excluded.track_number,
            kind = excluded.kind,
            size_bytes = excluded.size_bytes`,
		rec.Title, rec.Artist, rec.TrackNumber, rec.SourcePath, rec.Kind, rec.SizeBytes,
	); err != nil {
		return 0, fmt.Errorf("upsert track %q: %w", rec.Title, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE location = ?`, rec.SourcePath).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup track id: %w", err)
	}
	return id, nil
}

// DeletePlaylist removes a playlist. Tracks stay in the library.
func (l *Library) DeletePlaylist(ctx context.Context, name string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM playlists WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Name: name}
	}
	return nil
}
