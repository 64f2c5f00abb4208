// Package catalog persists the music collection in SQLite: songs keyed
// by content signature, artists/albums, playlists, play history and
// session state. The library layer loads rows into memory at startup;
// everything here is plain database/sql.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jscyril/concerto/api"
)

const schema = `
CREATE TABLE IF NOT EXISTS roots(
	id INTEGER PRIMARY KEY,
	path TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS artists(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	artist_id INTEGER REFERENCES artists(id),
	year INTEGER NOT NULL DEFAULT 0,
	UNIQUE(title, artist_id)
);

CREATE TABLE IF NOT EXISTS songs(
	id INTEGER PRIMARY KEY,
	path TEXT NOT NULL,
	title TEXT NOT NULL,
	artist_id INTEGER REFERENCES artists(id),
	album_id INTEGER REFERENCES albums(id),
	genre TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	track_number INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	added_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS playlists(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_songs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_state(
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Catalog wraps the SQLite database
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The driver is not safe for concurrent writers on one connection
	// pool the way server databases are; a single connection keeps
	// transactions simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the underlying database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Roots returns the configured scan roots
func (c *Catalog) Roots() ([]string, error) {
	rows, err := c.db.Query(`SELECT path FROM roots ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		roots = append(roots, path)
	}
	return roots, rows.Err()
}

// AddRoot registers a scan root; adding an existing root is a no-op.
func (c *Catalog) AddRoot(path string) error {
	_, err := c.db.Exec(`INSERT OR IGNORE INTO roots (path) VALUES (?)`, path)
	return err
}

// RemoveRoot drops a scan root
func (c *Catalog) RemoveRoot(path string) error {
	_, err := c.db.Exec(`DELETE FROM roots WHERE path = ?`, path)
	return err
}

// Songs loads the whole collection joined to artists and albums.
func (c *Catalog) Songs() ([]*api.Song, error) {
	rows, err := c.db.Query(`
		SELECT
			s.id, s.path, s.title,
			COALESCE(ar.name, ''), COALESCE(al.title, ''), COALESCE(al.year, 0),
			s.genre, s.year, s.track_number, s.duration_ms, s.added_at
		FROM songs s
		LEFT JOIN artists ar ON ar.id = s.artist_id
		LEFT JOIN albums al ON al.id = s.album_id
		ORDER BY ar.name, al.title, s.track_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []*api.Song
	for rows.Next() {
		var (
			id         int64
			albumYear  int
			durationMS int64
			addedAt    int64
			song       api.Song
		)
		if err := rows.Scan(&id, &song.FilePath, &song.Title,
			&song.Artist, &song.Album, &albumYear,
			&song.Genre, &song.Year, &song.TrackNum, &durationMS, &addedAt); err != nil {
			return nil, err
		}
		song.ID = uint64(id)
		song.AlbumArtist = song.Artist
		if song.Year == 0 {
			song.Year = albumYear
		}
		song.Duration = time.Duration(durationMS) * time.Millisecond
		song.AddedAt = time.Unix(addedAt, 0)
		songs = append(songs, &song)
	}
	return songs, rows.Err()
}

// KnownSignatures returns the cataloged song signatures keyed to their
// stored paths; the scanner diffs against it on rescans, and a path
// mismatch on a known signature marks a moved file.
func (c *Catalog) KnownSignatures() (map[uint64]string, error) {
	rows, err := c.db.Query(`SELECT id, path FROM songs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[uint64]string)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		known[uint64(id)] = path
	}
	return known, rows.Err()
}

// SaveSongs upserts discovered songs in one transaction, creating artist
// and album rows as needed.
func (c *Catalog) SaveSongs(songs []*api.Song) error {
	if len(songs) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, song := range songs {
		artistID, err := ensureArtist(tx, song.Artist)
		if err != nil {
			return fmt.Errorf("ensure artist %q: %w", song.Artist, err)
		}
		albumID, err := ensureAlbum(tx, song.Album, artistID, song.Year)
		if err != nil {
			return fmt.Errorf("ensure album %q: %w", song.Album, err)
		}

		_, err = tx.Exec(`
			INSERT INTO songs (id, path, title, artist_id, album_id, genre, year, track_number, duration_ms, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				path = excluded.path,
				title = excluded.title,
				artist_id = excluded.artist_id,
				album_id = excluded.album_id,
				genre = excluded.genre,
				year = excluded.year,
				track_number = excluded.track_number,
				duration_ms = excluded.duration_ms
		`, int64(song.ID), song.FilePath, song.Title, artistID, albumID,
			song.Genre, song.Year, song.TrackNum, song.Duration.Milliseconds(),
			song.AddedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert song %q: %w", song.Title, err)
		}
	}

	return tx.Commit()
}

// PruneSongs removes songs whose files disappeared from every root.
func (c *Catalog) PruneSongs(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM songs WHERE id = ?`, int64(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func ensureArtist(tx *sql.Tx, name string) (sql.NullInt64, error) {
	if name == "" {
		return sql.NullInt64{}, nil
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO artists (name) VALUES (?)`, name); err != nil {
		return sql.NullInt64{}, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM artists WHERE name = ?`, name).Scan(&id); err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

func ensureAlbum(tx *sql.Tx, title string, artistID sql.NullInt64, year int) (sql.NullInt64, error) {
	if title == "" {
		return sql.NullInt64{}, nil
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO albums (title, artist_id, year) VALUES (?, ?, ?)`,
		title, artistID, year); err != nil {
		return sql.NullInt64{}, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM albums WHERE title = ? AND artist_id IS ?`,
		title, artistID).Scan(&id); err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}
