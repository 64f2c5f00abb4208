package catalog

import (
	"database/sql"
	"time"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/pkg/errors"
)

// Playlists returns all playlists ordered by creation time
func (c *Catalog) Playlists() ([]api.Playlist, error) {
	rows, err := c.db.Query(`SELECT id, name, created_at FROM playlists ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []api.Playlist
	for rows.Next() {
		var (
			p       api.Playlist
			created int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(created, 0)
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// CreatePlaylist creates a named playlist and returns its id.
func (c *Catalog) CreatePlaylist(name string) (int64, error) {
	res, err := c.db.Exec(`INSERT INTO playlists (name, created_at) VALUES (?, ?)`,
		name, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeletePlaylist removes a playlist and its membership rows.
func (c *Catalog) DeletePlaylist(id int64) error {
	res, err := c.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrPlaylistNotFound
	}
	return nil
}

// RenamePlaylist changes a playlist's name
func (c *Catalog) RenamePlaylist(id int64, name string) error {
	res, err := c.db.Exec(`UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrPlaylistNotFound
	}
	return nil
}

// PlaylistSongs returns the song signatures of a playlist in order.
func (c *Catalog) PlaylistSongs(playlistID int64) ([]uint64, error) {
	rows, err := c.db.Query(`
		SELECT song_id FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// AddToPlaylist appends a song at the end of a playlist.
func (c *Catalog) AddToPlaylist(playlistID int64, songID uint64) error {
	var exists int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM playlists WHERE id = ?`, playlistID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return errors.ErrPlaylistNotFound
	}

	var next sql.NullInt64
	err = c.db.QueryRow(`SELECT MAX(position) FROM playlist_songs WHERE playlist_id = ?`,
		playlistID).Scan(&next)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)`,
		playlistID, int64(songID), next.Int64+1)
	return err
}

// RemoveFromPlaylist deletes every occurrence of a song from a playlist.
func (c *Catalog) RemoveFromPlaylist(playlistID int64, songID uint64) error {
	_, err := c.db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`,
		playlistID, int64(songID))
	return err
}
