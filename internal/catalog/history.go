package catalog

import (
	"database/sql"
	"time"
)

// historyLimit caps the play history; older entries are trimmed on insert.
const historyLimit = 50

// RecordPlay appends a song to the play history
func (c *Catalog) RecordPlay(songID uint64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO history (song_id, timestamp) VALUES (?, ?)`,
		int64(songID), time.Now().Unix()); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT ?
		)
	`, historyLimit); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentlyPlayed returns the most recent song signatures, newest first,
// deduplicated on song.
func (c *Catalog) RecentlyPlayed(limit int) ([]uint64, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	rows, err := c.db.Query(`
		SELECT song_id, MAX(id) AS latest FROM history
		GROUP BY song_id
		ORDER BY latest DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id, latest int64
		if err := rows.Scan(&id, &latest); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// SetSessionValue stores a key/value pair that survives restarts, such as
// the last playing track or the selected view.
func (c *Catalog) SetSessionValue(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SessionValue returns a stored session value, or "" when unset.
func (c *Catalog) SessionValue(key string) (string, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
