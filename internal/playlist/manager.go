package playlist

import (
	"fmt"
	"sync"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/catalog"
)

// Resolver maps song signatures to songs; the library satisfies it.
type Resolver interface {
	Song(id uint64) (*api.Song, error)
}

// Manager fronts the catalog's playlist tables and resolves membership
// rows to songs for display. Writes go straight to the catalog; the
// playlist list is cached and refreshed after each mutation.
type Manager struct {
	catalog  *catalog.Catalog
	resolver Resolver

	mu        sync.RWMutex
	playlists []api.Playlist
}

// NewManager creates a manager over the given catalog
func NewManager(c *catalog.Catalog, r Resolver) *Manager {
	return &Manager{catalog: c, resolver: r}
}

// Load refreshes the cached playlist list from the catalog.
func (m *Manager) Load() error {
	playlists, err := m.catalog.Playlists()
	if err != nil {
		return fmt.Errorf("load playlists: %w", err)
	}

	m.mu.Lock()
	m.playlists = playlists
	m.mu.Unlock()
	return nil
}

// All returns the cached playlists
func (m *Manager) All() []api.Playlist {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]api.Playlist, len(m.playlists))
	copy(out, m.playlists)
	return out
}

// Create makes a new named playlist
func (m *Manager) Create(name string) (api.Playlist, error) {
	id, err := m.catalog.CreatePlaylist(name)
	if err != nil {
		return api.Playlist{}, fmt.Errorf("create playlist %q: %w", name, err)
	}
	if err := m.Load(); err != nil {
		return api.Playlist{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.playlists {
		if p.ID == id {
			return p, nil
		}
	}
	return api.Playlist{ID: id, Name: name}, nil
}

// Delete removes a playlist and its membership rows
func (m *Manager) Delete(id int64) error {
	if err := m.catalog.DeletePlaylist(id); err != nil {
		return err
	}
	return m.Load()
}

// Rename changes a playlist's name
func (m *Manager) Rename(id int64, name string) error {
	if err := m.catalog.RenamePlaylist(id, name); err != nil {
		return err
	}
	return m.Load()
}

// Songs returns a playlist's songs in order. Signatures that no longer
// resolve, because the file was pruned, are skipped.
func (m *Manager) Songs(id int64) ([]*api.Song, error) {
	ids, err := m.catalog.PlaylistSongs(id)
	if err != nil {
		return nil, fmt.Errorf("load playlist %d: %w", id, err)
	}

	songs := make([]*api.Song, 0, len(ids))
	for _, songID := range ids {
		if song, err := m.resolver.Song(songID); err == nil {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// AddSong appends a song to a playlist
func (m *Manager) AddSong(id int64, songID uint64) error {
	return m.catalog.AddToPlaylist(id, songID)
}

// RemoveSong removes a song from a playlist
func (m *Manager) RemoveSong(id int64, songID uint64) error {
	return m.catalog.RemoveFromPlaylist(id, songID)
}
