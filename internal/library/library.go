package library

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jscyril/concerto/api"
	playerrors "github.com/jscyril/concerto/pkg/errors"
)

// Library is the in-memory view of the music collection. The SQL catalog
// is the source of truth; the library holds the loaded rows plus the
// secondary indices the UI queries on every keystroke.
type Library struct {
	songs map[uint64]*api.Song

	artistIndex map[string][]uint64
	albumIndex  map[string][]uint64
	genreIndex  map[string][]uint64

	mu      sync.RWMutex
	scanner *Scanner
}

// New creates an empty library
func New() *Library {
	return &Library{
		songs:       make(map[uint64]*api.Song),
		artistIndex: make(map[string][]uint64),
		albumIndex:  make(map[string][]uint64),
		genreIndex:  make(map[string][]uint64),
		scanner:     NewScanner(4),
	}
}

// Load replaces the library contents with catalog rows.
func (l *Library) Load(songs []*api.Song) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.songs = make(map[uint64]*api.Song, len(songs))
	l.artistIndex = make(map[string][]uint64)
	l.albumIndex = make(map[string][]uint64)
	l.genreIndex = make(map[string][]uint64)
	for _, song := range songs {
		l.songs[song.ID] = song
		l.indexSong(song)
	}
}

// AddSong adds a song and updates indices. Adding an ID that is already
// present replaces the entry, unindexing the old row first.
func (l *Library) AddSong(song *api.Song) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, exists := l.songs[song.ID]; exists {
		l.removeFromIndex(l.artistIndex, old.Artist, old.ID)
		l.removeFromIndex(l.albumIndex, old.Album, old.ID)
		l.removeFromIndex(l.genreIndex, old.Genre, old.ID)
	}
	l.songs[song.ID] = song
	l.indexSong(song)
}

// indexSong updates the secondary indices; callers hold l.mu.
func (l *Library) indexSong(song *api.Song) {
	if song.Artist != "" {
		l.artistIndex[song.Artist] = append(l.artistIndex[song.Artist], song.ID)
	}
	if song.Album != "" {
		l.albumIndex[song.Album] = append(l.albumIndex[song.Album], song.ID)
	}
	if song.Genre != "" {
		l.genreIndex[song.Genre] = append(l.genreIndex[song.Genre], song.ID)
	}
}

// Song returns a song by its signature
func (l *Library) Song(id uint64) (*api.Song, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	song, exists := l.songs[id]
	if !exists {
		return nil, playerrors.ErrTrackNotFound
	}
	return song, nil
}

// AllSongs returns every song sorted by artist, album, track number
func (l *Library) AllSongs() []*api.Song {
	l.mu.RLock()
	defer l.mu.RUnlock()

	songs := make([]*api.Song, 0, len(l.songs))
	for _, song := range l.songs {
		songs = append(songs, song)
	}

	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Artist != songs[j].Artist {
			return songs[i].Artist < songs[j].Artist
		}
		if songs[i].Album != songs[j].Album {
			return songs[i].Album < songs[j].Album
		}
		return songs[i].TrackNum < songs[j].TrackNum
	})

	return songs
}

// SongsByArtist returns all songs by a specific artist
func (l *Library) SongsByArtist(artist string) []*api.Song {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.artistIndex[artist])
}

// SongsByAlbum returns all songs from a specific album
func (l *Library) SongsByAlbum(album string) []*api.Song {
	l.mu.RLock()
	defer l.mu.RUnlock()

	songs := l.collect(l.albumIndex[album])
	sort.Slice(songs, func(i, j int) bool {
		return songs[i].TrackNum < songs[j].TrackNum
	})
	return songs
}

// collect resolves index entries; callers hold l.mu.
func (l *Library) collect(ids []uint64) []*api.Song {
	songs := make([]*api.Song, 0, len(ids))
	for _, id := range ids {
		if song, ok := l.songs[id]; ok {
			songs = append(songs, song)
		}
	}
	return songs
}

// Artists returns all unique artists
func (l *Library) Artists() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	artists := make([]string, 0, len(l.artistIndex))
	for artist := range l.artistIndex {
		artists = append(artists, artist)
	}
	sort.Strings(artists)
	return artists
}

// Albums returns all unique albums
func (l *Library) Albums() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	albums := make([]string, 0, len(l.albumIndex))
	for album := range l.albumIndex {
		albums = append(albums, album)
	}
	sort.Strings(albums)
	return albums
}

// Search matches title, artist and album, title matches first
func (l *Library) Search(query string) []*api.Song {
	l.mu.RLock()
	defer l.mu.RUnlock()

	query = strings.ToLower(query)
	results := make([]*api.Song, 0, 10)

	for _, song := range l.songs {
		titleMatch := strings.Contains(strings.ToLower(song.Title), query)
		artistMatch := strings.Contains(strings.ToLower(song.Artist), query)
		albumMatch := strings.Contains(strings.ToLower(song.Album), query)

		if titleMatch || artistMatch || albumMatch {
			results = append(results, song)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		iTitle := strings.Contains(strings.ToLower(results[i].Title), query)
		jTitle := strings.Contains(strings.ToLower(results[j].Title), query)
		if iTitle != jTitle {
			return iTitle
		}
		return results[i].Title < results[j].Title
	})

	return results
}

// RemoveSong removes a song from the library
func (l *Library) RemoveSong(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	song, exists := l.songs[id]
	if !exists {
		return playerrors.ErrTrackNotFound
	}

	l.removeFromIndex(l.artistIndex, song.Artist, id)
	l.removeFromIndex(l.albumIndex, song.Album, id)
	l.removeFromIndex(l.genreIndex, song.Genre, id)

	delete(l.songs, id)
	return nil
}

// removeFromIndex removes a song ID from an index
func (l *Library) removeFromIndex(index map[string][]uint64, key string, id uint64) {
	if key == "" {
		return
	}

	ids := index[key]
	for i, existing := range ids {
		if existing == id {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	if len(index[key]) == 0 {
		delete(index, key)
	}
}

// Len returns the number of songs in the library
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.songs)
}

// ScanDiff is the outcome of an incremental rescan.
type ScanDiff struct {
	Added   []*api.Song
	Updated []*api.Song
	Removed []uint64
	Errors  []error
}

// Scan walks the roots and diffs against the signatures already known to
// the catalog, keyed to their stored paths. Files whose signature and
// path both match are skipped cheaply; a known signature at a new path
// is a moved file and is reported as updated so the catalog row follows
// it. Known signatures that never turn up are reported as removed so the
// catalog can prune them.
func (l *Library) Scan(ctx context.Context, roots []string, known map[uint64]string) ScanDiff {
	seen := make(map[uint64]bool, len(known))
	var diff ScanDiff

	songs, errs := l.scanner.Scan(ctx, roots)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range errs {
			diff.Errors = append(diff.Errors, err)
		}
	}()

	for song := range songs {
		seen[song.ID] = true
		path, ok := known[song.ID]
		if ok && path == song.FilePath {
			continue
		}
		l.AddSong(song)
		if ok {
			diff.Updated = append(diff.Updated, song)
		} else {
			diff.Added = append(diff.Added, song)
		}
	}
	<-done

	for id := range known {
		if !seen[id] {
			diff.Removed = append(diff.Removed, id)
		}
	}
	return diff
}

// AddFile adds a single file from any location to the library
func (l *Library) AddFile(filePath string) (*api.Song, error) {
	song, err := l.scanner.ScanFile(filePath)
	if err != nil {
		return nil, err
	}
	l.AddSong(song)
	return song, nil
}
