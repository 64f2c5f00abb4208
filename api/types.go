package api

import "time"

// Track is the value handed to the playback engine: a content-derived
// signature plus a resolved path. The engine never mutates it and never
// checks the path beyond the backend's own open attempt.
type Track struct {
	ID   uint64 `json:"id"`
	Path string `json:"path"`
}

// Song is a catalog entry: a Track plus everything the library layer
// knows about the file.
type Song struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	AlbumArtist string        `json:"album_artist"`
	Album       string        `json:"album"`
	Genre       string        `json:"genre"`
	Year        int           `json:"year"`
	TrackNum    int           `json:"track_number"`
	Duration    time.Duration `json:"duration"`
	FilePath    string        `json:"file_path"`
	AddedAt     time.Time     `json:"added_at"`
}

// Track returns the playback identity of the song.
func (s *Song) Track() Track {
	return Track{ID: s.ID, Path: s.FilePath}
}

// DisplayTitle falls back to the file name when the title tag is empty.
func (s *Song) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.FilePath
}

type Album struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   int    `json:"year"`
}

type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaybackState is the externally observable engine state. The values are
// fixed because Metrics stores the state in an atomic integer.
type PlaybackState uint32

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// RepeatMode controls queue advancement after a track ends.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)
