package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dhowden/tag"
	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/audio"
)

// MetadataReader extracts metadata from audio files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Read builds a Song from a file: content signature, tags and duration.
func (r *MetadataReader) Read(filePath string) (*api.Song, error) {
	id, err := Signature(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	song := &api.Song{
		ID:       id,
		Title:    filepath.Base(filePath),
		FilePath: filePath,
		AddedAt:  time.Now(),
	}

	// Untagged files keep their filename as title.
	metadata, err := tag.ReadFrom(file)
	if err == nil {
		song.Title = getOrDefault(metadata.Title(), song.Title)
		song.Artist = getOrDefault(metadata.Artist(), "Unknown Artist")
		song.AlbumArtist = getOrDefault(metadata.AlbumArtist(), song.Artist)
		song.Album = getOrDefault(metadata.Album(), "Unknown Album")
		song.Genre = metadata.Genre()
		song.Year = metadata.Year()
		song.TrackNum, _ = metadata.Track()
	}

	song.Duration = readDuration(filePath)
	return song, nil
}

// ReadCoverArt extracts cover art from an audio file
func (r *MetadataReader) ReadCoverArt(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if picture := metadata.Picture(); picture != nil {
		return picture.Data, nil
	}

	return nil, nil
}

// readDuration decodes just far enough to learn the track length. Zero
// when the file cannot be decoded; playback will surface the real error.
func readDuration(filePath string) time.Duration {
	file, err := os.Open(filePath)
	if err != nil {
		return 0
	}

	streamer, format, err := audio.DecodeAudio(file, filePath)
	if err != nil {
		file.Close()
		return 0
	}
	d := format.SampleRate.D(streamer.Len())
	streamer.Close()
	file.Close()
	return d
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
