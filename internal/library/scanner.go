package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jscyril/concerto/api"
	playerrors "github.com/jscyril/concerto/pkg/errors"
)

// Scanner scans root directories concurrently using a worker pool
type Scanner struct {
	workers    int
	formats    []string
	metaReader *MetadataReader
}

// NewScanner creates a new file scanner
func NewScanner(workers int) *Scanner {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Scanner{
		workers:    workers,
		formats:    []string{".mp3", ".wav", ".flac"},
		metaReader: NewMetadataReader(),
	}
}

// SupportedFormats returns list of supported audio formats
func (s *Scanner) SupportedFormats() []string {
	return s.formats
}

// isSupported checks if a file format is supported
func (s *Scanner) isSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range s.formats {
		if ext == format {
			return true
		}
	}
	return false
}

// Scan walks the roots concurrently and returns channels for discovered
// songs and per-file errors. Both channels close when the walk finishes.
func (s *Scanner) Scan(ctx context.Context, roots []string) (<-chan *api.Song, <-chan error) {
	songs := make(chan *api.Song, 100)
	errs := make(chan error, 10)
	files := make(chan string, 100)

	var wg sync.WaitGroup

	// Start file discovery goroutine
	go func() {
		defer close(files)
		for _, root := range roots {
			select {
			case <-ctx.Done():
				return
			default:
			}

			err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					select {
					case errs <- &playerrors.ScanError{Path: p, Err: err}:
					default:
					}
					return nil
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if !d.IsDir() && s.isSupported(p) {
					select {
					case files <- p:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return nil
			})

			if err != nil && err != context.Canceled {
				select {
				case errs <- &playerrors.ScanError{Path: root, Err: err}:
				default:
				}
			}
		}
	}()

	// Start worker pool
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range files {
				select {
				case <-ctx.Done():
					return
				default:
				}

				song, err := s.metaReader.Read(filePath)
				if err != nil {
					select {
					case errs <- &playerrors.ScanError{Path: filePath, Err: err}:
					default:
					}
					continue
				}

				select {
				case songs <- song:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Close channels when done
	go func() {
		wg.Wait()
		close(songs)
		close(errs)
	}()

	return songs, errs
}

// ScanFile scans a single file and returns a Song
func (s *Scanner) ScanFile(filePath string) (*api.Song, error) {
	if !s.isSupported(filePath) {
		return nil, playerrors.ErrInvalidFormat
	}
	return s.metaReader.Read(filePath)
}
