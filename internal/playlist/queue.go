// Package playlist holds the in-memory play queue. Persistent playlists
// live in the catalog; the queue is what the player walks through right
// now, with shuffle and repeat applied on top.
package playlist

import (
	"math/rand"
	"sync"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/pkg/errors"
)

// Queue is the current playback order. All methods are safe for
// concurrent use.
type Queue struct {
	songs      []*api.Song
	index      int
	repeatMode api.RepeatMode
	shuffle    bool
	original   []*api.Song // order before shuffle
	mu         sync.RWMutex
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		songs: make([]*api.Song, 0),
	}
}

// Add appends songs to the end of the queue
func (q *Queue) Add(songs ...*api.Song) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.songs = append(q.songs, songs...)
}

// Set replaces the whole queue and starts at the given index.
func (q *Queue) Set(songs []*api.Song, start int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.songs = make([]*api.Song, len(songs))
	copy(q.songs, songs)
	q.original = nil
	q.shuffle = false
	if start < 0 || start >= len(q.songs) {
		start = 0
	}
	q.index = start
}

// Clear removes everything from the queue
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.songs = q.songs[:0]
	q.original = nil
	q.shuffle = false
	q.index = 0
}

// Current returns the song at the queue position, or nil when empty.
func (q *Queue) Current() *api.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.songs) == 0 || q.index < 0 || q.index >= len(q.songs) {
		return nil
	}
	return q.songs[q.index]
}

// PeekNext returns the song Next would advance to without moving the
// queue. The player uses it to pre-queue the upcoming track for a
// gapless handoff.
func (q *Queue) PeekNext() *api.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.songs) == 0 {
		return nil
	}

	switch q.repeatMode {
	case api.RepeatOne:
		return q.songs[q.index]
	case api.RepeatAll:
		return q.songs[(q.index+1)%len(q.songs)]
	default:
		if q.index < len(q.songs)-1 {
			return q.songs[q.index+1]
		}
		return nil
	}
}

// Next advances the queue and returns the new current song, or nil when
// the queue is exhausted.
func (q *Queue) Next() *api.Song {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.songs) == 0 {
		return nil
	}

	switch q.repeatMode {
	case api.RepeatOne:
		return q.songs[q.index]
	case api.RepeatAll:
		q.index = (q.index + 1) % len(q.songs)
	default:
		if q.index >= len(q.songs)-1 {
			return nil
		}
		q.index++
	}

	return q.songs[q.index]
}

// Previous steps the queue back and returns the new current song.
func (q *Queue) Previous() *api.Song {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.songs) == 0 {
		return nil
	}

	switch q.repeatMode {
	case api.RepeatOne:
		return q.songs[q.index]
	case api.RepeatAll:
		q.index--
		if q.index < 0 {
			q.index = len(q.songs) - 1
		}
	default:
		if q.index > 0 {
			q.index--
		}
	}

	return q.songs[q.index]
}

// JumpTo moves the queue position to index.
func (q *Queue) JumpTo(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.songs) {
		return errors.ErrTrackNotFound
	}

	q.index = index
	return nil
}

// Remove deletes the song at index, keeping the queue position on the
// same song where possible.
func (q *Queue) Remove(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.songs) {
		return errors.ErrTrackNotFound
	}

	q.songs = append(q.songs[:index], q.songs[index+1:]...)

	if q.index > index {
		q.index--
	} else if q.index >= len(q.songs) && len(q.songs) > 0 {
		q.index = len(q.songs) - 1
	}

	return nil
}

// Shuffle randomizes the order, keeping the current song at the front.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.songs) <= 1 {
		q.shuffle = len(q.songs) == 1
		return
	}

	if q.original == nil {
		q.original = make([]*api.Song, len(q.songs))
		copy(q.original, q.songs)
	}

	current := q.songs[q.index]

	for i := len(q.songs) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		q.songs[i], q.songs[j] = q.songs[j], q.songs[i]
	}

	for i, song := range q.songs {
		if song.ID == current.ID {
			q.songs[0], q.songs[i] = q.songs[i], q.songs[0]
			break
		}
	}
	q.index = 0
	q.shuffle = true
}

// Unshuffle restores the pre-shuffle order, repositioning on the current
// song.
func (q *Queue) Unshuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shuffle = false
	if q.original == nil {
		return
	}

	current := q.songs[q.index]
	q.songs = q.original
	q.original = nil

	for i, song := range q.songs {
		if song.ID == current.ID {
			q.index = i
			break
		}
	}
}

// SetRepeatMode sets the repeat mode
func (q *Queue) SetRepeatMode(mode api.RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeatMode = mode
}

// RepeatMode returns the active repeat mode
func (q *Queue) RepeatMode() api.RepeatMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repeatMode
}

// CycleRepeatMode advances none -> all -> one -> none and returns the
// new mode.
func (q *Queue) CycleRepeatMode() api.RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.repeatMode {
	case api.RepeatNone:
		q.repeatMode = api.RepeatAll
	case api.RepeatAll:
		q.repeatMode = api.RepeatOne
	default:
		q.repeatMode = api.RepeatNone
	}
	return q.repeatMode
}

// IsShuffled reports whether shuffle is active
func (q *Queue) IsShuffled() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.shuffle
}

// Songs returns a copy of the queue in play order
func (q *Queue) Songs() []*api.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*api.Song, len(q.songs))
	copy(result, q.songs)
	return result
}

// Len returns the number of queued songs
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs)
}

// Index returns the queue position
func (q *Queue) Index() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.index
}

// HasNext reports whether Next would return a song
func (q *Queue) HasNext() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.repeatMode != api.RepeatNone {
		return len(q.songs) > 0
	}
	return q.index < len(q.songs)-1
}

// HasPrevious reports whether Previous would move
func (q *Queue) HasPrevious() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.repeatMode != api.RepeatNone {
		return len(q.songs) > 0
	}
	return q.index > 0
}
