package audio

import "time"

// Backend is the capability set over a concrete audio output device. The
// engine goroutine is the only caller; implementations do not need to be
// safe for concurrent use beyond their own internal audio threads.
//
// Two implementations exist: MixerBackend (beep speaker mixer, gapless
// capable) and StreamBackend (dedicated oto feed loop). Which one runs is
// decided once at startup from configuration.
type Backend interface {
	// Play replaces any current playback with a fresh decode of path and
	// starts output. On error the backend is left stopped with nothing
	// in flight.
	Play(path string) error

	// Pause and Resume toggle output flow; both are no-ops when already
	// in the target state.
	Pause()
	Resume()

	// Stop halts output and discards the in-flight decode. Idempotent.
	Stop()

	// SeekForward fails with ErrSeekOutOfRange when the target lies past
	// the end of the track. SeekBack clamps to position zero instead.
	SeekForward(seconds int) error
	SeekBack(seconds int) error

	// Position is monotonic while playing and frozen while paused.
	Position() time.Duration

	IsPaused() bool
	IsStopped() bool

	// TrackEnded reports that the decode stream is exhausted and the
	// device buffer has drained. After a gapless handoff it reports the
	// handoff exactly once.
	TrackEnded() bool

	// SupportsGapless gates SetNext/ClearNext. A pre-queued next track
	// keeps playing through end-of-stream without a silence gap.
	SupportsGapless() bool
	SetNext(path string) error
	ClearNext()

	// DrainSamples returns and clears the window of raw output samples
	// captured since the last call. Visualization only; playback never
	// depends on it.
	DrainSamples() []float32

	Close() error
}
