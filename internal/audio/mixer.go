package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	playerrors "github.com/jscyril/concerto/pkg/errors"
)

// mixerSampleRate is the fixed speaker rate; files at other rates are
// resampled into the pipeline.
const mixerSampleRate = beep.SampleRate(44100)

// Ensure MixerBackend implements Backend at compile time
var _ Backend = (*MixerBackend)(nil)

// MixerBackend drives the beep speaker mixer through a persistent
// pipeline: gaplessQueue -> Ctrl -> Volume -> sample tap -> speaker. The
// queue never ends, so the speaker keeps the device open across tracks
// and a pre-queued next track plays through with no gap.
type MixerBackend struct {
	queue  *gaplessQueue
	ctrl   *beep.Ctrl
	volume *effects.Volume
	window *captureWindow
}

// NewMixerBackend opens the default output device at 44.1 kHz.
func NewMixerBackend() (*MixerBackend, error) {
	if err := speaker.Init(mixerSampleRate, mixerSampleRate.N(time.Second/20)); err != nil {
		return nil, fmt.Errorf("%w: %v", playerrors.ErrDeviceUnavailable, err)
	}

	b := &MixerBackend{
		queue:  &gaplessQueue{},
		window: newCaptureWindow(2 * TapCapacity),
	}
	b.ctrl = &beep.Ctrl{Streamer: b.queue}
	b.volume = &effects.Volume{Streamer: b.ctrl, Base: 2}
	speaker.Play(&tapStreamer{s: b.volume, window: b.window})
	return b, nil
}

// openTrack decodes path into a pipeline entry without touching the
// running pipeline.
func (b *MixerBackend) openTrack(path string) (*pipelineTrack, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, playerrors.NewPlayerError("open", path, err)
	}

	streamer, format, err := DecodeAudio(file, path)
	if err != nil {
		file.Close()
		return nil, playerrors.NewPlayerError("decode", path, fmt.Errorf("%w: %v", playerrors.ErrDecodeFailed, err))
	}

	t := &pipelineTrack{
		streamer: streamer,
		format:   format,
		out:      streamer,
		closer:   func() { file.Close() },
	}
	if format.SampleRate != mixerSampleRate {
		t.out = beep.Resample(4, format.SampleRate, mixerSampleRate, streamer)
	}
	return t, nil
}

// Play replaces the entire queue with a fresh decode of path.
func (b *MixerBackend) Play(path string) error {
	t, err := b.openTrack(path)
	if err != nil {
		b.Stop()
		return err
	}

	speaker.Lock()
	b.queue.setCurrent(t)
	b.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (b *MixerBackend) Pause() {
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
}

func (b *MixerBackend) Resume() {
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
}

func (b *MixerBackend) Stop() {
	speaker.Lock()
	b.queue.clear()
	b.ctrl.Paused = false
	speaker.Unlock()
	b.window.drain()
}

func (b *MixerBackend) SeekForward(seconds int) error {
	speaker.Lock()
	defer speaker.Unlock()

	t := b.queue.current
	if t == nil {
		return nil
	}

	target := t.streamer.Position() + t.format.SampleRate.N(time.Duration(seconds)*time.Second)
	if target >= t.streamer.Len() {
		return playerrors.ErrSeekOutOfRange
	}
	if err := t.streamer.Seek(target); err != nil {
		return playerrors.NewPlayerError("seek", "", fmt.Errorf("%w: %v", playerrors.ErrSeekUnsupported, err))
	}
	return nil
}

func (b *MixerBackend) SeekBack(seconds int) error {
	speaker.Lock()
	defer speaker.Unlock()

	t := b.queue.current
	if t == nil {
		return nil
	}

	target := t.streamer.Position() - t.format.SampleRate.N(time.Duration(seconds)*time.Second)
	if target < 0 {
		target = 0
	}
	if err := t.streamer.Seek(target); err != nil {
		return playerrors.NewPlayerError("seek", "", fmt.Errorf("%w: %v", playerrors.ErrSeekUnsupported, err))
	}
	return nil
}

func (b *MixerBackend) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()

	t := b.queue.current
	if t == nil {
		return 0
	}
	return t.format.SampleRate.D(t.streamer.Position())
}

func (b *MixerBackend) IsPaused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return b.ctrl.Paused && b.queue.current != nil
}

func (b *MixerBackend) IsStopped() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return b.queue.current == nil
}

func (b *MixerBackend) TrackEnded() bool {
	speaker.Lock()
	defer speaker.Unlock()

	if b.queue.takeHandoff() {
		return true
	}
	return b.queue.drained()
}

func (b *MixerBackend) SupportsGapless() bool { return true }

// SetNext pre-loads a second decode so end-of-stream continues without a
// gap. Failure leaves the current playback untouched.
func (b *MixerBackend) SetNext(path string) error {
	t, err := b.openTrack(path)
	if err != nil {
		return err
	}

	speaker.Lock()
	b.queue.setNext(t)
	speaker.Unlock()
	return nil
}

func (b *MixerBackend) ClearNext() {
	speaker.Lock()
	b.queue.clearNext()
	speaker.Unlock()
}

func (b *MixerBackend) DrainSamples() []float32 {
	return b.window.drain()
}

// SetVolume maps a 0..1 level onto the volume effect's exponential scale.
func (b *MixerBackend) SetVolume(level float64) {
	speaker.Lock()
	b.volume.Volume = level*2 - 1
	b.volume.Silent = level <= 0
	speaker.Unlock()
}

func (b *MixerBackend) Close() error {
	b.Stop()
	speaker.Clear()
	return nil
}
