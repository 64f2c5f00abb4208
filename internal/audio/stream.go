package audio

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto"

	playerrors "github.com/jscyril/concerto/pkg/errors"
)

// streamBufferBytes is the oto device buffer: 16-bit stereo PCM.
const streamBufferBytes = 8192

// Ensure StreamBackend implements Backend at compile time
var _ Backend = (*StreamBackend)(nil)

// StreamBackend is the dedicated streaming engine: a feeder goroutine
// decodes mp3 frames and writes raw PCM straight to the oto device.
// Pausing gates the feeder, seeking repositions the decoder. The device
// context is opened once at the first track's sample rate; mp3 is the
// only format this backend accepts, and it has no gapless pre-queue.
type StreamBackend struct {
	mu sync.Mutex

	ctx        *oto.Context
	player     *oto.Player
	sampleRate int

	file *os.File
	dec  *mp3.Decoder

	started bool
	paused  bool
	ended   bool
	endedAt time.Time

	bytesPlayed int64
	totalBytes  int64

	quit chan struct{}
	done chan struct{}

	window *captureWindow
}

func NewStreamBackend() *StreamBackend {
	return &StreamBackend{window: newCaptureWindow(2 * TapCapacity)}
}

func (b *StreamBackend) Play(path string) error {
	b.Stop()

	file, err := os.Open(path)
	if err != nil {
		return playerrors.NewPlayerError("open", path, err)
	}

	dec, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return playerrors.NewPlayerError("decode", path, fmt.Errorf("%w: %v", playerrors.ErrDecodeFailed, err))
	}

	b.mu.Lock()
	if b.ctx == nil {
		ctx, err := oto.NewContext(dec.SampleRate(), 2, 2, streamBufferBytes)
		if err != nil {
			b.mu.Unlock()
			file.Close()
			return fmt.Errorf("%w: %v", playerrors.ErrDeviceUnavailable, err)
		}
		b.ctx = ctx
		b.sampleRate = dec.SampleRate()
	} else if dec.SampleRate() != b.sampleRate {
		// The oto context is fixed at the rate of the first track played.
		b.mu.Unlock()
		file.Close()
		return playerrors.NewPlayerError("decode", path,
			fmt.Errorf("%w: output opened at %d Hz, file is %d Hz",
				playerrors.ErrDecodeFailed, b.sampleRate, dec.SampleRate()))
	}

	b.player = b.ctx.NewPlayer()
	b.file = file
	b.dec = dec
	b.started = true
	b.paused = false
	b.ended = false
	b.bytesPlayed = 0
	b.totalBytes = dec.Length()
	b.quit = make(chan struct{})
	b.done = make(chan struct{})
	go b.feed(dec, b.player, b.quit, b.done)
	b.mu.Unlock()
	return nil
}

// feed pumps decoded PCM into the device until the stream ends or Stop
// closes quit. Write blocks while the device buffer is full, which paces
// the whole loop.
func (b *StreamBackend) feed(dec *mp3.Decoder, player *oto.Player, quit, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 4096)
	for {
		select {
		case <-quit:
			return
		default:
		}

		b.mu.Lock()
		paused := b.paused
		b.mu.Unlock()
		if paused {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		b.mu.Lock()
		n, err := dec.Read(buf)
		b.mu.Unlock()

		if n > 0 {
			b.capturePCM(buf[:n])
			if _, werr := player.Write(buf[:n]); werr != nil {
				err = werr
			}
			b.mu.Lock()
			b.bytesPlayed += int64(n)
			b.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				// A mid-stream decode error ends the track the same way
				// EOF does; the engine observes TrackEnded.
				_ = err
			}
			b.mu.Lock()
			b.ended = true
			b.endedAt = time.Now()
			b.mu.Unlock()
			return
		}
	}
}

// capturePCM folds 16-bit little-endian stereo frames into the mono
// sample window.
func (b *StreamBackend) capturePCM(pcm []byte) {
	frames := len(pcm) / 4
	if frames == 0 {
		return
	}
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		r := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		samples[i] = (float32(l) + float32(r)) / 2 / 32768
	}
	b.window.push(samples...)
}

func (b *StreamBackend) Pause() {
	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()
}

func (b *StreamBackend) Resume() {
	b.mu.Lock()
	b.paused = false
	b.mu.Unlock()
}

func (b *StreamBackend) Stop() {
	b.mu.Lock()
	quit, done := b.quit, b.done
	player, file := b.player, b.file
	b.quit = nil
	b.done = nil
	b.player = nil
	b.file = nil
	b.dec = nil
	b.started = false
	b.paused = false
	b.ended = false
	b.bytesPlayed = 0
	b.mu.Unlock()

	if quit != nil {
		close(quit)
		<-done
	}
	if player != nil {
		player.Close()
	}
	if file != nil {
		file.Close()
	}
	b.window.drain()
}

func (b *StreamBackend) bytesPerSecond() int64 {
	return int64(b.sampleRate) * 4
}

func (b *StreamBackend) SeekForward(seconds int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dec == nil {
		return nil
	}
	target := b.bytesPlayed + int64(seconds)*b.bytesPerSecond()
	target &^= 3
	if b.totalBytes >= 0 && target >= b.totalBytes {
		return playerrors.ErrSeekOutOfRange
	}
	return b.seekTo(target)
}

func (b *StreamBackend) SeekBack(seconds int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dec == nil {
		return nil
	}
	target := b.bytesPlayed - int64(seconds)*b.bytesPerSecond()
	target &^= 3
	if target < 0 {
		target = 0
	}
	return b.seekTo(target)
}

// seekTo repositions the decoder; callers hold b.mu, which also keeps the
// feeder out of dec.Read for the duration.
func (b *StreamBackend) seekTo(offset int64) error {
	if _, err := b.dec.Seek(offset, io.SeekStart); err != nil {
		return playerrors.NewPlayerError("seek", "", fmt.Errorf("%w: %v", playerrors.ErrSeekUnsupported, err))
	}
	b.bytesPlayed = offset
	b.ended = false
	return nil
}

func (b *StreamBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started || b.sampleRate == 0 {
		return 0
	}
	return time.Duration(b.bytesPlayed) * time.Second / time.Duration(b.bytesPerSecond())
}

func (b *StreamBackend) IsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started && b.paused
}

func (b *StreamBackend) IsStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.started
}

func (b *StreamBackend) TrackEnded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started || !b.ended {
		return false
	}
	// oto exposes no buffer fill level; the device buffer holds a known
	// number of bytes, so wait out its duration after the final write.
	drain := time.Duration(streamBufferBytes) * time.Second / time.Duration(b.bytesPerSecond())
	return time.Since(b.endedAt) >= drain
}

func (b *StreamBackend) SupportsGapless() bool { return false }

func (b *StreamBackend) SetNext(string) error {
	return playerrors.ErrGaplessUnsupported
}

func (b *StreamBackend) ClearNext() {}

func (b *StreamBackend) DrainSamples() []float32 {
	return b.window.drain()
}

func (b *StreamBackend) Close() error {
	b.Stop()

	b.mu.Lock()
	ctx := b.ctx
	b.ctx = nil
	b.mu.Unlock()
	if ctx != nil {
		ctx.Close()
	}
	return nil
}
