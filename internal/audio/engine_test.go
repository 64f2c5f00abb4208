package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jscyril/concerto/api"
	playerrors "github.com/jscyril/concerto/pkg/errors"
)

const testTick = 2 * time.Millisecond

// fakeBackend is a scripted Backend for engine tests. The end latch is
// consumed by TrackEnded the way the real backends report a finished
// stream exactly once per session.
type fakeBackend struct {
	mu sync.Mutex

	playing  bool
	paused   bool
	endLatch bool
	pos      time.Duration
	gapless  bool

	nextPath string
	playErr  error
	nextErr  error
	seekErr  error

	samples []float32
	calls   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{gapless: true}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Play(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("play:" + path)
	if f.playErr != nil {
		f.playing = false
		return f.playErr
	}
	f.playing = true
	f.paused = false
	f.endLatch = false
	f.pos = 0
	return nil
}

func (f *fakeBackend) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause")
	f.paused = true
}

func (f *fakeBackend) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("resume")
	f.paused = false
}

func (f *fakeBackend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	f.playing = false
	f.paused = false
	f.endLatch = false
	f.pos = 0
}

func (f *fakeBackend) SeekForward(seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("seek_forward")
	if f.seekErr != nil {
		return f.seekErr
	}
	f.pos += time.Duration(seconds) * time.Second
	return nil
}

func (f *fakeBackend) SeekBack(seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("seek_back")
	if f.seekErr != nil {
		return f.seekErr
	}
	f.pos -= time.Duration(seconds) * time.Second
	if f.pos < 0 {
		f.pos = 0
	}
	return nil
}

func (f *fakeBackend) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakeBackend) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing && f.paused
}

func (f *fakeBackend) IsStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.playing
}

func (f *fakeBackend) TrackEnded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endLatch {
		f.endLatch = false
		return true
	}
	return false
}

func (f *fakeBackend) SupportsGapless() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gapless
}

func (f *fakeBackend) SetNext(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_next:" + path)
	if f.nextErr != nil {
		return f.nextErr
	}
	f.nextPath = path
	return nil
}

func (f *fakeBackend) ClearNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear_next")
	f.nextPath = ""
}

func (f *fakeBackend) DrainSamples() []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.samples
	f.samples = nil
	return out
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close")
	return nil
}

func (f *fakeBackend) setPos(d time.Duration) {
	f.mu.Lock()
	f.pos = d
	f.mu.Unlock()
}

func (f *fakeBackend) endTrack() {
	f.mu.Lock()
	f.endLatch = true
	f.mu.Unlock()
}

func (f *fakeBackend) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func newTestHandle(t *testing.T, backend Backend) *Handle {
	t.Helper()
	h := newHandle(backend, testTick)
	t.Cleanup(func() { h.Close() })
	return h
}

// nextEvent blocks until the engine emits something.
func nextEvent(t *testing.T, h *Handle) api.Event {
	t.Helper()
	select {
	case ev := <-h.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return api.Event{}
	}
}

// noEvent asserts silence on the event stream for a few ticks.
func noEvent(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case ev := <-h.Events():
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(20 * testTick):
	}
}

// waitFor polls cond at the engine cadence.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(testTick)
	}
	t.Fatal("condition never became true")
}

func TestPlayEmitsTrackStarted(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	track := api.Track{ID: 1, Path: "/music/a.mp3"}
	if err := h.Play(track); err != nil {
		t.Fatalf("Play: %v", err)
	}

	ev := nextEvent(t, h)
	if ev.Type != api.EventTrackStarted {
		t.Fatalf("expected TrackStarted, got %v", ev.Type)
	}
	if ev.Gapless {
		t.Error("initial play must not be reported as gapless")
	}
	if ev.Track != track {
		t.Errorf("event track = %+v, want %+v", ev.Track, track)
	}

	waitFor(t, func() bool { return h.State() == api.StatePlaying })
}

func TestPlayFailureLeavesEngineStopped(t *testing.T) {
	backend := newFakeBackend()
	backend.playErr = playerrors.ErrDecodeFailed
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/bad.mp3"})

	ev := nextEvent(t, h)
	if ev.Type != api.EventError {
		t.Fatalf("expected Error event, got %v", ev.Type)
	}
	if h.State() != api.StateStopped {
		t.Errorf("state = %v, want stopped", h.State())
	}
	if h.Elapsed() != 0 {
		t.Errorf("elapsed = %v, want 0", h.Elapsed())
	}
}

func TestGaplessHandoff(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	a := api.Track{ID: 1, Path: "/music/a.mp3"}
	b := api.Track{ID: 2, Path: "/music/b.mp3"}
	h.Play(a)
	nextEvent(t, h) // TrackStarted(a)

	h.SetNext(&b)
	waitFor(t, func() bool { return backend.callCount("set_next:/music/b.mp3") == 1 })

	backend.endTrack()

	ev := nextEvent(t, h)
	if ev.Type != api.EventTrackStarted {
		t.Fatalf("expected TrackStarted after handoff, got %v", ev.Type)
	}
	if !ev.Gapless {
		t.Error("handoff start must be marked gapless")
	}
	if ev.Track != b {
		t.Errorf("handoff track = %+v, want %+v", ev.Track, b)
	}

	// No PlaybackStopped anywhere around the transition.
	noEvent(t, h)
	if h.State() != api.StatePlaying {
		t.Errorf("state = %v, want playing", h.State())
	}
}

func TestNaturalEndEmitsPlaybackStopped(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	backend.endTrack()

	ev := nextEvent(t, h)
	if ev.Type != api.EventPlaybackStopped {
		t.Fatalf("expected PlaybackStopped, got %v", ev.Type)
	}
	noEvent(t, h) // exactly one

	if h.State() != api.StateStopped {
		t.Errorf("state = %v, want stopped", h.State())
	}
	if h.Elapsed() != 0 {
		t.Errorf("elapsed = %v, want 0", h.Elapsed())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	for i := 0; i < 3; i++ {
		h.Stop()
		waitFor(t, func() bool { return h.State() == api.StateStopped })
		if h.Elapsed() != 0 {
			t.Fatalf("elapsed = %v after stop %d, want 0", h.Elapsed(), i)
		}
	}
}

func TestToggleAfterNaturalEndStaysStopped(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	backend.endTrack()
	ev := nextEvent(t, h)
	if ev.Type != api.EventPlaybackStopped {
		t.Fatalf("expected PlaybackStopped, got %v", ev.Type)
	}

	// The backend is released, not just abandoned mid-stream.
	waitFor(t, func() bool { return backend.IsStopped() })

	h.TogglePlayback()
	noEvent(t, h)
	if h.State() != api.StateStopped {
		t.Errorf("state = %v after toggle with no track, want stopped", h.State())
	}
	if n := backend.callCount("pause") + backend.callCount("resume"); n != 0 {
		t.Errorf("backend toggled %d times after the track ended", n)
	}
}

func TestToggleWhenStoppedIsNoop(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.TogglePlayback()
	noEvent(t, h)

	if n := backend.callCount("pause") + backend.callCount("resume"); n != 0 {
		t.Errorf("backend toggled %d times while stopped", n)
	}
	if h.State() != api.StateStopped {
		t.Errorf("state = %v, want stopped", h.State())
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	backend.setPos(3 * time.Second)
	waitFor(t, func() bool { return h.Elapsed() == 3*time.Second })

	h.TogglePlayback()
	waitFor(t, func() bool { return h.State() == api.StatePaused })
	if h.Elapsed() != 3*time.Second {
		t.Errorf("elapsed = %v while paused, want 3s", h.Elapsed())
	}

	// Resume: elapsed continues from the pause point, never resets.
	h.TogglePlayback()
	waitFor(t, func() bool { return h.State() == api.StatePlaying })
	backend.setPos(5 * time.Second)
	waitFor(t, func() bool { return h.Elapsed() == 5*time.Second })
}

func TestSeekForwardPastEndEmitsError(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)
	backend.setPos(3 * time.Second)
	waitFor(t, func() bool { return h.Elapsed() == 3*time.Second })

	backend.mu.Lock()
	backend.seekErr = playerrors.ErrSeekOutOfRange
	backend.mu.Unlock()
	h.SeekForward(20)

	ev := nextEvent(t, h)
	if ev.Type != api.EventError {
		t.Fatalf("expected Error event, got %v", ev.Type)
	}
	// The engine does not auto-advance: still playing at the old position.
	if h.State() != api.StatePlaying {
		t.Errorf("state = %v, want playing", h.State())
	}
	if h.Elapsed() != 3*time.Second {
		t.Errorf("elapsed = %v, want unchanged 3s", h.Elapsed())
	}
}

func TestSeekIgnoredWhenStopped(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.SeekForward(10)
	h.SeekBack(10)
	noEvent(t, h)

	if n := backend.callCount("seek_forward") + backend.callCount("seek_back"); n != 0 {
		t.Errorf("backend saw %d seeks while stopped", n)
	}
}

func TestSetNextFailureDoesNotQueue(t *testing.T) {
	backend := newFakeBackend()
	backend.nextErr = errors.New("preload failed")
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	h.SetNext(&api.Track{ID: 2, Path: "/music/b.mp3"})
	ev := nextEvent(t, h)
	if ev.Type != api.EventError {
		t.Fatalf("expected Error event, got %v", ev.Type)
	}

	// With no queued next, end-of-stream is a normal stop.
	backend.endTrack()
	ev = nextEvent(t, h)
	if ev.Type != api.EventPlaybackStopped {
		t.Fatalf("expected PlaybackStopped, got %v", ev.Type)
	}
}

func TestSetNextIgnoredWhileStopped(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.SetNext(&api.Track{ID: 2, Path: "/music/b.mp3"})
	noEvent(t, h)
	if backend.callCount("set_next:/music/b.mp3") != 0 {
		t.Error("SetNext queued a track into a backend with nothing playing")
	}
}

func TestSetNextIgnoredWithoutGapless(t *testing.T) {
	backend := newFakeBackend()
	backend.gapless = false
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)

	h.SetNext(&api.Track{ID: 2, Path: "/music/b.mp3"})
	noEvent(t, h)
	if backend.callCount("set_next:/music/b.mp3") != 0 {
		t.Error("SetNext reached a backend without gapless support")
	}
}

func TestClearNextCancelsHandoff(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	h.Play(api.Track{ID: 1, Path: "/music/a.mp3"})
	nextEvent(t, h)
	h.SetNext(&api.Track{ID: 2, Path: "/music/b.mp3"})
	waitFor(t, func() bool { return backend.callCount("set_next:/music/b.mp3") == 1 })

	h.ClearNext()
	waitFor(t, func() bool { return backend.callCount("clear_next") >= 1 })

	backend.endTrack()
	ev := nextEvent(t, h)
	if ev.Type != api.EventPlaybackStopped {
		t.Fatalf("expected PlaybackStopped after ClearNext, got %v", ev.Type)
	}
}

func TestCloseSafeFromMultipleGoroutines(t *testing.T) {
	backend := newFakeBackend()
	h := newHandle(backend, testTick)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Close()
		}()
	}
	wg.Wait()
	h.Close()

	if n := backend.callCount("close"); n != 1 {
		t.Errorf("backend closed %d times, want 1", n)
	}
}

func TestSamplesReachMetricsTap(t *testing.T) {
	backend := newFakeBackend()
	h := newTestHandle(t, backend)

	backend.mu.Lock()
	backend.samples = []float32{0.1, 0.2, 0.3}
	backend.mu.Unlock()

	waitFor(t, func() bool { return len(h.Metrics().Samples()) == 3 })
}
