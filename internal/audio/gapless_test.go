package audio

import (
	"testing"
)

// memStreamer is an in-memory beep.StreamSeekCloser emitting a constant
// sample value for a fixed number of frames.
type memStreamer struct {
	value  float64
	length int
	pos    int
	closed bool
}

func (s *memStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.length {
		return 0, false
	}
	n := 0
	for i := range samples {
		if s.pos >= s.length {
			break
		}
		samples[i] = [2]float64{s.value, s.value}
		s.pos++
		n++
	}
	return n, true
}

func (s *memStreamer) Err() error { return nil }
func (s *memStreamer) Len() int   { return s.length }
func (s *memStreamer) Position() int {
	return s.pos
}
func (s *memStreamer) Seek(p int) error {
	s.pos = p
	return nil
}
func (s *memStreamer) Close() error {
	s.closed = true
	return nil
}

func track(value float64, frames int) (*pipelineTrack, *memStreamer) {
	ms := &memStreamer{value: value, length: frames}
	return &pipelineTrack{streamer: ms, out: ms}, ms
}

func TestGaplessQueuePromotesWithoutGap(t *testing.T) {
	q := &gaplessQueue{}
	current, currentMS := track(0.5, 100)
	next, _ := track(0.25, 100)
	q.setCurrent(current)
	q.setNext(next)

	buf := make([][2]float64, 150)
	n, ok := q.Stream(buf)
	if n != 150 || !ok {
		t.Fatalf("Stream = (%d, %v), want (150, true)", n, ok)
	}

	for i := 0; i < 100; i++ {
		if buf[i][0] != 0.5 {
			t.Fatalf("frame %d = %v, want 0.5 from current track", i, buf[i][0])
		}
	}
	// The very next frame after exhaustion comes from the queued track.
	for i := 100; i < 150; i++ {
		if buf[i][0] != 0.25 {
			t.Fatalf("frame %d = %v, want 0.25 from promoted track", i, buf[i][0])
		}
	}

	if !currentMS.closed {
		t.Error("exhausted track was not closed")
	}
	if !q.takeHandoff() {
		t.Error("handoff latch not set after promotion")
	}
	if q.takeHandoff() {
		t.Error("handoff latch reported twice")
	}
	if q.drained() {
		t.Error("queue reports drained while promoted track is playing")
	}
}

func TestGaplessQueueDrainsToSilence(t *testing.T) {
	q := &gaplessQueue{}
	current, _ := track(0.5, 10)
	q.setCurrent(current)

	buf := make([][2]float64, 30)
	for i := range buf {
		buf[i] = [2]float64{9, 9}
	}
	n, ok := q.Stream(buf)
	if n != 30 || !ok {
		t.Fatalf("Stream = (%d, %v), want (30, true): the queue never ends", n, ok)
	}

	for i := 10; i < 30; i++ {
		if buf[i][0] != 0 || buf[i][1] != 0 {
			t.Fatalf("frame %d = %v, want silence after drain", i, buf[i])
		}
	}
	if !q.drained() {
		t.Error("queue does not report drained")
	}
	if q.takeHandoff() {
		t.Error("handoff latched with no queued next")
	}
}

func TestGaplessQueueClearClosesEverything(t *testing.T) {
	q := &gaplessQueue{}
	current, currentMS := track(0.5, 10)
	next, nextMS := track(0.25, 10)
	q.setCurrent(current)
	q.setNext(next)

	q.clear()

	if !currentMS.closed || !nextMS.closed {
		t.Error("clear left track resources open")
	}
	if q.drained() {
		t.Error("cleared queue must not report drained")
	}
}

func TestGaplessQueueClearNextKeepsCurrent(t *testing.T) {
	q := &gaplessQueue{}
	current, currentMS := track(0.5, 10)
	next, nextMS := track(0.25, 10)
	q.setCurrent(current)
	q.setNext(next)

	q.clearNext()

	if !nextMS.closed {
		t.Error("clearNext left the queued track open")
	}
	if currentMS.closed {
		t.Error("clearNext closed the current track")
	}
}

func TestCaptureWindowBoundedAndDrains(t *testing.T) {
	w := newCaptureWindow(8)

	for i := 0; i < 20; i++ {
		w.push(float32(i))
	}
	got := w.drain()
	if len(got) != 8 {
		t.Fatalf("window holds %d samples, want 8", len(got))
	}
	if got[0] != 12 || got[7] != 19 {
		t.Errorf("window kept %v, want the 8 newest samples", got)
	}
	if w.drain() != nil {
		t.Error("drain did not clear the window")
	}
}

func TestTapStreamerCapturesMonoMix(t *testing.T) {
	ms := &memStreamer{value: 0.5, length: 10}
	w := newCaptureWindow(64)
	tap := &tapStreamer{s: ms, window: w}

	buf := make([][2]float64, 10)
	tap.Stream(buf)

	got := w.drain()
	if len(got) != 10 {
		t.Fatalf("captured %d samples, want 10", len(got))
	}
	for _, s := range got {
		if s != 0.5 {
			t.Fatalf("captured %v, want mono mix 0.5", s)
		}
	}
}
