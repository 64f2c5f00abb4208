package audio

import (
	"sync"

	"github.com/faiface/beep"
)

// captureWindow collects a mono mix of recently output samples on the
// audio thread. The engine drains it once per tick; if the engine falls
// behind, the oldest samples are dropped. Both backends feed one of these.
type captureWindow struct {
	mu  sync.Mutex
	buf []float32
	cap int
}

func newCaptureWindow(capacity int) *captureWindow {
	return &captureWindow{buf: make([]float32, 0, capacity), cap: capacity}
}

func (w *captureWindow) push(samples ...float32) {
	w.mu.Lock()
	w.buf = append(w.buf, samples...)
	if over := len(w.buf) - w.cap; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	w.mu.Unlock()
}

// drain returns the collected window and clears it.
func (w *captureWindow) drain() []float32 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) == 0 {
		return nil
	}
	out := make([]float32, len(w.buf))
	copy(out, w.buf)
	w.buf = w.buf[:0]
	return out
}

// tapStreamer sits at the end of the mixer pipeline, passing audio
// through while copying a mono mix into the capture window.
type tapStreamer struct {
	s      beep.Streamer
	window *captureWindow
}

func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)

	t.window.mu.Lock()
	for i := 0; i < n; i++ {
		mono := float32((samples[i][0] + samples[i][1]) / 2)
		t.window.buf = append(t.window.buf, mono)
	}
	if over := len(t.window.buf) - t.window.cap; over > 0 {
		t.window.buf = append(t.window.buf[:0], t.window.buf[over:]...)
	}
	t.window.mu.Unlock()

	return n, ok
}

func (t *tapStreamer) Err() error {
	return t.s.Err()
}
