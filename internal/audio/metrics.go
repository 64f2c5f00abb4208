package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jscyril/concerto/api"
)

// TapCapacity bounds the sample ring exposed for the oscilloscope.
const TapCapacity = 2048

// Metrics is the concurrently readable playback status. The engine
// goroutine is the only writer; any number of goroutines may read. State
// and elapsed time use atomics, the sample tap uses a try-lock so neither
// the writer nor a renderer ever waits on the other. A reader that loses
// the race simply gets an empty snapshot for that frame.
type Metrics struct {
	state     atomic.Uint32
	elapsedMs atomic.Int64

	tapMu sync.Mutex
	tap   []float32
}

func NewMetrics() *Metrics {
	return &Metrics{tap: make([]float32, 0, TapCapacity)}
}

// State returns the playback state as of the engine's last tick.
func (m *Metrics) State() api.PlaybackState {
	return api.PlaybackState(m.state.Load())
}

// Elapsed returns the playback offset as of the engine's last tick.
func (m *Metrics) Elapsed() time.Duration {
	return time.Duration(m.elapsedMs.Load()) * time.Millisecond
}

func (m *Metrics) IsPaused() bool  { return m.State() == api.StatePaused }
func (m *Metrics) IsStopped() bool { return m.State() == api.StateStopped }

// Samples returns a snapshot of the sample tap, or nil when the tap is
// busy. Never blocks.
func (m *Metrics) Samples() []float32 {
	if !m.tapMu.TryLock() {
		return nil
	}
	defer m.tapMu.Unlock()

	out := make([]float32, len(m.tap))
	copy(out, m.tap)
	return out
}

func (m *Metrics) setState(s api.PlaybackState) {
	m.state.Store(uint32(s))
}

func (m *Metrics) setElapsed(d time.Duration) {
	m.elapsedMs.Store(d.Milliseconds())
}

// pushSamples appends to the tap, dropping the oldest entries beyond
// TapCapacity. Skipped entirely if a reader holds the lock.
func (m *Metrics) pushSamples(samples []float32) {
	if len(samples) == 0 {
		return
	}
	if !m.tapMu.TryLock() {
		return
	}
	defer m.tapMu.Unlock()

	m.tap = append(m.tap, samples...)
	if over := len(m.tap) - TapCapacity; over > 0 {
		m.tap = append(m.tap[:0], m.tap[over:]...)
	}
}

// reset restores the stopped baseline: state Stopped, elapsed zero, tap
// empty. Takes the tap lock unconditionally; the writer side is bounded.
func (m *Metrics) reset() {
	m.setState(api.StateStopped)
	m.setElapsed(0)
	m.tapMu.Lock()
	m.tap = m.tap[:0]
	m.tapMu.Unlock()
}
