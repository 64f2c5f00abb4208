package audio

import (
	"sync"
	"time"

	"github.com/jscyril/concerto/api"
	playerrors "github.com/jscyril/concerto/pkg/errors"
)

// Handle is the public facade over the playback engine. It owns the
// engine goroutine for the life of the process; command submission never
// blocks the caller, events can be polled or received from a channel, and
// Metrics can be read synchronously during rendering.
type Handle struct {
	commands  chan api.Command
	events    chan api.Event
	metrics   *Metrics
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewHandle spawns the engine goroutine around backend and returns the
// facade. There is exactly one handle per process.
func NewHandle(backend Backend) *Handle {
	return newHandle(backend, refreshRate)
}

func newHandle(backend Backend, tick time.Duration) *Handle {
	h := &Handle{
		commands: make(chan api.Command, 128),
		events:   make(chan api.Event, 64),
		metrics:  NewMetrics(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	e := &engine{
		backend:  backend,
		metrics:  h.metrics,
		commands: h.commands,
		events:   h.events,
		tick:     tick,
		done:     h.done,
		stopped:  h.stopped,
	}
	go e.run()
	return h
}

// submit enqueues without blocking; a full queue drops the command.
func (h *Handle) submit(cmd api.Command) error {
	select {
	case h.commands <- cmd:
		return nil
	default:
		return playerrors.ErrCommandDropped
	}
}

func (h *Handle) Play(track api.Track) error {
	return h.submit(api.Command{Type: api.CmdPlay, Track: &track})
}

// SetNext pre-queues a track for gapless handoff; nil clears the queue
// slot, as does ClearNext.
func (h *Handle) SetNext(track *api.Track) error {
	if track != nil {
		t := *track
		track = &t
	}
	return h.submit(api.Command{Type: api.CmdSetNext, Track: track})
}

func (h *Handle) ClearNext() error {
	return h.submit(api.Command{Type: api.CmdClearNext})
}

func (h *Handle) TogglePlayback() error {
	return h.submit(api.Command{Type: api.CmdTogglePlayback})
}

func (h *Handle) Stop() error {
	return h.submit(api.Command{Type: api.CmdStop})
}

func (h *Handle) SeekForward(seconds int) error {
	return h.submit(api.Command{Type: api.CmdSeekForward, Seconds: seconds})
}

func (h *Handle) SeekBack(seconds int) error {
	return h.submit(api.Command{Type: api.CmdSeekBack, Seconds: seconds})
}

// Events exposes the event stream for blocking consumers.
func (h *Handle) Events() <-chan api.Event {
	return h.events
}

// PollEvents drains every event available right now without blocking.
func (h *Handle) PollEvents() []api.Event {
	var out []api.Event
	for {
		select {
		case ev := <-h.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Metrics returns the shared read surface for renderers.
func (h *Handle) Metrics() *Metrics {
	return h.metrics
}

// Elapsed is a convenience accessor over Metrics.
func (h *Handle) Elapsed() time.Duration {
	return h.metrics.Elapsed()
}

func (h *Handle) State() api.PlaybackState {
	return h.metrics.State()
}

// Close stops the engine loop cooperatively and waits for it to release
// the backend. Safe to call from multiple goroutines; only the first
// call does the work.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		// Best effort: halt playback before the loop winds down.
		_ = h.Stop()
		close(h.done)
		<-h.stopped
	})
	return nil
}
