package audio

import (
	"time"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/pkg/log"
)

// refreshRate is the engine tick, matched to the UI refresh cadence.
const refreshRate = 33 * time.Millisecond

// engine owns the backend and runs the playback state machine on its own
// goroutine. Nothing outside this goroutine ever touches the backend;
// Metrics is the only cross-thread read surface.
type engine struct {
	backend  Backend
	metrics  *Metrics
	commands <-chan api.Command
	events   chan<- api.Event
	tick     time.Duration
	done     <-chan struct{}
	stopped  chan<- struct{}

	current *api.Track
	next    *api.Track
}

// run executes the loop body at the tick cadence: drain commands, check
// for track end, refresh metrics. A hung backend call delays the tick but
// never corrupts state; shutdown is cooperative through done.
func (e *engine) run() {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			e.drainCommands()
			if err := e.backend.Close(); err != nil {
				log.Warnf("backend close: %v", err)
			}
			close(e.stopped)
			return
		case <-ticker.C:
			e.drainCommands()
			e.checkTrackEnd()
			e.updateMetrics()
		}
	}
}

func (e *engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			e.handleCommand(cmd)
		default:
			return
		}
	}
}

func (e *engine) handleCommand(cmd api.Command) {
	switch cmd.Type {
	case api.CmdPlay:
		e.play(*cmd.Track)
	case api.CmdSetNext:
		e.setNext(cmd.Track)
	case api.CmdClearNext:
		e.next = nil
		e.backend.ClearNext()
	case api.CmdTogglePlayback:
		e.togglePlayback()
	case api.CmdStop:
		e.stop()
	case api.CmdSeekForward:
		e.seek(cmd.Seconds, e.backend.SeekForward)
	case api.CmdSeekBack:
		e.seek(cmd.Seconds, e.backend.SeekBack)
	}
}

func (e *engine) play(track api.Track) {
	// A fresh decode replaces everything, queued next included.
	e.next = nil
	if err := e.backend.Play(track.Path); err != nil {
		e.current = nil
		e.metrics.reset()
		e.emitError(err)
		return
	}

	e.current = &track
	e.metrics.setState(api.StatePlaying)
	e.metrics.setElapsed(0)
	e.emit(api.Event{Type: api.EventTrackStarted, Track: track})
}

func (e *engine) setNext(track *api.Track) {
	if !e.backend.SupportsGapless() {
		return
	}
	if track == nil {
		e.next = nil
		e.backend.ClearNext()
		return
	}
	// With nothing playing there is no stream to hand off from; a
	// queued entry would sit in the backend until the next Play.
	if e.current == nil {
		return
	}
	if err := e.backend.SetNext(track.Path); err != nil {
		e.emitError(err)
		return
	}
	e.next = track
}

func (e *engine) togglePlayback() {
	if e.backend.IsStopped() {
		return
	}
	if e.backend.IsPaused() {
		e.backend.Resume()
		e.metrics.setState(api.StatePlaying)
	} else {
		e.backend.Pause()
		e.metrics.setState(api.StatePaused)
	}
}

func (e *engine) stop() {
	e.backend.Stop()
	e.current = nil
	e.metrics.reset()
}

func (e *engine) seek(seconds int, fn func(int) error) {
	if e.backend.IsStopped() {
		return
	}
	if err := fn(seconds); err != nil {
		e.emitError(err)
	}
}

// checkTrackEnd promotes a queued next track at end-of-stream, or winds
// playback down when there is none. Guarding on current ensures the stop
// event fires once.
func (e *engine) checkTrackEnd() {
	if e.current == nil || !e.backend.TrackEnded() {
		return
	}

	if e.next != nil && e.backend.SupportsGapless() {
		e.current = e.next
		e.next = nil
		e.metrics.setState(api.StatePlaying)
		e.emit(api.Event{Type: api.EventTrackStarted, Track: *e.current, Gapless: true})
		return
	}

	// A drained backend still reports itself as started; stop it so
	// toggle and seek see a stopped device and resources are released.
	e.backend.Stop()
	e.current = nil
	e.metrics.reset()
	e.emit(api.Event{Type: api.EventPlaybackStopped})
}

func (e *engine) updateMetrics() {
	if e.current != nil {
		e.metrics.setElapsed(e.backend.Position())
	}
	e.metrics.pushSamples(e.backend.DrainSamples())
}

func (e *engine) emit(event api.Event) {
	select {
	case e.events <- event:
	default:
		log.Warnf("event channel full, dropping %v", event.Type)
	}
}

func (e *engine) emitError(err error) {
	log.Errorf("playback: %v", err)
	e.emit(api.Event{Type: api.EventError, Message: err.Error()})
}
