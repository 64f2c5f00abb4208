package audio

import (
	"github.com/faiface/beep"
)

// pipelineTrack bundles the resources of one decoded track inside the
// mixer pipeline. out is the stream actually pulled (resampled to the
// speaker rate when the file's rate differs), streamer keeps the seek
// and position surface in the track's native rate.
type pipelineTrack struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	out      beep.Streamer
	closer   func()
}

func (t *pipelineTrack) close() {
	if t == nil {
		return
	}
	t.streamer.Close()
	if t.closer != nil {
		t.closer()
	}
}

// gaplessQueue is a never-ending streamer holding at most a current and a
// pre-queued next track. When the current track exhausts mid-callback the
// next one is promoted in place, so playback continues in the same output
// buffer with no silence gap. All mutation happens under the speaker lock.
type gaplessQueue struct {
	current *pipelineTrack
	next    *pipelineTrack

	// handoff latches when next is promoted; the backend reports it to
	// the engine exactly once so the TrackStarted event fires once.
	handoff bool
	started bool
}

func (q *gaplessQueue) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		if q.current == nil {
			for i := filled; i < len(samples); i++ {
				samples[i] = [2]float64{}
			}
			break
		}

		n, ok := q.current.out.Stream(samples[filled:])
		filled += n
		if !ok {
			q.current.close()
			if q.next != nil {
				q.current = q.next
				q.next = nil
				q.handoff = true
			} else {
				q.current = nil
			}
		}
	}
	return len(samples), true
}

func (q *gaplessQueue) Err() error {
	return nil
}

// setCurrent replaces both slots with a fresh track.
func (q *gaplessQueue) setCurrent(t *pipelineTrack) {
	q.current.close()
	q.next.close()
	q.current = t
	q.next = nil
	q.handoff = false
	q.started = true
}

func (q *gaplessQueue) setNext(t *pipelineTrack) {
	q.next.close()
	q.next = t
}

func (q *gaplessQueue) clearNext() {
	q.next.close()
	q.next = nil
}

func (q *gaplessQueue) clear() {
	q.current.close()
	q.next.close()
	q.current = nil
	q.next = nil
	q.handoff = false
	q.started = false
}

// takeHandoff reports and clears the handoff latch.
func (q *gaplessQueue) takeHandoff() bool {
	h := q.handoff
	q.handoff = false
	return h
}

// drained reports end-of-stream with nothing promoted: a started queue
// whose current slot emptied out.
func (q *gaplessQueue) drained() bool {
	return q.started && q.current == nil
}
