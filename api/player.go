package api

// CommandType identifies a player command.
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdSetNext
	CmdClearNext
	CmdTogglePlayback
	CmdStop
	CmdSeekForward
	CmdSeekBack
)

// Command is a one-shot instruction to the playback engine. Commands are
// queued by any goroutine and drained in FIFO order on the engine tick;
// no response is ever sent back through the command path.
type Command struct {
	Type    CommandType
	Track   *Track // CmdPlay, CmdSetNext
	Seconds int    // CmdSeekForward, CmdSeekBack
}

// EventType identifies a player event.
type EventType int

const (
	EventTrackStarted EventType = iota
	EventPlaybackStopped
	EventError
)

// Event is emitted by the engine in the order the causing state
// transitions occur.
type Event struct {
	Type    EventType
	Track   Track // EventTrackStarted
	Gapless bool  // true when the track started via gapless handoff
	Message string
}
