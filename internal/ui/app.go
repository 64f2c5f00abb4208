package ui

import (
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/audio"
	"github.com/jscyril/concerto/internal/config"
	"github.com/jscyril/concerto/internal/library"
	"github.com/jscyril/concerto/internal/playlist"
	"github.com/jscyril/concerto/internal/ui/views"
	"github.com/jscyril/concerto/pkg/log"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewPlayer ViewType = iota
	ViewLibrary
	ViewPlaylist
)

// VolumeControl is implemented by backends that can change output gain.
type VolumeControl interface {
	SetVolume(level float64)
}

// SongStore persists songs added from the file browser.
type SongStore interface {
	SaveSongs(songs []*api.Song) error
}

// SessionStore remembers small bits of state across restarts.
type SessionStore interface {
	SetSessionValue(key, value string) error
	SessionValue(key string) (string, error)
}

// Session state keys.
const (
	sessionVolumeKey = "volume"
	sessionViewKey   = "view"
)

// Options wires the app to the rest of the player.
type Options struct {
	Player    *audio.Handle
	Library   *library.Library
	Playlists *playlist.Manager
	Events    <-chan api.Event
	Volume    VolumeControl // nil when the backend has no gain control
	Store     SongStore     // nil skips persistence of added files
	Session   SessionStore  // nil disables cross-restart state
	Config    *config.Config
	Gapless   bool
}

// Model is the main bubbletea model
type Model struct {
	width  int
	height int

	activeView ViewType

	playerView   views.PlayerView
	libraryView  views.LibraryView
	playlistView views.PlaylistView

	player    *audio.Handle
	library   *library.Library
	playlists *playlist.Manager
	queue     *playlist.Queue
	events    <-chan api.Event
	volumeCtl VolumeControl
	store     SongStore
	session   SessionStore

	gapless  bool
	seekStep int
	keys     config.KeyMap

	current *api.Song
	volume  float64
	notice  string

	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	noticeStyle    lipgloss.Style
}

// TickMsg drives metrics polling and the oscilloscope
type TickMsg time.Time

// NewModel creates a new application model
func NewModel(opts Options) Model {
	m := Model{
		width:      80,
		height:     24,
		activeView: ViewLibrary,
		player:     opts.Player,
		library:    opts.Library,
		playlists:  opts.Playlists,
		queue:      playlist.NewQueue(),
		events:     opts.Events,
		volumeCtl:  opts.Volume,
		store:      opts.Store,
		session:    opts.Session,
		gapless:    opts.Gapless,
		seekStep:   opts.Config.SeekStepSeconds,
		keys:       opts.Config.KeyBindings,
		volume:     opts.Config.DefaultVolume,
		tabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("240")),
		activeTabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("236")),
		noticeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}

	m.playerView = views.NewPlayerView(m.width, 10, opts.Config.ShowOscilloscope)
	m.libraryView = views.NewLibraryView(m.width, m.height-12)
	m.playlistView = views.NewPlaylistView(m.width, m.height-12)

	m.libraryView.SetSongs(opts.Library.AllSongs())
	m.playlistView.SetPlaylists(opts.Playlists.All())

	m.restoreSession()
	if m.volumeCtl != nil {
		m.volumeCtl.SetVolume(m.volume)
	}

	return m
}

// restoreSession picks up volume and view from the previous run.
func (m *Model) restoreSession() {
	if m.session == nil {
		return
	}
	if raw, err := m.session.SessionValue(sessionVolumeKey); err == nil && raw != "" {
		if level, err := strconv.ParseFloat(raw, 64); err == nil && level >= 0 && level <= 1 {
			m.volume = level
		}
	}
	if raw, err := m.session.SessionValue(sessionViewKey); err == nil && raw != "" {
		if view, err := strconv.Atoi(raw); err == nil && view >= 0 && view <= int(ViewPlaylist) {
			m.activeView = ViewType(view)
		}
	}
}

// saveSession persists volume and view before quitting.
func (m *Model) saveSession() {
	if m.session == nil {
		return
	}
	if err := m.session.SetSessionValue(sessionVolumeKey, strconv.FormatFloat(m.volume, 'f', 2, 64)); err != nil {
		log.Warnf("save session volume: %v", err)
	}
	if err := m.session.SetSessionValue(sessionViewKey, strconv.Itoa(int(m.activeView))); err != nil {
		log.Warnf("save session view: %v", err)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd keeps the render loop a bit faster than the engine's own tick
// so elapsed time and the oscilloscope stay smooth.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case TickMsg:
		m.drainEvents()
		m.playerView.PushSamples(m.player.Metrics().Samples())
		m.playerView.SetStatus(views.PlayerStatus{
			Song:    m.current,
			State:   m.player.State(),
			Elapsed: m.player.Elapsed(),
			Volume:  m.volume,
			Repeat:  m.queue.RepeatMode(),
			Shuffle: m.queue.IsShuffled(),
		})
		cmds = append(cmds, tickCmd())

	case views.FileAddedMsg:
		song, err := m.library.AddFile(msg.Path)
		if err != nil {
			m.notice = err.Error()
		} else {
			m.libraryView.AddSong(song)
			if m.store != nil {
				if err := m.store.SaveSongs([]*api.Song{song}); err != nil {
					log.Errorf("persist added file: %v", err)
				}
			}
		}

	case views.PlaylistOpenedMsg:
		m.openPlaylist(msg.ID)

	case tea.KeyMsg:
		return m.handleKey(msg, cmds)
	}

	return m, tea.Batch(cmds...)
}

// drainEvents applies everything the engine published since the last
// tick.
func (m *Model) drainEvents() {
	for {
		select {
		case event := <-m.events:
			m.handleEvent(event)
		default:
			return
		}
	}
}

func (m *Model) handleEvent(event api.Event) {
	switch event.Type {
	case api.EventTrackStarted:
		if event.Gapless {
			// The backend already switched tracks; move the queue to
			// match.
			m.queue.Next()
		}
		if song, err := m.library.Song(event.Track.ID); err == nil {
			m.current = song
		} else if current := m.queue.Current(); current != nil {
			m.current = current
		}
		m.notice = ""
		m.preQueueNext()

	case api.EventPlaybackStopped:
		if next := m.queue.Next(); next != nil {
			m.playSong(next)
		} else {
			m.current = nil
		}

	case api.EventError:
		m.notice = event.Message
	}
}

// playSong starts playback and pre-queues the follow-up track.
func (m *Model) playSong(song *api.Song) {
	m.current = song
	if err := m.player.Play(song.Track()); err != nil {
		m.notice = err.Error()
	}
}

// preQueueNext hands the upcoming track to the backend so the switch
// happens inside the audio callback.
func (m *Model) preQueueNext() {
	if !m.gapless {
		return
	}
	if next := m.queue.PeekNext(); next != nil {
		track := next.Track()
		m.player.SetNext(&track)
	} else {
		m.player.ClearNext()
	}
}

func (m *Model) openPlaylist(id int64) {
	songs, err := m.playlists.Songs(id)
	if err != nil {
		m.notice = err.Error()
		return
	}
	for _, pl := range m.playlists.All() {
		if pl.ID == id {
			m.playlistView.ShowSongs(pl, songs)
			return
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	// Search and file browser modes swallow everything except quit.
	if m.activeView == ViewLibrary && (m.libraryView.Searching || m.libraryView.Browsing) {
		switch msg.String() {
		case "ctrl+c":
			m.saveSession()
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.libraryView, cmd = m.libraryView.Update(msg)
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		}
	}

	switch msg.String() {
	case m.keys.Quit, "ctrl+c":
		m.saveSession()
		return m, tea.Quit

	case "1":
		m.activeView = ViewPlayer
	case "2":
		m.activeView = ViewLibrary
	case "3":
		m.activeView = ViewPlaylist
	case "tab":
		m.activeView = (m.activeView + 1) % 3

	case m.keys.PlayPause:
		if m.player.State() == api.StateStopped {
			if current := m.queue.Current(); current != nil {
				m.playSong(current)
			}
		} else {
			m.player.TogglePlayback()
		}

	case m.keys.Stop:
		m.player.Stop()

	case m.keys.Next:
		if next := m.queue.Next(); next != nil {
			m.playSong(next)
		}

	case m.keys.Previous:
		if prev := m.queue.Previous(); prev != nil {
			m.playSong(prev)
		}

	case m.keys.SeekForward:
		m.player.SeekForward(m.seekStep)
	case m.keys.SeekBack:
		m.player.SeekBack(m.seekStep)

	case m.keys.VolumeUp, "=":
		m.setVolume(m.volume + 0.1)
	case m.keys.VolumeDown:
		m.setVolume(m.volume - 0.1)

	case m.keys.Repeat:
		m.queue.CycleRepeatMode()
		m.preQueueNext()

	case m.keys.Shuffle:
		if m.queue.IsShuffled() {
			m.queue.Unshuffle()
		} else {
			m.queue.Shuffle()
		}
		m.preQueueNext()

	case "enter":
		m.playSelection()

	default:
		var cmd tea.Cmd
		switch m.activeView {
		case ViewLibrary:
			m.libraryView, cmd = m.libraryView.Update(msg)
		case ViewPlaylist:
			m.playlistView, cmd = m.playlistView.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// playSelection loads the active view's songs into the queue starting at
// the selection and plays.
func (m *Model) playSelection() {
	var songs []*api.Song
	var selected *api.Song

	switch m.activeView {
	case ViewLibrary:
		songs = m.libraryView.VisibleSongs()
		selected = m.libraryView.SelectedSong()
	case ViewPlaylist:
		songs = m.playlistView.Songs()
		selected = m.playlistView.SelectedSong()
	}
	if selected == nil || len(songs) == 0 {
		return
	}

	start := 0
	for i, song := range songs {
		if song.ID == selected.ID {
			start = i
			break
		}
	}
	m.queue.Set(songs, start)
	m.playSong(selected)
}

func (m *Model) setVolume(level float64) {
	if level > 1 {
		level = 1
	}
	if level < 0 {
		level = 0
	}
	m.volume = level
	if m.volumeCtl != nil {
		m.volumeCtl.SetVolume(level)
	}
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.playerView.Width = m.width
	m.playerView.Height = 10
	m.libraryView.Width = m.width
	m.libraryView.Height = m.height - 12
	m.playlistView.Width = m.width
	m.playlistView.Height = m.height - 12
}

// View renders the UI
func (m Model) View() string {
	var sb string

	sb += m.renderTabs()
	sb += "\n"

	switch m.activeView {
	case ViewPlayer:
		sb += m.playerView.View()
	case ViewLibrary:
		sb += m.playerView.View()
		sb += "\n"
		sb += m.libraryView.View()
	case ViewPlaylist:
		sb += m.playerView.View()
		sb += "\n"
		sb += m.playlistView.View()
	}

	if m.notice != "" {
		sb += "\n" + m.noticeStyle.Render(fmt.Sprintf("Error: %s", m.notice))
	}

	return sb
}

// renderTabs renders the tab bar
func (m Model) renderTabs() string {
	tabs := []string{"[1] Player", "[2] Library", "[3] Playlist"}

	var rendered []string
	for i, tab := range tabs {
		if ViewType(i) == m.activeView {
			rendered = append(rendered, m.activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, m.tabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the bubbletea program
func Run(opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
