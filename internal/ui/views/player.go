package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/ui/components"
)

// PlayerStatus is the snapshot the player view renders each frame. The
// app assembles it from the engine's metrics and the queue.
type PlayerStatus struct {
	Song    *api.Song
	State   api.PlaybackState
	Elapsed time.Duration
	Volume  float64
	Repeat  api.RepeatMode
	Shuffle bool
}

// PlayerView displays the current playback state
type PlayerView struct {
	Width  int
	Height int
	Status PlayerStatus

	ProgressBar  components.ProgressBar
	Oscilloscope components.Oscilloscope
	ShowScope    bool

	TitleStyle    lipgloss.Style
	ArtistStyle   lipgloss.Style
	AlbumStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int, showScope bool) PlayerView {
	return PlayerView{
		Width:        width,
		Height:       height,
		ProgressBar:  components.NewProgressBar(width - 4),
		Oscilloscope: components.NewOscilloscope(width - 10),
		ShowScope:    showScope,
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
		ArtistStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		AlbumStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetStatus updates the playback snapshot
func (v *PlayerView) SetStatus(status PlayerStatus) {
	v.Status = status
	if status.Song != nil {
		v.ProgressBar.SetProgress(status.Elapsed, status.Song.Duration)
	}
	if status.State == api.StateStopped {
		v.Oscilloscope.Reset()
	}
}

// PushSamples feeds a frame from the sample tap into the oscilloscope
func (v *PlayerView) PushSamples(samples []float32) {
	if v.ShowScope {
		v.Oscilloscope.Push(samples)
	}
}

// Update handles messages
func (v PlayerView) Update(msg tea.Msg) (PlayerView, tea.Cmd) {
	return v, nil
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	if v.Status.Song == nil {
		sb.WriteString(v.TitleStyle.Render("♪ No track playing"))
		sb.WriteString("\n\n")
		sb.WriteString(v.ControlsStyle.Render("Press Enter on a song to play"))
	} else {
		song := v.Status.Song

		var statusIcon string
		switch v.Status.State {
		case api.StatePlaying:
			statusIcon = "▶"
		case api.StatePaused:
			statusIcon = "⏸"
		default:
			statusIcon = "⏹"
		}

		sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
		sb.WriteString(v.TitleStyle.Render(song.DisplayTitle()))
		sb.WriteString("\n")
		sb.WriteString(v.ArtistStyle.Render(song.Artist))
		sb.WriteString("\n")
		sb.WriteString(v.AlbumStyle.Render(song.Album))
		sb.WriteString("\n\n")

		sb.WriteString(v.ProgressBar.View())
		sb.WriteString("\n")

		if v.ShowScope {
			sb.WriteString(v.Oscilloscope.View())
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

		volumeBar := renderVolumeBar(v.Status.Volume)
		sb.WriteString(fmt.Sprintf("Volume: %s %d%%", volumeBar, int(v.Status.Volume*100)))
		sb.WriteString("\n")

		var modes []string
		switch v.Status.Repeat {
		case api.RepeatOne:
			modes = append(modes, "🔂 Repeat One")
		case api.RepeatAll:
			modes = append(modes, "🔁 Repeat All")
		}
		if v.Status.Shuffle {
			modes = append(modes, "🔀 Shuffle")
		}
		if len(modes) > 0 {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(strings.Join(modes, " | ")))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(v.ControlsStyle.Render(
		"[Space] Play/Pause  [s] Stop  [n] Next  [p] Prev  [←→] Seek  [+/-] Volume  [q] Quit",
	))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

// renderVolumeBar renders a volume bar
func renderVolumeBar(volume float64) string {
	filled := int(volume * 10)
	if filled > 10 {
		filled = 10
	}
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", empty))
}
