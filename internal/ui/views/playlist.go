package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/ui/components"
)

// PlaylistOpenedMsg asks the app to load a playlist's songs from the
// catalog.
type PlaylistOpenedMsg struct {
	ID int64
}

// PlaylistView displays playlist management
type PlaylistView struct {
	Width       int
	Height      int
	SongList    components.SongList
	Playlists   []api.Playlist
	Current     *api.Playlist
	ShowingList bool // true = showing playlists, false = showing songs
	Selected    int
	BorderStyle lipgloss.Style
	TitleStyle  lipgloss.Style
}

// NewPlaylistView creates a new playlist view
func NewPlaylistView(width, height int) PlaylistView {
	songList := components.NewSongList(height-8, width-6)
	songList.Title = "📋 Playlist"

	return PlaylistView{
		Width:       width,
		Height:      height,
		SongList:    songList,
		ShowingList: true,
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
	}
}

// SetPlaylists sets the available playlists
func (v *PlaylistView) SetPlaylists(playlists []api.Playlist) {
	v.Playlists = playlists
	if v.Selected >= len(playlists) {
		v.Selected = 0
	}
}

// ShowSongs switches the view to one playlist's resolved songs
func (v *PlaylistView) ShowSongs(playlist api.Playlist, songs []*api.Song) {
	v.Current = &playlist
	v.ShowingList = false
	v.SongList.SetItems(songs)
	v.SongList.Title = "📋 " + playlist.Name
}

// Update handles messages
func (v PlaylistView) Update(msg tea.Msg) (PlaylistView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.ShowingList {
			switch msg.String() {
			case "up", "k":
				if v.Selected > 0 {
					v.Selected--
				}
			case "down", "j":
				if v.Selected < len(v.Playlists)-1 {
					v.Selected++
				}
			case "enter":
				if v.Selected < len(v.Playlists) {
					id := v.Playlists[v.Selected].ID
					return v, func() tea.Msg {
						return PlaylistOpenedMsg{ID: id}
					}
				}
			}
		} else {
			switch msg.String() {
			case "backspace", "esc":
				v.ShowingList = true
				v.Current = nil
				return v, nil
			default:
				v.SongList, _ = v.SongList.Update(msg)
			}
		}
	}
	return v, nil
}

// SelectedSong returns the currently selected song
func (v *PlaylistView) SelectedSong() *api.Song {
	if v.ShowingList {
		return nil
	}
	return v.SongList.SelectedItem()
}

// Songs returns the songs of the open playlist
func (v *PlaylistView) Songs() []*api.Song {
	if v.ShowingList {
		return nil
	}
	return v.SongList.Items
}

// View renders the playlist view
func (v PlaylistView) View() string {
	var sb strings.Builder

	if v.ShowingList {
		sb.WriteString(v.TitleStyle.Render("📋 Playlists"))
		sb.WriteString("\n\n")

		if len(v.Playlists) == 0 {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("No playlists yet"))
		} else {
			selectedStyle := lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Bold(true).
				Padding(0, 1)
			normalStyle := lipgloss.NewStyle().Padding(0, 1)

			for i, pl := range v.Playlists {
				line := fmt.Sprintf("%s  %s", pl.Name,
					lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(
						pl.CreatedAt.Format("2006-01-02")))

				if i == v.Selected {
					sb.WriteString(selectedStyle.Render(line))
				} else {
					sb.WriteString(normalStyle.Render(line))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(
			"[Enter] Open  [↑↓] Navigate"))
	} else {
		sb.WriteString(v.SongList.View())
		sb.WriteString("\n\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(
			"[Backspace/Esc] Back  [Enter] Play  [↑↓] Navigate"))
	}

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
