package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/ui/components"
)

// FileAddedMsg is sent when a file is added via the file browser
type FileAddedMsg struct {
	Path string
}

// LibraryView displays the music library
type LibraryView struct {
	Width       int
	Height      int
	SongList    components.SongList
	SearchBar   components.SearchInput
	FileBrowser components.FileBrowser
	Searching   bool
	Browsing    bool // True when file browser is open
	AllSongs    []*api.Song
	BorderStyle lipgloss.Style
	TitleStyle  lipgloss.Style
}

// NewLibraryView creates a new library view
func NewLibraryView(width, height int) LibraryView {
	songList := components.NewSongList(height-8, width-6)
	songList.Title = "🎵 Library"

	return LibraryView{
		Width:       width,
		Height:      height,
		SongList:    songList,
		SearchBar:   components.NewSearchInput(width - 6),
		FileBrowser: components.NewFileBrowser("", width, height),
		AllSongs:    make([]*api.Song, 0),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
	}
}

// SetSongs sets the library songs
func (v *LibraryView) SetSongs(songs []*api.Song) {
	v.AllSongs = songs
	v.SongList.SetItems(songs)
}

// AddSong adds a song to the view
func (v *LibraryView) AddSong(song *api.Song) {
	v.AllSongs = append(v.AllSongs, song)
	v.SongList.SetItems(v.AllSongs)
}

// Update handles messages
func (v LibraryView) Update(msg tea.Msg) (LibraryView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle file browser mode
		if v.Browsing {
			switch msg.String() {
			case "esc":
				v.Browsing = false
				return v, nil
			case "enter":
				filePath := v.FileBrowser.EnterSelected()
				if filePath != "" {
					v.Browsing = false
					return v, func() tea.Msg {
						return FileAddedMsg{Path: filePath}
					}
				}
				// Directory navigation, stay in browser
				return v, nil
			default:
				v.FileBrowser, _ = v.FileBrowser.Update(msg)
			}
			return v, nil
		}

		// Handle search mode
		if v.Searching {
			switch msg.String() {
			case "enter", "esc":
				v.Searching = false
				v.SearchBar.Blur()
				if v.SearchBar.Value != "" {
					v.filterSongs(v.SearchBar.Value)
				} else {
					v.SongList.SetItems(v.AllSongs)
				}
				return v, nil
			default:
				v.SearchBar, _ = v.SearchBar.Update(msg)
				// Live filtering
				v.filterSongs(v.SearchBar.Value)
			}
		} else {
			switch msg.String() {
			case "/":
				v.Searching = true
				v.SearchBar.Focus()
				return v, nil
			case "a":
				v.Browsing = true
				v.FileBrowser = components.NewFileBrowser("", v.Width, v.Height)
				return v, nil
			default:
				v.SongList, _ = v.SongList.Update(msg)
			}
		}
	}
	return v, nil
}

// filterSongs filters songs based on search query
func (v *LibraryView) filterSongs(query string) {
	if query == "" {
		v.SongList.SetItems(v.AllSongs)
		return
	}

	query = strings.ToLower(query)
	filtered := make([]*api.Song, 0)
	for _, song := range v.AllSongs {
		if strings.Contains(strings.ToLower(song.Title), query) ||
			strings.Contains(strings.ToLower(song.Artist), query) ||
			strings.Contains(strings.ToLower(song.Album), query) {
			filtered = append(filtered, song)
		}
	}
	v.SongList.SetItems(filtered)
}

// SelectedSong returns the currently selected song
func (v *LibraryView) SelectedSong() *api.Song {
	return v.SongList.SelectedItem()
}

// VisibleSongs returns the songs in the list as currently filtered
func (v *LibraryView) VisibleSongs() []*api.Song {
	return v.SongList.Items
}

// View renders the library view
func (v LibraryView) View() string {
	if v.Browsing {
		return v.FileBrowser.View()
	}

	var sb strings.Builder

	sb.WriteString(v.SearchBar.View())
	sb.WriteString("\n\n")

	sb.WriteString(v.SongList.View())

	sb.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if v.Searching {
		sb.WriteString(helpStyle.Render("[Enter] Confirm  [Esc] Cancel"))
	} else {
		sb.WriteString(helpStyle.Render("[/] Search  [a] Add Files  [Enter] Play  [↑↓] Navigate"))
	}

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
