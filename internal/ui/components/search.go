package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchInput is a single-line text input used for library filtering.
// Editing is rune-based so multibyte titles behave under the cursor.
type SearchInput struct {
	Value       string
	Placeholder string
	Focused     bool
	Width       int
	Prompt      string
	Style       lipgloss.Style
	FocusStyle  lipgloss.Style

	cursor int // rune index into Value
}

func NewSearchInput(width int) SearchInput {
	return SearchInput{
		Placeholder: "Search...",
		Width:       width,
		Prompt:      "/ ",
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
}

func (s *SearchInput) Focus() { s.Focused = true }
func (s *SearchInput) Blur()  { s.Focused = false }

// Clear resets the value and cursor.
func (s *SearchInput) Clear() {
	s.Value = ""
	s.cursor = 0
}

// Update consumes key events while focused and is inert otherwise.
func (s SearchInput) Update(msg tea.Msg) (SearchInput, tea.Cmd) {
	if !s.Focused {
		return s, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	runes := []rune(s.Value)
	switch key.Type {
	case tea.KeyBackspace:
		if s.cursor > 0 {
			runes = append(runes[:s.cursor-1], runes[s.cursor:]...)
			s.cursor--
		}
	case tea.KeyDelete:
		if s.cursor < len(runes) {
			runes = append(runes[:s.cursor], runes[s.cursor+1:]...)
		}
	case tea.KeyLeft:
		if s.cursor > 0 {
			s.cursor--
		}
	case tea.KeyRight:
		if s.cursor < len(runes) {
			s.cursor++
		}
	case tea.KeyHome:
		s.cursor = 0
	case tea.KeyEnd:
		s.cursor = len(runes)
	case tea.KeySpace:
		runes = insertRunes(runes, []rune{' '}, s.cursor)
		s.cursor++
	case tea.KeyRunes:
		runes = insertRunes(runes, key.Runes, s.cursor)
		s.cursor += len(key.Runes)
	}
	s.Value = string(runes)

	return s, nil
}

func insertRunes(dst, src []rune, at int) []rune {
	out := make([]rune, 0, len(dst)+len(src))
	out = append(out, dst[:at]...)
	out = append(out, src...)
	out = append(out, dst[at:]...)
	return out
}

func (s SearchInput) View() string {
	var content string
	switch {
	case s.Value == "" && !s.Focused:
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		content = s.Prompt + dim.Render(s.Placeholder)
	case s.Focused:
		runes := []rune(s.Value)
		cursor := lipgloss.NewStyle().Background(lipgloss.Color("212")).Render(" ")
		content = s.Prompt + string(runes[:s.cursor]) + cursor + string(runes[s.cursor:])
	default:
		content = s.Prompt + s.Value
	}

	if max := s.Width - 4; max > 0 {
		content = truncate(content, max)
	}

	if s.Focused {
		return s.FocusStyle.Width(s.Width).Render(content)
	}
	return s.Style.Width(s.Width).Render(content)
}
