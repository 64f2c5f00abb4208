package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders the playback offset against the track duration,
// with a MM:SS / MM:SS label. A zero total draws an empty bar, which is
// what files without a readable duration get.
type ProgressBar struct {
	Width       int
	Current     time.Duration
	Total       time.Duration
	ShowTime    bool
	Style       lipgloss.Style
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

const (
	progressFilled = "━"
	progressHead   = "╉"
	progressEmpty  = "─"
)

func NewProgressBar(width int) ProgressBar {
	return ProgressBar{
		Width:       width,
		ShowTime:    true,
		Style:       lipgloss.NewStyle(),
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetProgress sets the playhead position for the next render.
func (p *ProgressBar) SetProgress(current, total time.Duration) {
	p.Current = current
	p.Total = total
}

func (p ProgressBar) View() string {
	frac := 0.0
	if p.Total > 0 {
		frac = float64(p.Current) / float64(p.Total)
		if frac > 1 {
			frac = 1
		}
	}

	// Room for " MM:SS/MM:SS" on the right.
	barWidth := p.Width - 14
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * frac)
	var sb strings.Builder
	if filled > 0 {
		sb.WriteString(p.FilledStyle.Render(strings.Repeat(progressFilled, filled-1) + progressHead))
	}
	sb.WriteString(p.EmptyStyle.Render(strings.Repeat(progressEmpty, barWidth-filled)))

	if p.ShowTime {
		fmt.Fprintf(&sb, " %s/%s", clock(p.Current), clock(p.Total))
	}

	return p.Style.Render(sb.String())
}

// clock formats a duration as MM:SS.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", d/time.Minute, (d%time.Minute)/time.Second)
}
