package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// oscilloscope glyphs from quietest to loudest.
var scopeLevels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Oscilloscope renders a bar waveform from the engine's sample tap. The
// tap hands over at most a couple thousand mono samples per frame; the
// component buckets them into columns and draws each column's peak.
type Oscilloscope struct {
	Width int
	Style lipgloss.Style

	columns []float64
}

// NewOscilloscope creates an oscilloscope of the given column width
func NewOscilloscope(width int) Oscilloscope {
	if width < 1 {
		width = 1
	}
	return Oscilloscope{
		Width:   width,
		Style:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		columns: make([]float64, width),
	}
}

// Push buckets a frame of mono samples into columns. An empty frame,
// which the tap returns when the audio callback holds the lock, keeps
// the previous picture but decays it so a stalled tap fades out.
func (o *Oscilloscope) Push(samples []float32) {
	if o.Width < 1 {
		return
	}
	if len(o.columns) != o.Width {
		o.columns = make([]float64, o.Width)
	}

	if len(samples) == 0 {
		for i := range o.columns {
			o.columns[i] *= 0.7
		}
		return
	}

	perColumn := len(samples) / o.Width
	if perColumn < 1 {
		perColumn = 1
	}

	for col := range o.columns {
		start := col * perColumn
		if start >= len(samples) {
			o.columns[col] = 0
			continue
		}
		end := start + perColumn
		if end > len(samples) {
			end = len(samples)
		}

		var peak float64
		for _, s := range samples[start:end] {
			v := float64(s)
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		o.columns[col] = peak
	}
}

// Reset clears the display
func (o *Oscilloscope) Reset() {
	for i := range o.columns {
		o.columns[i] = 0
	}
}

// View renders one row of level bars
func (o Oscilloscope) View() string {
	var sb strings.Builder
	for _, level := range o.columns {
		if level > 1 {
			level = 1
		}
		idx := int(level * float64(len(scopeLevels)-1))
		sb.WriteRune(scopeLevels[idx])
	}
	return o.Style.Render(sb.String())
}
