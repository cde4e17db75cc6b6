package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examcoach/internal/ui/theme"
)

// ProgressBar is a one-line bar drawn with block characters.
type ProgressBar struct {
	Label       string
	Percent     float64 // 0-1
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(theme.Label.Render(p.Label))
		b.WriteString("  ")
	}

	used := lipgloss.Width(b.String())
	if p.ShowPercent {
		used += 6
	}
	width := max(p.Width-used, 4)

	filled := min(max(int(float64(width)*p.Percent), 0), width)
	b.WriteString(theme.BarFilled.Render(strings.Repeat("█", filled)))
	b.WriteString(theme.BarEmpty.Render(strings.Repeat("░", width-filled)))

	if p.ShowPercent {
		b.WriteString(theme.Label.Render(fmt.Sprintf("  %3d%%", int(p.Percent*100))))
	}
	return b.String()
}
