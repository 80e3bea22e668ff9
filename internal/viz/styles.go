package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pathsim/internal/extend"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Success = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Warning = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffaa00"))

	Failure = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// KV renders "label: value" with the label muted.
func KV(label string, value any) string {
	return Label.Render(label+":") + " " + Value.Render(fmt.Sprint(value))
}

func Panel(title, content string) string {
	return Title.Render(title) + "\n" + panel.Render(content)
}

// ProgressBar fills width cells in proportion to frac in [0, 1].
func ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case frac > 0.8:
		return sparkHigh.Render(bar)
	case frac > 0.4:
		return sparkMid.Render(bar)
	}
	return sparkLow.Render(bar)
}

// AttemptLine summarizes one extension attempt out of total. The bar shows
// how much of the ensemble length the candidate already covers.
func AttemptLine(a extend.Attempt, total, length int) string {
	status := Warning.Render("miss")
	switch {
	case a.TimedOut:
		status = Failure.Render("timeout")
	case a.Matches > 0:
		status = Success.Render(fmt.Sprintf("%d match", a.Matches))
	}
	frac := 0.0
	if length > 0 {
		frac = float64(a.CandidateLen) / float64(length)
	}
	return fmt.Sprintf("attempt %d/%d  max_len=%-5d candidate=%-6d %s  %s",
		a.Index+1, total, a.MaxLen, a.CandidateLen, ProgressBar(min(frac, 1), 20), status)
}

// Sparkline samples values down to width cells.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)

	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(int(norm*float64(len(chars)-1)), len(chars)-1))

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			sb.WriteString(sparkHigh.Render(c))
		case norm > 0.3:
			sb.WriteString(sparkMid.Render(c))
		default:
			sb.WriteString(sparkLow.Render(c))
		}
	}
	return sb.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
