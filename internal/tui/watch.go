package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/experiment"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/viz"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type phase int

const (
	phaseSampling phase = iota
	phaseDone
	phaseFailed
)

type attemptMsg extend.Attempt

type doneMsg struct {
	out *experiment.Outcome
	err error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Watch follows one extension run attempt by attempt.
type Watch struct {
	title    string
	length   int
	total    int
	cancel   context.CancelFunc
	phase    phase
	attempts []extend.Attempt
	started  time.Time
	elapsed  time.Duration
	frame    int
	width    int
	out      *experiment.Outcome
	err      error
}

func NewWatch(title string, length, maxAttempts int, cancel context.CancelFunc) Watch {
	return Watch{
		title:   title,
		length:  length,
		total:   maxAttempts,
		cancel:  cancel,
		started: time.Now(),
		width:   80,
	}
}

func (m Watch) Init() tea.Cmd { return tick() }

func (m Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.phase != phaseSampling {
				return m, tea.Quit
			}
			// the run goroutine reports the cancellation through doneMsg
			if m.cancel != nil {
				m.cancel()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if m.phase != phaseSampling {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.started)
		return m, tick()
	case attemptMsg:
		m.attempts = append(m.attempts, extend.Attempt(msg))
	case doneMsg:
		m.out, m.err = msg.out, msg.err
		m.elapsed = time.Since(m.started)
		m.phase = phaseDone
		if m.err != nil {
			m.phase = phaseFailed
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Watch) View() string {
	var b strings.Builder

	var status string
	switch m.phase {
	case phaseSampling:
		status = viz.Label.Render(spinner[m.frame%len(spinner)]) + " " + viz.Subtle.Render("sampling")
	case phaseDone:
		status = viz.Success.Render("● done")
	case phaseFailed:
		status = viz.Failure.Render("● failed")
	}
	b.WriteString(fmt.Sprintf("\n  %s  %s  %s\n", viz.Title.Render(m.title), status,
		viz.Subtle.Render(m.elapsed.Round(100*time.Millisecond).String())))

	frac := float64(len(m.attempts)) / float64(max(m.total, 1))
	b.WriteString(fmt.Sprintf("  attempts %s %d/%d\n\n", viz.ProgressBar(frac, 30), len(m.attempts), m.total))

	for _, a := range m.attempts {
		b.WriteString("  " + viz.AttemptLine(a, m.total, m.length) + "\n")
	}

	switch {
	case m.out != nil:
		path := m.out.Result.Trajectory
		width := min(max(m.width-12, 20), 100)
		b.WriteString(fmt.Sprintf("\n  %s %s\n", viz.Label.Render("x0"),
			viz.Sparkline(cv.Series(cv.Coordinate(0), path), width)))
		b.WriteString("  " + viz.KV("frames", path.Len()) + "  " + viz.KV("seed frames", m.out.Seed.Len()) + "\n")
	case m.err != nil:
		b.WriteString("\n  " + viz.Failure.Render(m.err.Error()) + "\n")
	default:
		b.WriteString("\n" + viz.Subtle.Render("  q stop") + "\n")
	}
	return b.String()
}

// Outcome is the result delivered by the run, if it finished.
func (m Watch) Outcome() (*experiment.Outcome, error) { return m.out, m.err }

// Run drives run under a live view and returns its outcome.
func Run(ctx context.Context, title string, length, maxAttempts int,
	run func(context.Context, func(extend.Attempt)) (*experiment.Outcome, error)) (*experiment.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewWatch(title, length, maxAttempts, cancel))
	go func() {
		out, err := run(ctx, func(a extend.Attempt) { p.Send(attemptMsg(a)) })
		p.Send(doneMsg{out: out, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	return final.(Watch).Outcome()
}
