// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	bp "dslc/internal/buildpipeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// row is the last known state of one source file.
type row struct {
	label   string
	stage   bp.Stage
	status  bp.Status
	elapsed time.Duration
}

func (r row) finished() bool {
	switch r.status {
	case bp.StatusError, bp.StatusCached:
		return true
	case bp.StatusDone:
		return r.stage != bp.StageCompile
	}
	return false
}

// weight is the share of a file's work represented by its state.
func (r row) weight() float64 {
	if r.finished() {
		return 1
	}
	switch {
	case r.stage == bp.StageCompile && r.status == bp.StatusDone:
		return 0.6
	case r.stage == bp.StageCompile && r.status == bp.StatusWorking:
		return 0.2
	case r.stage == bp.StageWrite:
		return 0.7
	case r.stage == bp.StageCC:
		return 0.8
	}
	return 0
}

func (r row) text() string {
	switch r.status {
	case bp.StatusQueued, "":
		return "queued"
	case bp.StatusCached:
		return "cached"
	case bp.StatusError:
		return "error"
	case bp.StatusDone:
		if r.stage == bp.StageCompile {
			return "compiled"
		}
		return "done"
	}
	switch r.stage {
	case bp.StageCompile:
		return "compiling"
	case bp.StageWrite:
		return "writing"
	case bp.StageCC:
		return "cc"
	}
	return string(r.status)
}

func (r row) style() lipgloss.Style {
	switch {
	case r.status == bp.StatusError:
		return errStyle
	case r.finished():
		return okStyle
	case r.status == bp.StatusQueued || r.status == "":
		return idleStyle
	}
	return busyStyle
}

type progressModel struct {
	title   string
	events  <-chan bp.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byFile  map[string]int
	// phase is the pipeline-wide stage currently running.
	phase bp.Stage
	width int
	done  bool
}

type (
	eventMsg bp.Event
	doneMsg  struct{}
)

// NewProgressModel returns a Bubble Tea model that shows one row per file
// and a bar for the whole build. It quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan bp.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(busyStyle))
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		rows:    make([]row, len(files)),
		byFile:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.rows[i] = row{label: f, status: bp.StatusQueued}
		m.byFile[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m *progressModel) wait() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(bp.Event(msg)), m.wait())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		next, cmd := m.bar.Update(msg)
		m.bar = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) apply(ev bp.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == bp.StatusWorking {
			m.phase = ev.Stage
		}
		return nil
	}
	i, ok := m.byFile[ev.File]
	if !ok || ev.Status == "" {
		return nil
	}
	r := &m.rows[i]
	r.stage, r.status = ev.Stage, ev.Status
	if ev.Elapsed > 0 {
		r.elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		total += r.weight()
	}
	return total / float64(len(m.rows))
}

func (m *progressModel) counts() (ok, failed int) {
	for _, r := range m.rows {
		switch {
		case r.status == bp.StatusError:
			failed++
		case r.finished():
			ok++
		}
	}
	return ok, failed
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder

	header := m.title
	if m.phase != "" && !m.done {
		header += " (" + string(m.phase) + ")"
	}
	ok, failed := m.counts()
	prefix := m.spinner.View()
	if m.done {
		prefix = "done:"
	}
	fmt.Fprintf(&b, "%s %s  %d/%d", prefix, headerStyle.Render(header), ok+failed, len(m.rows))
	if failed > 0 {
		b.WriteString(errStyle.Render(fmt.Sprintf("  %d failed", failed)))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-24, 20)
	for _, r := range m.rows {
		fmt.Fprintf(&b, "  %s %s", r.style().Render(fmt.Sprintf("%-10s", r.text())), fit(r.label, nameWidth))
		if r.elapsed > 0 {
			b.WriteString(idleStyle.Render(" " + r.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// fit shortens s to width display cells, keeping the tail of the path.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	runes := []rune(s)
	for i := range runes {
		tail := string(runes[i:])
		if runewidth.StringWidth(tail) <= width-3 {
			return "..." + tail
		}
	}
	return "..."
}
