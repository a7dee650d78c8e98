package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/playback"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const speedStep = 10

type state int

const (
	stateMenu state = iota
	stateRun
)

type editField int

const (
	editNone editField = iota
	editTarget
	editArray
	editSize
)

var editPrompts = map[editField]string{
	editTarget: "target",
	editArray:  "values",
	editSize:   "size",
}

type model struct {
	ctx    context.Context
	ctrl   *playback.Controller
	algs   []algo.Descriptor
	cursor int
	state  state

	session playback.Session
	editing editField
	input   textinput.Model
	lastErr string

	width int
}

// NewInteractiveApp returns the bubbletea model driving ctrl.
func NewInteractiveApp(ctx context.Context, ctrl *playback.Controller) tea.Model {
	input := textinput.New()
	input.CharLimit = 200
	input.PromptStyle = magenta
	input.TextStyle = white
	return model{
		ctx:     ctx,
		ctrl:    ctrl,
		algs:    ctrl.Registry().List(),
		session: ctrl.Snapshot(),
		input:   input,
		width:   80,
	}
}

func Run(ctx context.Context, ctrl *playback.Controller) error {
	_, err := tea.NewProgram(NewInteractiveApp(ctx, ctrl), tea.WithContext(ctx)).Run()
	return err
}

type tickMsg time.Time

type doneMsg struct{ err error }

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.session = m.ctrl.Snapshot()
		return m, tick()
	case doneMsg:
		m.session = m.ctrl.Snapshot()
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.ctrl.StopVisualization()
		return m, tea.Quit
	}
	if m.editing != editNone {
		return m.editKey(msg)
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateRun:
		return m.runKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.algs)-1 {
			m.cursor++
		}
	case "m":
		m.ctrl.SetRaceMode(!m.session.RaceMode)
	case "a":
		if err := m.ctrl.AddToRace(m.algs[m.cursor].ID); err != nil {
			m.lastErr = err.Error()
		}
	case "x":
		m.ctrl.RemoveFromRace(m.algs[m.cursor].ID)
	case "t":
		return m.beginEdit(editTarget)
	case "e":
		return m.beginEdit(editArray)
	case "n":
		return m.beginEdit(editSize)
	case "r":
		m.ctrl.ResetState()
	case "enter", " ":
		return m.start()
	}
	m.session = m.ctrl.Snapshot()
	return m, nil
}

func (m model) start() (model, tea.Cmd) {
	m.lastErr = ""
	if m.session.RaceMode {
		if err := m.ctrl.Ready(); err != nil {
			m.lastErr = err.Error()
			m.session = m.ctrl.Snapshot()
			return m, nil
		}
		m.state = stateRun
		return m, m.run(m.ctrl.StartRace)
	}

	if err := m.ctrl.SelectAlgorithm(m.algs[m.cursor].ID); err != nil {
		m.lastErr = err.Error()
		return m, nil
	}
	m.state = stateRun
	return m, m.run(m.ctrl.StartSorting)
}

func (m model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{err: fn(ctx)}
	}
}

func (m model) runKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.ctrl.StopVisualization()
		m.state = stateMenu
	case " ", "p":
		m.ctrl.TogglePause()
	case "+", "=":
		m.ctrl.SetSpeed(m.session.Speed + speedStep)
	case "-", "_":
		m.ctrl.SetSpeed(m.session.Speed - speedStep)
	case "s":
		m.ctrl.StopVisualization()
	case "r":
		m.ctrl.ResetState()
		m.state = stateMenu
	}
	m.session = m.ctrl.Snapshot()
	return m, nil
}

func (m model) beginEdit(f editField) (model, tea.Cmd) {
	m.editing = f
	m.input.Prompt = editPrompts[f] + ": "
	m.input.SetValue("")
	cmd := m.input.Focus()
	return m, cmd
}

func (m model) endEdit() model {
	m.editing = editNone
	m.input.Blur()
	m.input.SetValue("")
	m.session = m.ctrl.Snapshot()
	return m
}

func (m model) editKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.applyEdit(); err != nil {
			m.lastErr = err.Error()
		} else {
			m.lastErr = ""
		}
		return m.endEdit(), nil
	case "esc":
		return m.endEdit(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) applyEdit() error {
	buf := strings.TrimSpace(m.input.Value())
	switch m.editing {
	case editTarget:
		if buf == "" {
			m.ctrl.SetSearchTarget(nil)
			return nil
		}
		v, err := strconv.Atoi(buf)
		if err != nil {
			return algo.Invalid("target", "Invalid number: %s", buf)
		}
		m.ctrl.SetSearchTarget(&v)
	case editArray:
		values, err := playback.ParseValues(buf)
		if err != nil {
			return err
		}
		return m.ctrl.SetCustomArray(values)
	case editSize:
		n, err := strconv.Atoi(buf)
		if err != nil {
			return algo.Invalid("array", "Invalid number: %s", buf)
		}
		return m.ctrl.SetArraySize(n)
	}
	return nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("a l g o v i z") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	switch m.state {
	case stateMenu:
		m.viewMenu(&b)
	case stateRun:
		m.viewRun(&b)
	}

	if m.editing != editNone {
		b.WriteString("\n   " + m.input.View() + "\n")
	}
	if msg := m.errorText(); msg != "" {
		b.WriteString("\n   " + red.Render(msg) + "\n")
	}
	return b.String()
}

func (m model) errorText() string {
	if m.session.Error != "" {
		return m.session.Error
	}
	return m.lastErr
}

func (m model) viewMenu(b *strings.Builder) {
	for i, d := range m.algs {
		label := fmt.Sprintf("%-16s", d.Name)
		info := fmt.Sprintf("%s  %s", d.Kind, d.TimeComplexity)
		if m.inRace(d.ID) {
			info += "  " + yellow.Render("racing")
		}
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(label) + dim.Render(info) + "\n")
		} else {
			b.WriteString("        " + dim.Render(label) + dimmer.Render(info) + "\n")
		}
	}

	b.WriteString("\n      " + dim.Render(fmt.Sprintf("size %d  speed %d", len(m.session.Array), m.session.Speed)))
	if m.session.SearchTarget != nil {
		b.WriteString(dim.Render(fmt.Sprintf("  target %d", *m.session.SearchTarget)))
	}
	if m.session.RaceMode {
		b.WriteString("  " + yellow.Render("race mode"))
	}
	b.WriteString("\n")
	if len(m.session.History) > 0 {
		rec := m.session.History[0]
		if w, ok := rec.Winner(); ok {
			b.WriteString("      " + dim.Render("last race won by ") + green.Render(string(w.AlgorithmID)) + "\n")
		}
	}

	b.WriteString("\n" + dim.Render("      ↑↓ select  enter start  m race mode  a/x add/remove racer") + "\n")
	b.WriteString(dim.Render("      t target  e values  n size  r reset  q quit") + "\n")
}

func (m model) viewRun(b *strings.Builder) {
	s := m.session
	if s.RaceMode {
		for _, p := range s.Participants {
			b.WriteString(fmt.Sprintf("   %s %s\n", cyan.Render(fmt.Sprintf("%-16s", p.Algorithm.Name)), progressText(p.Progress, p.Completed)))
			if p.Completed && p.ExecutionTime > 0 {
				b.WriteString("     " + dim.Render(p.ExecutionTime.Round(time.Millisecond).String()) + "\n")
			}
		}
	} else if s.Selected != nil {
		b.WriteString(fmt.Sprintf("   %s %s\n", cyan.Render(s.Selected.Name), progressText(s.Progress, s.Phase == playback.Completed)))
	}

	b.WriteString("\n   " + phaseText(s.Phase) + dim.Render(fmt.Sprintf("  speed %d", s.Speed)) + "\n")
	if s.Selected != nil && s.Selected.Kind == algo.Searching && !s.RaceMode {
		b.WriteString("   " + dim.Render(searchText(s)) + "\n")
	}
	b.WriteString("\n" + dim.Render("   space pause  ±speed  s stop  r reset  q back") + "\n")
}

func (m model) inRace(id algo.ID) bool {
	for _, p := range m.session.Participants {
		if p.Algorithm.ID == id {
			return true
		}
	}
	return false
}

func progressText(progress float64, done bool) string {
	text := fmt.Sprintf("%5.1f%%", progress)
	if done {
		return green.Render(text)
	}
	return white.Render(text)
}

func phaseText(p playback.Phase) string {
	switch p {
	case playback.Running:
		return green.Render("● running")
	case playback.Paused:
		return yellow.Render("○ paused")
	case playback.Completed:
		return green.Render("✓ completed")
	case playback.Errored:
		return red.Render("✗ error")
	default:
		return dim.Render("· " + p.String())
	}
}

func searchText(s playback.Session) string {
	switch {
	case s.Phase == playback.Completed && s.FoundIndex >= 0:
		return fmt.Sprintf("found at index %d", s.FoundIndex)
	case s.Phase == playback.Completed:
		return "not found"
	case s.SearchRange != nil:
		return fmt.Sprintf("checking %d in [%d, %d]", s.CurrentIndex, s.SearchRange.Start, s.SearchRange.End)
	case s.CurrentIndex >= 0:
		return fmt.Sprintf("checking %d", s.CurrentIndex)
	}
	return ""
}
