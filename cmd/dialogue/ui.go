package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/orchestrator"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	themes   *theme.Generator
	store    services.TranscriptStore
	viewport viewport.Model
	spinner  spinner.Model
	caser    cases.Caser
	ready    bool
	width    int
	height   int
	err      error

	// Theme selection state. selectedTheme == len(cfg.Themes) selects the
	// free-form input row.
	showThemeModal bool
	selectedTheme  int
	themeInput     textinput.Model
	resolvingTheme bool

	// Run state
	running    bool
	turns      []dialogue.Turn
	transcript *dialogue.Transcript
	session    *runSession
	status     string
}

// runSession carries the channels one dialogue run reports through. Turns
// arrive one at a time while the run is live; the final transcript arrives
// on done.
type runSession struct {
	turns  chan dialogue.Turn
	done   chan runResult
	cancel context.CancelFunc
}

type runResult struct {
	transcript *dialogue.Transcript
	err        error
}

type turnMsg struct {
	turn dialogue.Turn
}

type runDoneMsg struct {
	transcript *dialogue.Transcript
	err        error
}

type savedMsg struct {
	err error
}

// themeReadyMsg carries a resolved theme for a free-form name. Resolution
// may call the backend, so it runs as a command, not in Update.
type themeReadyMsg struct {
	theme *theme.ThemeConfig
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	criticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // teal
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *config.Config, orch *orchestrator.Orchestrator, themes *theme.Generator, store services.TranscriptStore) ConsoleUI {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	ti := textinput.New()
	ti.Placeholder = "a theme of your own..."
	ti.CharLimit = 120
	ti.Width = 50

	return ConsoleUI{
		cfg:            cfg,
		orch:           orch,
		themes:         themes,
		store:          store,
		viewport:       vp,
		spinner:        sp,
		caser:          cases.Title(language.English),
		showThemeModal: true,
		themeInput:     ti,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showThemeModal {
		return m.updateThemeModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 8
		m.viewport.Height = m.height - 5
		m.ready = true
		m.writeTranscript()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.running && m.session != nil {
				// Cancel between turns; the run still returns a
				// transcript of what was generated so far.
				m.session.cancel()
				m.status = "Stopping after current turn..."
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(m.plainTranscript()); err != nil {
				m.status = "Clipboard copy failed"
			} else {
				m.status = "Transcript copied to clipboard"
			}
			return m, nil
		default:
			if !m.running && msg.String() == "n" {
				// Start over with a fresh theme choice.
				m.turns = nil
				m.transcript = nil
				m.err = nil
				m.status = ""
				m.showThemeModal = true
				return m, nil
			}
		}

	case turnMsg:
		m.turns = append(m.turns, msg.turn)
		m.writeTranscript()
		return m, m.waitForEvent()

	case runDoneMsg:
		m.running = false
		m.session = nil
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			m.writeTranscript()
			return m, nil
		}
		m.transcript = msg.transcript
		m.turns = msg.transcript.Turns
		m.status = "Saving..."
		m.writeTranscript()
		return m, m.saveTranscript(msg.transcript)

	case savedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Save failed: %v", msg.err)
		} else {
			m.status = "Saved"
		}
		m.writeTranscript()

	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		if m.running {
			m.writeTranscript()
		}
		return m, spCmd
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m ConsoleUI) updateThemeModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 8
		m.viewport.Height = m.height - 5
		m.ready = true

	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd

	case themeReadyMsg:
		m.resolvingTheme = false
		m.showThemeModal = false
		return m.startRun(msg.theme)

	case tea.KeyMsg:
		if m.resolvingTheme {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedTheme > 0 {
				m.selectedTheme--
			}
			m.syncThemeFocus()
		case tea.KeyDown:
			if m.selectedTheme < len(m.cfg.Themes) {
				m.selectedTheme++
			}
			m.syncThemeFocus()
		case tea.KeyEnter:
			if m.selectedTheme < len(m.cfg.Themes) {
				m.showThemeModal = false
				return m.startRun(&m.cfg.Themes[m.selectedTheme])
			}
			name := strings.TrimSpace(m.themeInput.Value())
			if name == "" {
				return m, nil
			}
			// Generating a context for a new theme calls the backend;
			// show the spinner until it resolves.
			m.resolvingTheme = true
			return m, tea.Batch(m.resolveTheme(name), m.spinner.Tick)
		default:
			if m.themeInput.Focused() {
				var tiCmd tea.Cmd
				m.themeInput, tiCmd = m.themeInput.Update(msg)
				return m, tiCmd
			}
		}
	}

	return m, nil
}

// syncThemeFocus focuses the free-form input only while its row is selected.
func (m *ConsoleUI) syncThemeFocus() {
	if m.selectedTheme == len(m.cfg.Themes) {
		m.themeInput.Focus()
	} else {
		m.themeInput.Blur()
	}
}

// resolveTheme looks up or generates a theme context for a free-form name.
func (m ConsoleUI) resolveTheme(name string) tea.Cmd {
	return func() tea.Msg {
		return themeReadyMsg{m.themes.Resolve(context.Background(), name)}
	}
}

// startRun launches the dialogue in a goroutine and begins consuming its
// turn events. The orchestrator drives both roles; the UI only watches.
func (m ConsoleUI) startRun(t *theme.ThemeConfig) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &runSession{
		turns:  make(chan dialogue.Turn),
		done:   make(chan runResult, 1),
		cancel: cancel,
	}

	orch := m.orch.WithObserver(func(turn dialogue.Turn) {
		session.turns <- turn
	})

	go func() {
		transcript, err := orch.Run(ctx, t, m.cfg.MaxTurns)
		session.done <- runResult{transcript, err}
	}()

	m.session = session
	m.running = true
	m.turns = nil
	m.transcript = nil
	m.err = nil
	m.status = ""
	m.writeTranscript()
	return m, tea.Batch(m.waitForEvent(), m.spinner.Tick)
}

// waitForEvent blocks on the live session until the next turn or the final
// result arrives.
func (m ConsoleUI) waitForEvent() tea.Cmd {
	session := m.session
	if session == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case turn := <-session.turns:
			return turnMsg{turn}
		case res := <-session.done:
			return runDoneMsg{res.transcript, res.err}
		}
	}
}

func (m ConsoleUI) saveTranscript(t *dialogue.Transcript) tea.Cmd {
	return func() tea.Msg {
		err := m.store.SaveTranscript(context.Background(), t)
		return savedMsg{err}
	}
}

func (m *ConsoleUI) writeTranscript() {
	width := m.viewport.Width
	if width <= 0 {
		width = 50
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-2, 10))) + "\n\n")

	for _, turn := range m.turns {
		content.WriteString(m.formatTurn(turn, width) + "\n\n")
	}

	if m.running {
		content.WriteString(m.spinner.View() + statusStyle.Render(" generating..."))
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.transcript != nil {
		content.WriteString(m.formatSummary(width))
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m ConsoleUI) formatTurn(turn dialogue.Turn, width int) string {
	label := m.caser.String(string(turn.Role)) + ": "
	style := narratorStyle
	if turn.Role == dialogue.RoleCritic {
		style = criticStyle
	}

	text := wordwrap.String(turn.Text, max(width-len(label), 20))
	out := style.Render(label) + text
	if turn.FlaggedContradiction {
		out += " " + flagStyle.Render("⚑")
	}
	return out
}

func (m ConsoleUI) formatSummary(width int) string {
	t := m.transcript
	var b strings.Builder
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-2, 10))) + "\n")
	b.WriteString(titleStyle.Render("Run finished") + "\n")
	b.WriteString(fmt.Sprintf("Status: %s", t.Status))
	if t.StopReason != "" {
		b.WriteString(fmt.Sprintf(" (%s)", t.StopReason))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Turns: %d  Contradictions: %d\n",
		t.Analysis.TotalTurns, t.Analysis.ContradictionCount))
	if len(t.Analysis.Patterns) > 0 {
		var parts []string
		for _, p := range []dialogue.Pattern{
			dialogue.PatternContradiction,
			dialogue.PatternQuestion,
			dialogue.PatternBackchannel,
			dialogue.PatternComment,
		} {
			if n := t.Analysis.Patterns[p]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", p, n))
			}
		}
		b.WriteString("Patterns: " + strings.Join(parts, ", ") + "\n")
	}
	return b.String()
}

func (m ConsoleUI) plainTranscript() string {
	var b strings.Builder
	for _, turn := range m.turns {
		b.WriteString(m.caser.String(string(turn.Role)) + ": " + turn.Text + "\n")
	}
	return b.String()
}

func (m ConsoleUI) renderThemeModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Select a Theme"))
	content.WriteString("\n\n")

	for i := range m.cfg.Themes {
		t := &m.cfg.Themes[i]
		line := fmt.Sprintf("%s (%s)", t.Name, t.Personality)
		if i == m.selectedTheme {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
		} else {
			content.WriteString(modalItemStyle.Render("  " + line))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	if m.selectedTheme == len(m.cfg.Themes) {
		content.WriteString(modalSelectedItemStyle.Render("▶ Custom theme"))
	} else {
		content.WriteString(modalItemStyle.Render("  Custom theme"))
	}
	content.WriteString("\n  " + m.themeInput.View() + "\n")

	if m.resolvingTheme {
		content.WriteString("\n" + m.spinner.View() + statusStyle.Render(" analyzing theme..."))
	}

	content.WriteString("\n")
	content.WriteString(hintStyle.Render("Use ↑/↓ to navigate, Enter to start, Ctrl+C to exit"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showThemeModal {
		return m.renderThemeModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := hintStyle.Render("Ctrl+C: stop/quit • Ctrl+Y: copy • n: new run")
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "  " + footer
	}

	return panelStyle.Width(m.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(m.viewport.Width, 10))),
			footer,
		),
	)
}
