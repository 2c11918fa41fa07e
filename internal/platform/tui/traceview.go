package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/ledsnake/internal/storage"
)

// Trace view layout constants
const (
	maxRuns       = 100 // Max runs to load
	statsHeight   = 5   // One row per task plus the header
	minRunsHeight = 3
)

// TraceKeyMap defines the key bindings for the trace view.
type TraceKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k TraceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k TraceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Quit}}
}

// DefaultTraceKeyMap returns default key bindings.
func DefaultTraceKeyMap() TraceKeyMap {
	return TraceKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous run"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next run"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// TraceViewModel browses recorded runs: the run list on top and the per-task dispatch
// statistics of the highlighted run below.
type TraceViewModel struct {
	store    *storage.Store
	runs     []storage.Run
	runTable table.Model
	stats    table.Model
	help     help.Model
	keys     TraceKeyMap
	width    int
	height   int
	selected int64
	err      error
	quitting bool
}

// NewTraceViewModel loads the most recent runs from store and highlights runID, or the
// newest run when runID is 0.
func NewTraceViewModel(store *storage.Store, runID int64, width, height int) TraceViewModel {
	m := TraceViewModel{
		store:  store,
		help:   help.New(),
		keys:   DefaultTraceKeyMap(),
		width:  width,
		height: height,
	}

	m.runs, m.err = store.Runs(maxRuns)
	m.runTable = m.createRunTable()
	m.stats = m.createStatsTable()
	m.updateRunRows()

	for i, r := range m.runs {
		if r.ID == runID {
			m.runTable.SetCursor(i)
		}
	}
	m.loadStats()
	return m
}

func styledTable(columns []table.Column, height int, focused bool) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(focused),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	if focused {
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
	} else {
		s.Selected = lipgloss.NewStyle()
	}
	t.SetStyles(s)
	return t
}

func (m *TraceViewModel) createRunTable() table.Model {
	height := m.height - statsHeight - 10 // Title, borders, help
	if height < minRunsHeight {
		height = minRunsHeight
	}
	return styledTable([]table.Column{
		{Title: "Run", Width: 6},
		{Title: "Backend", Width: 10},
		{Title: "Started", Width: 14},
		{Title: "Length", Width: 10},
		{Title: "End", Width: 10},
	}, height, true)
}

func (m *TraceViewModel) createStatsTable() table.Model {
	return styledTable([]table.Column{
		{Title: "Task", Width: 9},
		{Title: "Runs", Width: 7},
		{Title: "Errors", Width: 7},
		{Title: "Max late", Width: 10},
		{Title: "Mean late", Width: 10},
		{Title: "Max cycles", Width: 11},
	}, statsHeight, false)
}

func (m *TraceViewModel) updateRunRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		length, end := "-", "open"
		if !r.EndedAt.IsZero() {
			length = r.EndedAt.Sub(r.StartedAt).String()
			end = r.EndReason
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", r.ID),
			r.Backend,
			r.StartedAt.Format("Jan 02 15:04"),
			length,
			end,
		}
	}
	m.runTable.SetRows(rows)
}

// loadStats loads the statistics of the highlighted run.
func (m *TraceViewModel) loadStats() {
	m.selected = 0
	cursor := m.runTable.Cursor()
	if cursor < 0 || cursor >= len(m.runs) {
		m.stats.SetRows(nil)
		return
	}
	m.selected = m.runs[cursor].ID

	stats, err := m.store.TaskStats(m.selected)
	if err != nil {
		m.err = err
		m.stats.SetRows(nil)
		return
	}
	m.stats.SetRows(StatsRows(stats))
}

// StatsRows formats task statistics as table rows.
func StatsRows(stats []storage.TaskStats) []table.Row {
	rows := make([]table.Row, len(stats))
	for i, st := range stats {
		rows[i] = table.Row{
			st.Task,
			fmt.Sprintf("%d", st.Dispatches),
			fmt.Sprintf("%d", st.Errors),
			fmt.Sprintf("%d", st.MaxLateness),
			fmt.Sprintf("%.1f", st.MeanLateness),
			fmt.Sprintf("%d", st.MaxRunCycles),
		}
	}
	return rows
}

// Init initializes the trace view.
func (m TraceViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the trace view.
func (m TraceViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.runTable, cmd = m.runTable.Update(msg)
		m.loadStats()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cursor := m.runTable.Cursor()
		m.runTable = m.createRunTable()
		m.updateRunRows()
		m.runTable.SetCursor(cursor)
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// View renders the trace view.
func (m TraceViewModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(titleStyle.Render("DISPATCH TRACES"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.err.Error()))
		b.WriteString("\n")
	}

	if len(m.runs) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		b.WriteString(emptyStyle.Render("No runs recorded yet.\nRun the console with tracing enabled."))
	} else {
		b.WriteString(boxStyle.Render(m.runTable.View()))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Run #%d\n", m.selected))
		b.WriteString(boxStyle.Render(m.stats.View()))
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// RunTraceView runs the trace browser.
func RunTraceView(store *storage.Store, runID int64, width, height int) error {
	model := NewTraceViewModel(store, runID, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
