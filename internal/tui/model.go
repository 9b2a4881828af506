// Package tui is an interactive browser for migrations: a table of every
// version with its state and a pane showing the SQL the selected migration
// would run.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/johndauphine/mariadb-migrate/internal/runner"
)

const refreshInterval = 5 * time.Second

// Source is what the browser reads from. *runner.Runner satisfies it.
type Source interface {
	ListMigrations(ctx context.Context) ([]runner.Status, error)
	SQL(ctx context.Context, dir runner.Direction, version int64) ([]string, error)
}

var _ Source = (*runner.Runner)(nil)

// TickMsg triggers a periodic refresh.
type TickMsg time.Time

type statusMsg struct {
	statuses []runner.Status
	err      error
	at       time.Time
}

// Model is the main TUI model
type Model struct {
	ctx    context.Context
	source Source

	table    table.Model
	preview  viewport.Model
	statuses []runner.Status

	// direction is the SQL shown in the preview pane.
	direction   runner.Direction
	err         error
	lastRefresh time.Time
	width       int
	height      int
	ready       bool
}

// New creates a browser over source.
func New(ctx context.Context, source Source) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorGray).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(colorWhite).Background(colorPurple)
	t.SetStyles(s)

	return Model{
		ctx:       ctx,
		source:    source,
		table:     t,
		preview:   viewport.New(80, 10),
		direction: runner.Up,
	}
}

func columns(width int) []table.Column {
	desc := width - 16 - 9 - 19 - 8
	if desc < 20 {
		desc = 20
	}
	return []table.Column{
		{Title: "Version", Width: 16},
		{Title: "State", Width: 9},
		{Title: "Applied", Width: 19},
		{Title: "Description", Width: desc},
	}
}

// Init loads the migration list and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		statuses, err := m.source.ListMigrations(m.ctx)
		return statusMsg{statuses: statuses, err: err, at: time.Now()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "tab":
			if m.direction == runner.Up {
				m.direction = runner.Down
			} else {
				m.direction = runner.Up
			}
			m.updatePreview()
			return m, nil
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.statuses = msg.statuses
			m.lastRefresh = msg.at
			m.table.SetRows(rows(msg.statuses))
			m.updatePreview()
		}
		return m, nil
	}

	before := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != before {
		m.updatePreview()
	}
	return m, cmd
}

func (m *Model) layout() {
	tableHeight := (m.height - 6) / 2
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetColumns(columns(m.width))
	m.table.SetHeight(tableHeight)
	m.table.SetWidth(m.width)

	m.preview.Width = m.width - 4
	m.preview.Height = m.height - tableHeight - 8
	if m.preview.Height < 3 {
		m.preview.Height = 3
	}
}

func rows(statuses []runner.Status) []table.Row {
	out := make([]table.Row, 0, len(statuses))
	for _, st := range statuses {
		applied := ""
		if st.AppliedOn != nil {
			applied = st.AppliedOn.Format("2006-01-02 15:04:05")
		}
		out = append(out, table.Row{fmt.Sprint(st.Version), stateOf(st), applied, st.Description})
	}
	return out
}

func stateOf(st runner.Status) string {
	switch {
	case st.Missing:
		return "missing"
	case st.Applied:
		return "applied"
	}
	return "pending"
}

// selected returns the highlighted migration, if any.
func (m Model) selected() (runner.Status, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.statuses) {
		return runner.Status{}, false
	}
	return m.statuses[i], true
}

func (m *Model) updatePreview() {
	st, ok := m.selected()
	if !ok {
		m.preview.SetContent(styleSystemOutput.Render("No migrations"))
		return
	}
	if st.Missing {
		m.preview.SetContent(styleError.Render(fmt.Sprintf("Version %d is applied but no migration defines it", st.Version)))
		return
	}

	stmts, err := m.source.SQL(m.ctx, m.direction, st.Version)
	if err != nil {
		m.preview.SetContent(styleError.Render(err.Error()))
		return
	}
	var b strings.Builder
	for _, stmt := range stmts {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	if b.Len() == 0 {
		b.WriteString(styleSystemOutput.Render("(no statements)"))
	}
	m.preview.SetContent(b.String())
	m.preview.GotoTop()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading migrations..."
	}

	title := styleTitle.Render("Migrations")
	pane := fmt.Sprintf("SQL (%s)", m.direction)
	if st, ok := m.selected(); ok {
		pane = fmt.Sprintf("SQL for %d (%s)", st.Version, m.direction)
	}

	var errLine string
	if m.err != nil {
		errLine = styleError.Render("Error: "+m.err.Error()) + "\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.table.View(),
		stylePrompt.Render(pane),
		styleViewport.Render(m.preview.View()),
		errLine+m.statusBarView(),
		styleSystemOutput.Render("↑/↓ select • tab up/down SQL • pgup/pgdn scroll • r refresh • q quit"),
	)
}

func (m Model) statusBarView() string {
	w := lipgloss.Width

	var applied, pending, missing int
	for _, st := range m.statuses {
		switch stateOf(st) {
		case "applied":
			applied++
		case "missing":
			missing++
		default:
			pending++
		}
	}

	counts := styleStatusDir.Render(fmt.Sprintf("%d applied", applied))
	pend := styleStatusBranch.Render(fmt.Sprintf("%d pending", pending))

	health := styleStatusClean.Render("In sync")
	switch {
	case missing > 0:
		health = styleStatusDirty.Render(fmt.Sprintf("%d missing", missing))
	case pending > 0:
		health = styleStatusText.Render("Pending changes")
	}

	refreshed := ""
	if !m.lastRefresh.IsZero() {
		refreshed = styleStatusText.Render("refreshed " + m.lastRefresh.Format("15:04:05"))
	}

	usedWidth := w(counts) + w(pend) + w(refreshed) + w(health)
	spacerWidth := m.width - usedWidth
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := styleStatusBar.Width(spacerWidth).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, counts, pend, refreshed, spacer, health)
}

// Start runs the browser until the user quits.
func Start(ctx context.Context, source Source) error {
	p := tea.NewProgram(New(ctx, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
