package broker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/diffuzzer/diffuzzer/event"
)

// tickInterval is how often the console redraws; independent of
// heartbeat_interval since a stats snapshot may not have changed
// between ticks.
const tickInterval = 500 * time.Millisecond

// IsConsoleCapable reports whether stdout is an interactive terminal,
// matching the teacher's own isatty-gated choice between a rich
// display and plain log lines.
func IsConsoleCapable() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RunConsole renders a live table of per-instance stats, one row per
// InstanceID snapshot the broker has recorded, until ctx is canceled.
// It blocks the calling goroutine; callers that want it non-blocking
// should run it in its own goroutine, as cmd's subcommands do.
func (b *Broker) RunConsole(ctx context.Context) error {
	b.consoleActive.Store(true)
	defer b.consoleActive.Store(false)

	m := consoleModel{broker: b}
	m.table = newStatsTable()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type consoleModel struct {
	broker *Broker
	table  table.Model
}

type tickMsg time.Time

func (m consoleModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.table.SetRows(m.broker.consoleRows())
		return m, tickCmd()
	}
	return m, nil
}

func (m consoleModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("diffuzzer")
	footer := lipgloss.NewStyle().Faint(true).Render("q to quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s\n", title, m.table.View(), footer)
}

func newStatsTable() table.Model {
	instanceWidth := 24
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 80 {
		instanceWidth += width - 80
	}
	columns := []table.Column{
		{Title: "Instance", Width: instanceWidth},
		{Title: "Tests", Width: 10},
		{Title: "Crashes", Width: 10},
		{Title: "Accidents", Width: 10},
		{Title: "Corpus", Width: 8},
	}
	return table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(10))
}

// consoleRows snapshots every recorded instance's latest stats into
// table rows, sorted however map iteration happens to order them --
// acceptable for a live display that redraws twice a second.
func (b *Broker) consoleRows() []table.Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := make([]table.Row, 0, len(b.stats))
	for id, msg := range b.stats {
		switch s := msg.(type) {
		case event.BlackBoxStats:
			rows = append(rows, table.Row{id, fmt.Sprint(s.TestsRun), fmt.Sprint(s.CrashesFound), fmt.Sprint(s.AccidentsFound), "-"})
		case event.GreyBoxStats:
			rows = append(rows, table.Row{id, fmt.Sprint(s.TestsRun), fmt.Sprint(s.CrashesFound), fmt.Sprint(s.AccidentsFound), fmt.Sprint(s.CorpusSize)})
		}
	}
	return rows
}
