package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/domain"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Engine is the slice of the bot engine the terminal drives.
type Engine interface {
	Snapshot() bot.Status
	Logs() []domain.BotLog
	Activate(ctx context.Context)
	Deactivate(ctx context.Context)
	Authorize(ctx context.Context) error
	Reject(ctx context.Context) error
	ClosePosition(ctx context.Context) error
	SetRiskProfile(ctx context.Context, profile domain.RiskProfile) error
}

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	danger    = lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(subtle).
			Padding(0, 1)

	labelStyle  = lipgloss.NewStyle().Foreground(subtle)
	activeStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	alarmStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(subtle).MarginTop(1)
)

type tickMsg time.Time

// Model is the interactive bot terminal: a status HUD over a scrolling
// activity log.
type Model struct {
	engine   Engine
	status   bot.Status
	log      viewport.Model
	width    int
	height   int
	ready    bool
	lastErr  string
	quitting bool
}

func NewModel(engine Engine) Model {
	return Model{
		engine: engine,
		status: engine.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := msg.Height - 14
		if logHeight < 4 {
			logHeight = 4
		}
		if !m.ready {
			m.log = viewport.New(msg.Width-4, logHeight)
			m.ready = true
		} else {
			m.log.Width = msg.Width - 4
			m.log.Height = logHeight
		}
		return m, nil

	case tickMsg:
		m.status = m.engine.Snapshot()
		if m.ready {
			atBottom := m.log.AtBottom()
			m.log.SetContent(m.renderLogs())
			if atBottom {
				m.log.GotoBottom()
			}
		}
		return m, tick()

	case tea.KeyMsg:
		ctx := context.Background()
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "a":
			m.engine.Activate(ctx)
			m.lastErr = ""
		case "d":
			m.engine.Deactivate(ctx)
			m.lastErr = ""
		case "y":
			m.applyErr(m.engine.Authorize(ctx))
		case "n":
			m.applyErr(m.engine.Reject(ctx))
		case "c":
			m.applyErr(m.engine.ClosePosition(ctx))
		case "1":
			m.applyErr(m.engine.SetRiskProfile(ctx, domain.ProfileConservative))
		case "2":
			m.applyErr(m.engine.SetRiskProfile(ctx, domain.ProfileBalanced))
		case "3":
			m.applyErr(m.engine.SetRiskProfile(ctx, domain.ProfileAggressive))
		}
		m.status = m.engine.Snapshot()
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyErr(err error) {
	if err != nil {
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
}

func (m Model) View() string {
	if m.quitting {
		return "Terminal closed.\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("NEXUS TRADING TERMINAL"))
	b.WriteString("\n\n")
	b.WriteString(m.renderHUD())
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.log.View()))
	b.WriteString(helpStyle.Render("\na activate  d deactivate  y approve  n reject  c close  1/2/3 risk  q quit"))
	if m.lastErr != "" {
		b.WriteString("\n" + alarmStyle.Render("! "+m.lastErr))
	}
	return b.String()
}

func (m Model) renderHUD() string {
	st := m.status

	phase := activeStyle.Render(string(st.Phase))
	if st.Phase == domain.PhaseIdle {
		phase = labelStyle.Render(string(st.Phase))
	}

	left := fmt.Sprintf("%s %s\n%s $%.2f\n%s %.0fms",
		labelStyle.Render("PHASE"), phase,
		labelStyle.Render("BALANCE"), st.Balance,
		labelStyle.Render("LATENCY"), st.LatencyMs,
	)

	perf := st.Performance
	mid := fmt.Sprintf("%s %d\n%s %.1f%%\n%s %+.2f",
		labelStyle.Render("TRADES"), perf.TotalTrades,
		labelStyle.Render("WIN RATE"), perf.WinRatePct,
		labelStyle.Render("NET P&L"), perf.NetPnl,
	)

	right := m.renderPosition()

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(left),
		panelStyle.Render(mid),
		panelStyle.Render(right),
		panelStyle.Render(m.renderStrategies()),
	)
	return row
}

func (m Model) renderStrategies() string {
	if len(m.status.Strategies) == 0 {
		return labelStyle.Render("NO STRATEGIES")
	}
	lines := make([]string, 0, len(m.status.Strategies))
	for _, s := range m.status.Strategies {
		style := labelStyle
		if s.Active {
			style = activeStyle
		}
		lines = append(lines, fmt.Sprintf("%s %s", style.Render(s.Name), meter(s.Confidence)))
	}
	return strings.Join(lines, "\n")
}

// meter renders a 10-cell confidence bar.
func meter(confidence float64) string {
	filled := int(confidence / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return activeStyle.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", 10-filled))
}

func (m Model) renderPosition() string {
	st := m.status
	if st.Position != nil {
		pnl := activeStyle
		if st.Position.PnlUSD < 0 {
			pnl = alarmStyle
		}
		return fmt.Sprintf("%s %s %s %dx\n%s $%.2f\n%s %s",
			labelStyle.Render("OPEN"), st.Position.Direction, st.Position.Asset, st.Position.Leverage,
			labelStyle.Render("ENTRY"), st.Position.EntryPrice,
			labelStyle.Render("P&L"), pnl.Render(fmt.Sprintf("%+.2f%% ($%+.2f)", st.Position.PnlPct, st.Position.PnlUSD)),
		)
	}
	if st.Pending != nil {
		return fmt.Sprintf("%s %s %s\n%s $%.2f\n%s %d%%  y/n?",
			labelStyle.Render("SIGNAL"), st.Pending.Direction, st.Pending.Asset,
			labelStyle.Render("ENTRY"), st.Pending.EntryPrice,
			labelStyle.Render("CONF"), st.Pending.Confidence,
		)
	}
	return labelStyle.Render("NO POSITION") + "\n\n"
}

func (m Model) renderLogs() string {
	logs := m.engine.Logs()
	var b strings.Builder
	for _, entry := range logs {
		style := labelStyle
		switch entry.Level {
		case domain.LogSignal, domain.LogSuccess:
			style = activeStyle
		case domain.LogWarning, domain.LogError:
			style = alarmStyle
		}
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(entry.Timestamp), style.Render(entry.Message)))
	}
	return b.String()
}
