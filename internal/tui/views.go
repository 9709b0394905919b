package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"orbit/internal/core"
	"orbit/internal/overlay"
)

type Styles struct {
	Title      lipgloss.Style
	BalanceBox lipgloss.Style
	Income     lipgloss.Style
	Spent      lipgloss.Style
	Muted      lipgloss.Style
	Bar        lipgloss.Style
	GoalDone   lipgloss.Style
	Status     lipgloss.Style
	Frozen     lipgloss.Style
	Overlay    lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c4b5fd")),
		BalanceBox: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
		Income:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		Spent:      lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")),
		Bar:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7c3aed")),
		GoalDone:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("#d29b1d")),
		Frozen:     lipgloss.NewStyle().Foreground(lipgloss.Color("#38bdf8")).Bold(true),
		Overlay:    lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Padding(0, 1),
	}
}

const (
	maxBarWidth     = 24
	maxTransactions = 10
)

func (m Model) View() string {
	if !m.haveDashboard {
		return "loading dashboard..."
	}

	sections := []string{
		m.headerView(),
		m.balanceView(),
		m.weeklyView(),
		m.goalsView(),
		m.transactionsView(),
		m.overlayView(),
		m.statusView(),
	}

	var nonEmpty []string
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, nonEmpty...)
}

func (m Model) headerView() string {
	profile := m.mirror.Profile()
	title := m.styles.Title.Render("ORBIT")
	if profile.Name == "" {
		return title
	}
	header := fmt.Sprintf("%s  Welcome, %s", title, profile.Name)
	if profile.CardFrozen {
		header += "  " + m.styles.Frozen.Render("[card frozen]")
	}
	return header
}

func (m Model) balanceView() string {
	var b strings.Builder
	profile := m.mirror.Profile()

	fmt.Fprintf(&b, "Balance: ₹%s\n", profile.Balance.DisplayPlain())
	fmt.Fprintf(&b, "Income:  %s\n", m.styles.Income.Render("₹"+m.dashboard.TotalIncome.DisplayPlain()))
	fmt.Fprintf(&b, "Spent:   %s\n", m.styles.Spent.Render("₹"+m.dashboard.TotalSpent.DisplayPlain()))
	fmt.Fprintf(&b, "Limit:   %.0f%% used of ₹%s", m.dashboard.LimitUsage, m.dashboard.Limit.DisplayPlain())
	if top, ok := m.dashboard.TopCategory, m.dashboard.HasTopCategory; ok {
		fmt.Fprintf(&b, "\nTop:     %s (₹%s)", top.Category, top.Amount.DisplayPlain())
	}
	return m.styles.BalanceBox.Render(b.String())
}

// weeklyView draws one bar per weekday, scaled against the week's biggest
// spending day.
func (m Model) weeklyView() string {
	var max int64
	for _, amount := range m.dashboard.WeeklySpend {
		if amount.Paise > max {
			max = amount.Paise
		}
	}
	if max == 0 {
		return m.styles.Muted.Render("No spending this week.")
	}

	var b strings.Builder
	b.WriteString("This week\n")
	for i, amount := range m.dashboard.WeeklySpend {
		width := int(amount.Paise * maxBarWidth / max)
		bar := m.styles.Bar.Render(strings.Repeat("█", width))
		fmt.Fprintf(&b, "%s %-*s %s\n", core.WeekdayName(i), maxBarWidth, bar, amount.DisplayPlain())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) goalsView() string {
	goals := m.mirror.Goals()
	if len(goals) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Goals\n")
	for _, g := range goals {
		percent := core.PercentComplete(g)
		line := fmt.Sprintf("%s %s  %s / %s (%d%%)",
			core.ClassifyIcon(g.Name), g.Name, g.Saved.DisplayPlain(), g.Target.DisplayPlain(), percent)
		if percent >= 100 {
			line = m.styles.GoalDone.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) transactionsView() string {
	txs := m.mirror.Transactions()
	if len(txs) == 0 {
		return m.styles.Muted.Render("No transactions yet. Press a to add money.")
	}
	if len(txs) > maxTransactions {
		txs = txs[:maxTransactions]
	}

	var b strings.Builder
	b.WriteString("Recent\n")
	for _, t := range txs {
		amount := t.Amount
		if t.IsIncome {
			amount = m.styles.Income.Render(amount)
		} else {
			amount = m.styles.Spent.Render(amount)
		}
		fmt.Fprintf(&b, "%s  %-24s %-14s %s\n",
			t.Date.Format("Jan 02"), clip(t.Name, 24), t.Category, amount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) overlayView() string {
	if m.overlay.ModalOpen(overlay.ModalAddMoney) {
		return m.styles.Overlay.Render("Add money: ₹" + m.input + "▌")
	}

	switch m.overlay.Drawer() {
	case overlay.DrawerNone:
		return ""
	case overlay.DrawerPay, overlay.DrawerSend, overlay.DrawerRequest, overlay.DrawerAddGoal:
		switch m.overlay.Step() {
		case overlay.StepProcessing:
			return m.styles.Overlay.Render("Processing...")
		case overlay.StepSuccess:
			return m.styles.Overlay.Render(m.styles.Income.Render("Done"))
		default:
			return m.styles.Overlay.Render(string(m.overlay.Drawer()) + ": " + m.input + "▌")
		}
	}
	return ""
}

func (m Model) statusView() string {
	help := m.styles.Muted.Render("a add money · p pay · s send · g goal · f freeze · e export · q quit")
	if m.status == "" {
		return help
	}
	return m.styles.Status.Render(m.status) + "\n" + help
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
