// Package tui renders the dashboard in the terminal. It reads exclusively
// from a Mirror fed by the hub's subscription stream, so what is on screen
// is always a full snapshot, never an optimistic guess.
package tui

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orbit/internal/core"
	"orbit/internal/export"
	"orbit/internal/overlay"
	"orbit/internal/service"
	syncpkg "orbit/internal/sync"
)

// One overlay tick roughly every half second drives the processing and
// success phases of drawer submits.
const tickInterval = 500 * time.Millisecond

var (
	errInputWantNameAmount = errors.New("type a name followed by an amount, like: Cafe Leela 250")
	errInputWantAmount     = errors.New("type a positive amount in rupees")
)

type (
	snapshotMsg  syncpkg.Collection
	dashboardMsg service.Dashboard
	tickMsg      time.Time
	statusMsg    string
	errMsg       struct{ err error }
	streamClosed struct{}
)

// Model is the bubbletea state for one signed-in session.
type Model struct {
	styles Styles

	wallet  *service.WalletService
	mirror  *syncpkg.Mirror
	overlay *overlay.Controller
	userID  string

	stream <-chan syncpkg.Snapshot
	cancel func()

	dashboard     service.Dashboard
	haveDashboard bool

	input  string
	status string

	width  int
	height int
}

// New wires a model to a subscription stream. The caller owns the hub; the
// model owns the stream teardown.
func New(wallet *service.WalletService, hub *syncpkg.Hub, userID string) Model {
	stream, cancel := hub.Subscribe(context.Background(), userID)

	m := Model{
		styles:  defaultStyles(),
		wallet:  wallet,
		mirror:  syncpkg.NewMirror(),
		overlay: overlay.NewController(),
		userID:  userID,
		stream:  stream,
		cancel:  cancel,
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.refreshDashboard(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		if syncpkg.Collection(msg) == syncpkg.CollectionProfile {
			m.syncFreeze()
		}
		return m, tea.Batch(m.waitSnapshot(), m.refreshDashboard())

	case dashboardMsg:
		m.dashboard = service.Dashboard(msg)
		m.haveDashboard = true
		return m, nil

	case tickMsg:
		m.overlay.Tick()
		return m, tick()

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case streamClosed:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay.Drawer() != overlay.DrawerNone || m.overlay.ModalOpen(overlay.ModalAddMoney) {
		return m.handleFormKey(msg)
	}

	switch msg.String() {
	case "q":
		m.cancel()
		return m, tea.Quit
	case "p":
		if err := m.overlay.OpenDrawer(overlay.DrawerPay); err != nil {
			m.status = "card is frozen, unfreeze it first"
			return m, nil
		}
		m.input = ""
		m.status = "pay: type merchant and amount, enter to submit"
	case "s":
		_ = m.overlay.OpenDrawer(overlay.DrawerSend)
		m.input = ""
		m.status = "send: type name and amount, enter to submit"
	case "g":
		_ = m.overlay.OpenDrawer(overlay.DrawerAddGoal)
		m.input = ""
		m.status = "goal: type name and target, enter to submit"
	case "a":
		_ = m.overlay.OpenModal(overlay.ModalAddMoney)
		m.input = ""
		m.status = "add money: type amount, enter to submit"
	case "f":
		return m, m.toggleFreeze()
	case "e":
		return m, m.exportCSV()
	}
	return m, nil
}

// handleFormKey edits and submits the active drawer or modal form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		if m.overlay.ModalOpen(overlay.ModalAddMoney) {
			m.overlay.CloseModal(overlay.ModalAddMoney)
			m.input = ""
			return m, nil
		}
		if err := m.overlay.CloseDrawer(); err == nil {
			m.input = ""
		}
		return m, nil

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case tea.KeyEnter:
		return m.submitForm()

	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil

	case tea.KeySpace:
		m.input += " "
		return m, nil
	}
	return m, nil
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input)
	m.input = ""

	if m.overlay.ModalOpen(overlay.ModalAddMoney) {
		amount, err := parseRupees(input)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.overlay.CloseModal(overlay.ModalAddMoney)
		return m, m.topUp(amount)
	}

	drawer := m.overlay.Drawer()
	name, amount, err := splitNameAmount(input)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if err := m.overlay.Submit(); err != nil {
		m.status = err.Error()
		return m, nil
	}

	switch drawer {
	case overlay.DrawerPay:
		return m, m.pay(name, amount)
	case overlay.DrawerSend, overlay.DrawerRequest:
		return m, m.sendExpense(name, amount)
	case overlay.DrawerAddGoal:
		return m, m.addGoal(name, amount)
	}
	return m, nil
}

// syncFreeze pulls the server's card state into the overlay controller so
// the pay drawer refusal matches what the server would answer.
func (m *Model) syncFreeze() {
	if m.mirror.Profile().CardFrozen != m.overlay.IsFrozen() {
		m.overlay.ToggleFreeze()
	}
}

func (m Model) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.stream
		if !ok {
			return streamClosed{}
		}
		m.mirror.Apply(snap)
		return snapshotMsg(snap.Collection)
	}
}

func (m Model) refreshDashboard() tea.Cmd {
	return func() tea.Msg {
		dash, err := m.wallet.Dashboard(context.Background(), m.userID)
		if err != nil {
			return errMsg{err}
		}
		return dashboardMsg(dash)
	}
}

func (m Model) topUp(amount core.Money) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.wallet.TopUp(context.Background(), m.userID, amount); err != nil {
			return errMsg{err}
		}
		return statusMsg("added " + amount.Display())
	}
}

func (m Model) pay(name string, amount core.Money) tea.Cmd {
	return func() tea.Msg {
		_, alert, err := m.wallet.Pay(context.Background(), m.userID, name, amount)
		if err != nil {
			return errMsg{err}
		}
		if alert {
			return statusMsg("paid " + name + ", monthly limit exceeded")
		}
		return statusMsg("paid " + name)
	}
}

func (m Model) sendExpense(name string, amount core.Money) tea.Cmd {
	return func() tea.Msg {
		_, alert, err := m.wallet.AddExpense(context.Background(), m.userID, service.ExpenseInput{
			Name:     name,
			Category: core.CategoryOther,
			Amount:   amount,
		})
		if err != nil {
			return errMsg{err}
		}
		if alert {
			return statusMsg("sent to " + name + ", monthly limit exceeded")
		}
		return statusMsg("sent to " + name)
	}
}

func (m Model) addGoal(name string, target core.Money) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.wallet.AddGoal(context.Background(), m.userID, name, target); err != nil {
			return errMsg{err}
		}
		return statusMsg("goal " + name + " created")
	}
}

func (m Model) toggleFreeze() tea.Cmd {
	return func() tea.Msg {
		frozen, err := m.wallet.ToggleCardFreeze(context.Background(), m.userID)
		if err != nil {
			return errMsg{err}
		}
		if frozen {
			return statusMsg("card frozen")
		}
		return statusMsg("card unfrozen")
	}
}

func (m Model) exportCSV() tea.Cmd {
	return func() tea.Msg {
		name := export.Filename("csv", time.Now())
		f, err := os.Create(name)
		if err != nil {
			return errMsg{err}
		}
		defer f.Close()

		if err := export.WriteCSV(f, m.mirror.Transactions()); err != nil {
			return errMsg{err}
		}
		return statusMsg("statement written to " + name)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// splitNameAmount parses "Cafe Leela 250" into a name and a rupee amount,
// the amount being the last whitespace field.
func splitNameAmount(input string) (string, core.Money, error) {
	fields := strings.Fields(input)
	if len(fields) < 2 {
		return "", core.Money{}, errInputWantNameAmount
	}
	amount, err := parseRupees(fields[len(fields)-1])
	if err != nil {
		return "", core.Money{}, err
	}
	return strings.Join(fields[:len(fields)-1], " "), amount, nil
}

func parseRupees(s string) (core.Money, error) {
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 {
		return core.Money{}, errInputWantAmount
	}
	return core.Money{Paise: int64(r*100 + 0.5)}, nil
}
