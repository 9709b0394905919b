// Package overlay models the dashboard's overlay state: a single-slot
// bottom drawer, independent modal flags, and the transient selections
// they carry. Keeping this as an explicit state machine makes the
// one-drawer-at-a-time invariant checkable instead of being an accident
// of scattered booleans.
package overlay

import "errors"

// DrawerKind identifies which drawer occupies the single drawer slot.
type DrawerKind string

const (
	DrawerNone    DrawerKind = ""
	DrawerSend    DrawerKind = "send"
	DrawerRequest DrawerKind = "request"
	DrawerPay     DrawerKind = "pay"
	DrawerMore    DrawerKind = "more"
	DrawerProfile DrawerKind = "profile"
	DrawerAddGoal DrawerKind = "add-goal"
)

// Step is the position in a drawer's linear submit sequence.
type Step string

const (
	StepInput      Step = "input"
	StepProcessing Step = "processing"
	StepSuccess    Step = "success"
)

// Modal names one of the overlays that live outside the drawer slot.
// Modals open and close independently of each other and of the drawer.
type Modal string

const (
	ModalAddMoney    Modal = "add-money"
	ModalManualEntry Modal = "manual-entry"
	ModalReport      Modal = "report"
	ModalDeposit     Modal = "deposit"
	ModalReceipt     Modal = "receipt"
)

// Tick counts for the submit sequence. Ticks are injected by the caller so
// the controller stays deterministic under test; the UI maps one tick to
// roughly half a second.
const (
	processingTicks = 3
	successTicks    = 3
)

var (
	ErrNoDrawer     = errors.New("no drawer open")
	ErrNotAtInput   = errors.New("drawer is not at the input step")
	ErrProcessing   = errors.New("drawer is processing")
	ErrCardFrozen   = errors.New("card is frozen")
	ErrUnknownModal = errors.New("unknown modal")
)

// Controller owns all ephemeral overlay state for one session. It is not
// safe for concurrent use; the UI event loop is its only caller.
type Controller struct {
	drawer DrawerKind
	step   Step
	ticks  int

	modals map[Modal]bool

	selectedGoalID string
	selectedTxID   string

	cardFrozen bool
}

func NewController() *Controller {
	return &Controller{
		step:   StepInput,
		modals: make(map[Modal]bool),
	}
}

// Drawer returns the currently open drawer, DrawerNone when closed.
func (c *Controller) Drawer() DrawerKind { return c.drawer }

// Step returns the open drawer's position in its submit sequence.
func (c *Controller) Step() Step { return c.step }

// IsFrozen reports the card-frozen toggle.
func (c *Controller) IsFrozen() bool { return c.cardFrozen }

// ToggleFreeze flips the card-frozen flag and returns the new state.
func (c *Controller) ToggleFreeze() bool {
	c.cardFrozen = !c.cardFrozen
	return c.cardFrozen
}

// OpenDrawer puts kind in the drawer slot, replacing whatever was there.
// Every open resets the submit sequence to the input step. Opening the pay
// drawer while the card is frozen is refused.
func (c *Controller) OpenDrawer(kind DrawerKind) error {
	if kind == DrawerPay && c.cardFrozen {
		return ErrCardFrozen
	}
	c.drawer = kind
	c.step = StepInput
	c.ticks = 0
	return nil
}

// CloseDrawer empties the drawer slot. Closing is allowed from input and
// success but refused mid-processing; an in-flight write would not be
// cancelled by dismissing the drawer.
func (c *Controller) CloseDrawer() error {
	if c.drawer == DrawerNone {
		return nil
	}
	if c.step == StepProcessing {
		return ErrProcessing
	}
	c.drawer = DrawerNone
	c.step = StepInput
	c.ticks = 0
	return nil
}

// Submit advances the open drawer from input to processing. The add-goal
// drawer skips straight to success: its write is fire-and-forget and the
// form has nothing to wait on.
func (c *Controller) Submit() error {
	if c.drawer == DrawerNone {
		return ErrNoDrawer
	}
	if c.step != StepInput {
		return ErrNotAtInput
	}
	if c.drawer == DrawerAddGoal {
		c.step = StepSuccess
		c.ticks = successTicks
		return nil
	}
	c.step = StepProcessing
	c.ticks = processingTicks
	return nil
}

// Tick advances the submit sequence by one time step: processing counts
// down into success, success counts down into auto-close. Ticks outside
// the sequence are no-ops.
func (c *Controller) Tick() {
	if c.drawer == DrawerNone {
		return
	}
	switch c.step {
	case StepProcessing:
		c.ticks--
		if c.ticks <= 0 {
			c.step = StepSuccess
			c.ticks = successTicks
		}
	case StepSuccess:
		c.ticks--
		if c.ticks <= 0 {
			c.drawer = DrawerNone
			c.step = StepInput
		}
	}
}

// OpenModal raises a modal flag. The drawer slot is untouched; modals
// open and close independently of it.
func (c *Controller) OpenModal(m Modal) error {
	switch m {
	case ModalAddMoney, ModalManualEntry, ModalReport, ModalDeposit, ModalReceipt:
		c.modals[m] = true
		return nil
	default:
		return ErrUnknownModal
	}
}

// CloseModal lowers a modal flag and clears the selection it carried.
func (c *Controller) CloseModal(m Modal) {
	delete(c.modals, m)
	switch m {
	case ModalDeposit:
		c.selectedGoalID = ""
	case ModalReceipt:
		c.selectedTxID = ""
	}
}

// ModalOpen reports whether m is currently raised.
func (c *Controller) ModalOpen(m Modal) bool { return c.modals[m] }

// SelectGoal records the deposit target and opens the deposit modal.
func (c *Controller) SelectGoal(goalID string) {
	c.selectedGoalID = goalID
	c.modals[ModalDeposit] = true
}

// SelectTransaction records the receipt target and opens the receipt modal.
func (c *Controller) SelectTransaction(txID string) {
	c.selectedTxID = txID
	c.modals[ModalReceipt] = true
}

// SelectedGoal returns the goal the deposit modal is pointed at.
func (c *Controller) SelectedGoal() string { return c.selectedGoalID }

// SelectedTransaction returns the transaction the receipt modal shows.
func (c *Controller) SelectedTransaction() string { return c.selectedTxID }

// Reset drops every overlay and selection, as happens on sign-out.
// The card-frozen flag survives; it belongs to the card, not the overlay.
func (c *Controller) Reset() {
	c.drawer = DrawerNone
	c.step = StepInput
	c.ticks = 0
	c.modals = make(map[Modal]bool)
	c.selectedGoalID = ""
	c.selectedTxID = ""
}
