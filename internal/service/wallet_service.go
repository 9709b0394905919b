package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"orbit/internal/amqp"
	"orbit/internal/cache"
	"orbit/internal/core"
	"orbit/internal/storage"
	"orbit/internal/sync"
)

var (
	ErrCardFrozen        = errors.New("card is frozen")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrUnknownAvatar     = errors.New("unknown avatar")
	ErrGoalNotFound      = errors.New("goal not found")
)

// ExpenseInput is a manual ledger entry before it becomes a transaction.
type ExpenseInput struct {
	Name           string
	Category       core.Category
	Amount         core.Money
	Date           time.Time
	IsSubscription bool
}

// Dashboard is the aggregated read model the clients render.
type Dashboard struct {
	Profile          core.UserProfile
	WeeklySpend      [7]core.Money
	CategoryTotals   []core.CategoryAmount
	TopCategory      core.CategoryAmount
	HasTopCategory   bool
	TotalSpent       core.Money
	TotalIncome      core.Money
	Limit            core.Money
	LimitUsage       float64
	Badges           []core.Badge
	Insight          core.Insight
	NextSubscription *core.Transaction
}

// WalletService orchestrates wallet writes across SQLite, the archive
// queue and the snapshot hub. Writes are two or three independent
// statements; partial failure leaves the collections briefly inconsistent
// and the next snapshot carries whatever actually landed.
type WalletService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	hub        *sync.Hub
	summaries  *cache.LRU[Dashboard]
}

func NewWalletService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, hub *sync.Hub, summaries *cache.LRU[Dashboard]) *WalletService {
	return &WalletService{
		storage:    storage,
		amqpClient: amqpClient,
		hub:        hub,
		summaries:  summaries,
	}
}

// AddExpense records a manual expense entry. The returned flag reports
// whether this entry pushed the current month past the configured limit.
func (s *WalletService) AddExpense(ctx context.Context, userID string, in ExpenseInput) (core.Transaction, bool, error) {
	if in.Amount.Paise <= 0 {
		return core.Transaction{}, false, ErrAmountNotPositive
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	alert, err := s.limitAlert(ctx, userID, in.Amount)
	if err != nil {
		return core.Transaction{}, false, err
	}

	tx := core.Transaction{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Category:       in.Category,
		Amount:         in.Amount.Neg().Display(),
		Date:           in.Date,
		Color:          in.Category.Color(),
		IsSubscription: in.IsSubscription,
	}
	if in.IsSubscription {
		tx.NextBillingDate = in.Date.Add(24 * time.Hour)
	}

	if err := s.writeTransaction(ctx, userID, tx, in.Amount.Neg()); err != nil {
		return core.Transaction{}, false, err
	}
	return tx, alert, nil
}

// Pay is the card payment path. It refuses outright while the card is
// frozen; otherwise it behaves like a manual expense.
func (s *WalletService) Pay(ctx context.Context, userID, name string, amount core.Money) (core.Transaction, bool, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("load profile: %w", err)
	}
	if profile.CardFrozen {
		return core.Transaction{}, false, ErrCardFrozen
	}
	return s.AddExpense(ctx, userID, ExpenseInput{
		Name:     name,
		Category: core.CategoryOther,
		Amount:   amount,
	})
}

// TopUp adds money to the wallet as a Wallet Top Up income entry.
func (s *WalletService) TopUp(ctx context.Context, userID string, amount core.Money) (core.Transaction, error) {
	if amount.Paise <= 0 {
		return core.Transaction{}, ErrAmountNotPositive
	}

	tx := core.Transaction{
		ID:       uuid.NewString(),
		Name:     "Wallet Top Up",
		Category: core.CategoryIncome,
		Amount:   amount.Display(),
		Date:     time.Now(),
		Color:    core.CategoryIncome.Color(),
		IsIncome: true,
	}

	if err := s.writeTransaction(ctx, userID, tx, amount); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// AddGoal creates a savings goal starting from zero.
func (s *WalletService) AddGoal(ctx context.Context, userID, name string, target core.Money) (core.Goal, error) {
	goal := core.Goal{
		ID:     uuid.NewString(),
		Name:   name,
		Target: target,
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}

	if err := s.storage.CreateGoal(ctx, userID, goal); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionGoals)
	return goal, nil
}

func (s *WalletService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	err := s.storage.DeleteGoal(ctx, userID, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrGoalNotFound
	}
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionGoals)
	return nil
}

// DepositToGoal moves money from the wallet into a goal. The three writes
// are not atomic: when a later one fails the earlier ones stand, the
// discrepancy is logged, and reconciliation is left to the reader of the
// next snapshot.
func (s *WalletService) DepositToGoal(ctx context.Context, userID, goalID string, amount core.Money) (core.Transaction, error) {
	if amount.Paise <= 0 {
		return core.Transaction{}, ErrAmountNotPositive
	}

	goal, err := s.storage.GetGoal(ctx, userID, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, ErrGoalNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load goal: %w", err)
	}

	if err := s.storage.AddToGoalSaved(ctx, userID, goalID, amount); err != nil {
		return core.Transaction{}, fmt.Errorf("add to goal: %w", err)
	}

	if err := s.storage.AdjustBalance(ctx, userID, amount.Neg()); err != nil {
		slog.ErrorContext(ctx, "Goal credited but balance not debited",
			"user_id", userID, "goal_id", goalID, "amount", amount.DisplayPlain(), "error", err)
	}

	tx := core.Transaction{
		ID:       uuid.NewString(),
		Name:     "Savings: " + goal.Name,
		Category: core.CategorySavings,
		Amount:   amount.Neg().Display(),
		Date:     time.Now(),
		Color:    core.CategorySavings.Color(),
	}
	if err := s.storage.CreateTransaction(ctx, userID, tx); err != nil {
		slog.ErrorContext(ctx, "Deposit applied but transaction row missing",
			"user_id", userID, "goal_id", goalID, "error", err)
	} else {
		s.publishArchive(ctx, userID, tx.ID)
	}

	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionGoals, sync.CollectionProfile, sync.CollectionTransactions)
	return tx, nil
}

func (s *WalletService) SetMonthlyLimit(ctx context.Context, userID string, limit core.Money) error {
	if limit.Paise <= 0 {
		return ErrAmountNotPositive
	}
	if err := s.storage.SetMonthlyLimit(ctx, userID, limit); err != nil {
		return fmt.Errorf("set monthly limit: %w", err)
	}
	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionProfile)
	return nil
}

func (s *WalletService) SetAvatar(ctx context.Context, userID, avatarID string) error {
	if !core.IsValidAvatar(avatarID) {
		return ErrUnknownAvatar
	}
	if err := s.storage.SetAvatar(ctx, userID, avatarID); err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionProfile)
	return nil
}

// ToggleCardFreeze flips the freeze flag and returns the new state.
func (s *WalletService) ToggleCardFreeze(ctx context.Context, userID string) (bool, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}

	frozen := !profile.CardFrozen
	if err := s.storage.SetCardFrozen(ctx, userID, frozen); err != nil {
		return false, fmt.Errorf("set card frozen: %w", err)
	}

	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionProfile)
	return frozen, nil
}

// Dashboard builds the aggregated read model, cached per user until the
// next write.
func (s *WalletService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if s.summaries != nil {
		if d, ok := s.summaries.Get(userID); ok {
			return d, nil
		}
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load profile: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list transactions: %w", err)
	}
	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list goals: %w", err)
	}

	spent := core.TotalSpent(txs)
	d := Dashboard{
		Profile:        profile,
		WeeklySpend:    core.WeeklySpend(txs),
		CategoryTotals: sortedCategoryTotals(txs),
		TotalSpent:     spent,
		TotalIncome:    core.TotalIncome(txs),
		Limit:          profile.Limit(),
		LimitUsage:     core.LimitUsage(monthSpent(txs, time.Now()), profile.Limit()),
		Badges:         core.EvaluateBadges(txs, goals),
		Insight:        core.SpendingInsight(txs, profile.Name),
	}
	d.TopCategory, d.HasTopCategory = core.TopCategory(txs)
	if next, ok := core.NextSubscriptionCharge(txs); ok {
		d.NextSubscription = &next
	}

	if s.summaries != nil {
		s.summaries.Set(userID, d)
	}
	return d, nil
}

func (s *WalletService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close wallet service: %v", errs)
	}
	return nil
}

// writeTransaction is the shared expense/income path: ledger row first,
// then the balance adjustment, then the async notifications.
func (s *WalletService) writeTransaction(ctx context.Context, userID string, tx core.Transaction, delta core.Money) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.storage.CreateTransaction(ctx, userID, tx); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	if err := s.storage.AdjustBalance(ctx, userID, delta); err != nil {
		slog.ErrorContext(ctx, "Transaction saved but balance not adjusted",
			"user_id", userID, "transaction_id", tx.ID, "error", err)
	}

	s.publishArchive(ctx, userID, tx.ID)
	s.invalidate(userID)
	s.hub.Notify(ctx, userID, sync.CollectionTransactions, sync.CollectionProfile)
	return nil
}

func (s *WalletService) publishArchive(ctx context.Context, userID, transactionID string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping archive message")
		return
	}
	if err := s.amqpClient.PublishTransactionArchive(ctx, userID, transactionID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish archive message",
			"user_id", userID, "transaction_id", transactionID, "error", err)
	}
}

func (s *WalletService) invalidate(userID string) {
	if s.summaries != nil {
		s.summaries.Delete(userID)
	}
}

func (s *WalletService) limitAlert(ctx context.Context, userID string, amount core.Money) (bool, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list transactions: %w", err)
	}
	return core.ExceedsLimit(monthSpent(txs, time.Now()), amount, profile.Limit()), nil
}

// monthSpent totals expenses dated in the same calendar month as now.
func monthSpent(txs []core.Transaction, now time.Time) core.Money {
	var inMonth []core.Transaction
	for _, tx := range txs {
		if tx.Date.Year() == now.Year() && tx.Date.Month() == now.Month() {
			inMonth = append(inMonth, tx)
		}
	}
	return core.TotalSpent(inMonth)
}

func sortedCategoryTotals(txs []core.Transaction) []core.CategoryAmount {
	totals := core.CategoryTotals(txs)
	out := make([]core.CategoryAmount, 0, len(totals))
	for _, cat := range core.Categories() {
		if amount, ok := totals[cat]; ok {
			out = append(out, core.CategoryAmount{Category: cat, Amount: amount})
		}
	}
	return out
}
