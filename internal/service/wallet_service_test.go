package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/cache"
	"orbit/internal/core"
	"orbit/internal/storage"
	"orbit/internal/sync"
)

func newTestService(t *testing.T) (*WalletService, *storage.SQLiteRepository, *sync.Hub) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	hub := sync.NewHub(repo)
	svc := NewWalletService(repo, nil, hub, cache.NewLRU[Dashboard](16, time.Minute))

	require.NoError(t, repo.CreateUser(context.Background(), core.UserProfile{
		ID: "u-1", Name: "Asha Rao", Email: "asha@example.com", Currency: "INR", AvatarID: "default",
	}, "hash"))
	return svc, repo, hub
}

func TestTopUpWritesIncomeAndBalance(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	tx, err := svc.TopUp(ctx, "u-1", core.RupeesFromInt(2000))
	require.NoError(t, err)
	assert.Equal(t, "Wallet Top Up", tx.Name)
	assert.Equal(t, "+₹2000", tx.Amount)
	assert.True(t, tx.IsIncome)
	assert.Equal(t, "bg-emerald-500", tx.Color)

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000*100), profile.Balance.Paise)

	_, err = svc.TopUp(ctx, "u-1", core.Money{})
	assert.ErrorIs(t, err, ErrAmountNotPositive)
}

func TestAddExpenseDebitsBalance(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, "u-1", core.RupeesFromInt(5000))
	require.NoError(t, err)

	tx, alert, err := svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name:     "Groceries",
		Category: core.CategoryFood,
		Amount:   core.RupeesFromInt(800),
	})
	require.NoError(t, err)
	assert.False(t, alert)
	assert.Equal(t, "-₹800", tx.Amount)
	assert.Equal(t, "bg-orange-500", tx.Color)
	assert.False(t, tx.IsIncome)

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4200*100), profile.Balance.Paise)
}

func TestAddExpenseLimitAlert(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Default limit is 20000. Spend 19800, then a further 500 crosses it.
	_, alert, err := svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name: "Rent", Category: core.CategoryRent, Amount: core.RupeesFromInt(19800),
	})
	require.NoError(t, err)
	assert.False(t, alert)

	_, alert, err = svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name: "Dinner", Category: core.CategoryFood, Amount: core.RupeesFromInt(500),
	})
	require.NoError(t, err)
	assert.True(t, alert)
}

func TestAddExpenseSubscriptionBilling(t *testing.T) {
	svc, _, _ := newTestService(t)

	date := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	tx, _, err := svc.AddExpense(context.Background(), "u-1", ExpenseInput{
		Name:           "Netflix",
		Category:       core.CategoryEntertainment,
		Amount:         core.RupeesFromInt(649),
		Date:           date,
		IsSubscription: true,
	})
	require.NoError(t, err)
	assert.True(t, tx.IsSubscription)
	assert.True(t, tx.NextBillingDate.Equal(date.Add(24*time.Hour)))
}

func TestPayRefusedWhileFrozen(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	frozen, err := svc.ToggleCardFreeze(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, frozen)

	_, _, err = svc.Pay(ctx, "u-1", "Coffee Shop", core.RupeesFromInt(250))
	assert.ErrorIs(t, err, ErrCardFrozen)

	frozen, err = svc.ToggleCardFreeze(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, frozen)

	tx, _, err := svc.Pay(ctx, "u-1", "Coffee Shop", core.RupeesFromInt(250))
	require.NoError(t, err)
	assert.Equal(t, "-₹250", tx.Amount)
}

func TestDepositToGoal(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	goal, err := svc.AddGoal(ctx, "u-1", "New Bike", core.RupeesFromInt(1000))
	require.NoError(t, err)

	_, err = svc.DepositToGoal(ctx, "u-1", goal.ID, core.RupeesFromInt(250))
	require.NoError(t, err)

	tx, err := svc.DepositToGoal(ctx, "u-1", goal.ID, core.RupeesFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "Savings: New Bike", tx.Name)
	assert.Equal(t, "-₹100", tx.Amount)
	assert.Equal(t, "bg-blue-500", tx.Color)
	assert.Equal(t, core.CategorySavings, tx.Category)

	got, err := repo.GetGoal(ctx, "u-1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, core.PercentComplete(got))

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-350*100), profile.Balance.Paise)

	_, err = svc.DepositToGoal(ctx, "u-1", "missing", core.RupeesFromInt(10))
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestDeleteGoal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	goal, err := svc.AddGoal(ctx, "u-1", "Trip", core.RupeesFromInt(50000))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGoal(ctx, "u-1", goal.ID))
	assert.ErrorIs(t, svc.DeleteGoal(ctx, "u-1", goal.ID), ErrGoalNotFound)
}

func TestProfileSettings(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetMonthlyLimit(ctx, "u-1", core.RupeesFromInt(15000)))
	assert.ErrorIs(t, svc.SetMonthlyLimit(ctx, "u-1", core.Money{}), ErrAmountNotPositive)

	require.NoError(t, svc.SetAvatar(ctx, "u-1", "ninja"))
	assert.ErrorIs(t, svc.SetAvatar(ctx, "u-1", "not-an-avatar"), ErrUnknownAvatar)

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15000*100), profile.MonthlyLimit.Paise)
	assert.Equal(t, "ninja", profile.AvatarID)
}

func TestDashboardAggregates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, "u-1", core.RupeesFromInt(10000))
	require.NoError(t, err)
	_, _, err = svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name: "Groceries", Category: core.CategoryFood, Amount: core.RupeesFromInt(800),
	})
	require.NoError(t, err)
	_, err = svc.AddGoal(ctx, "u-1", "Trip", core.RupeesFromInt(5000))
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9200*100), d.Profile.Balance.Paise)
	assert.Equal(t, int64(800*100), d.TotalSpent.Paise)
	assert.Equal(t, int64(10000*100), d.TotalIncome.Paise)
	require.True(t, d.HasTopCategory)
	assert.Equal(t, core.CategoryFood, d.TopCategory.Category)
	assert.NotEmpty(t, d.Badges)
	assert.NotEmpty(t, d.Insight.Message)

	// A write invalidates the cached summary.
	_, _, err = svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name: "Metro", Category: core.CategoryTransport, Amount: core.RupeesFromInt(60),
	})
	require.NoError(t, err)

	d, err = svc.Dashboard(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(860*100), d.TotalSpent.Paise)
}

func TestWritesNotifySubscribers(t *testing.T) {
	svc, _, hub := newTestService(t)
	ctx := context.Background()

	ch, cancel := hub.Subscribe(ctx, "u-1")
	defer cancel()

	// Drain the three seed snapshots.
	for i := 0; i < 3; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("seed snapshot missing")
		}
	}

	_, err := svc.TopUp(ctx, "u-1", core.RupeesFromInt(500))
	require.NoError(t, err)

	seen := make(map[sync.Collection]bool)
	for i := 0; i < 2; i++ {
		select {
		case snap := <-ch:
			seen[snap.Collection] = true
		case <-time.After(time.Second):
			t.Fatal("write notification missing")
		}
	}
	assert.True(t, seen[sync.CollectionTransactions])
	assert.True(t, seen[sync.CollectionProfile])
}
