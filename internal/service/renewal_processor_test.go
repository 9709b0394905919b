package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/core"
)

func TestProcessDueSubscriptionsRenews(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, "u-1", core.RupeesFromInt(5000))
	require.NoError(t, err)

	start := time.Now().UTC()
	_, _, err = svc.AddExpense(ctx, "u-1", ExpenseInput{
		Name:           "Cloud Plus",
		Category:       core.CategoryEntertainment,
		Amount:         core.RupeesFromInt(199),
		Date:           start,
		IsSubscription: true,
	})
	require.NoError(t, err)

	proc := NewRenewalProcessor(repo, svc, 10)

	// Nothing is due yet, the first billing moment is a day out.
	require.NoError(t, proc.ProcessDueSubscriptions(ctx, start.Add(time.Hour)))
	txs, err := repo.ListTransactions(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	// A day later the charge re-bills.
	renewAt := start.Add(25 * time.Hour)
	require.NoError(t, proc.ProcessDueSubscriptions(ctx, renewAt))

	txs, err = repo.ListTransactions(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	renewal := txs[0]
	assert.Equal(t, "Cloud Plus", renewal.Name)
	assert.Equal(t, "-₹199", renewal.Amount)
	assert.True(t, renewal.IsSubscription)
	assert.WithinDuration(t, renewAt.Add(24*time.Hour), renewal.NextBillingDate, 2*time.Second)

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64((5000-2*199)*100), profile.Balance.Paise)

	// The renewed row is retired, so the same pass again renews nothing.
	require.NoError(t, proc.ProcessDueSubscriptions(ctx, renewAt))
	txs, err = repo.ListTransactions(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestProcessDueSubscriptionsRetiresMalformedAmount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.CreateTransaction(ctx, "u-1", core.Transaction{
		ID:              "tx-bad",
		Name:            "Ghost Sub",
		Category:        core.CategoryOther,
		Amount:          "not-money",
		Date:            past,
		Color:           "bg-gray-500",
		IsSubscription:  true,
		NextBillingDate: past,
	}))

	proc := NewRenewalProcessor(repo, svc, 10)
	require.NoError(t, proc.ProcessDueSubscriptions(ctx, time.Now().UTC()))

	due, err := repo.ListDueSubscriptions(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	txs, err := repo.ListTransactions(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
