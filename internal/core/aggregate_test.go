package core

import (
	"testing"
	"time"
)

// 2025-06-02 is a Monday.
var monday = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func expense(name string, cat Category, amount string, date time.Time) Transaction {
	return Transaction{
		ID: name, Name: name, Category: cat, Amount: amount,
		Date: date, Color: cat.Color(),
	}
}

func income(name, amount string, date time.Time) Transaction {
	return Transaction{
		ID: name, Name: name, Category: CategoryIncome, Amount: amount,
		Date: date, IsIncome: true,
	}
}

func TestWeeklySpendSingleExpense(t *testing.T) {
	txs := []Transaction{expense("lunch", CategoryFood, "-₹500", monday)}

	buckets := WeeklySpend(txs)
	for day, got := range buckets {
		want := int64(0)
		if time.Weekday(day) == time.Monday {
			want = 50000
		}
		if got.Paise != want {
			t.Errorf("bucket %s = %d, want %d", WeekdayName(day), got.Paise, want)
		}
	}

	top, ok := TopCategory(txs)
	if !ok || top.Category != CategoryFood {
		t.Fatalf("top category = %v (ok=%v), want Food", top.Category, ok)
	}
}

func TestWeeklySpendBucketSumEqualsTotalSpent(t *testing.T) {
	txs := []Transaction{
		expense("lunch", CategoryFood, "-₹500", monday),
		expense("cab", CategoryTransport, "-₹120.50", monday.AddDate(0, 0, 2)),
		expense("movie", CategoryEntertainment, "-₹350", monday.AddDate(0, 0, 4)),
		income("salary", "+₹20000", monday.AddDate(0, 0, 1)),
	}

	var sum Money
	for _, b := range WeeklySpend(txs) {
		sum = sum.Add(b)
	}
	if spent := TotalSpent(txs); sum.Paise != spent.Paise {
		t.Fatalf("bucket sum %d != totalSpent %d", sum.Paise, spent.Paise)
	}
}

func TestWeeklySpendSkipsMalformedAmounts(t *testing.T) {
	txs := []Transaction{
		expense("good", CategoryFood, "-₹100", monday),
		expense("bad", CategoryFood, "oops", monday),
	}
	buckets := WeeklySpend(txs)
	if got := buckets[time.Monday].Paise; got != 10000 {
		t.Fatalf("Monday bucket = %d, want 10000", got)
	}
	if spent := TotalSpent(txs); spent.Paise != 10000 {
		t.Fatalf("totalSpent = %d, want 10000", spent.Paise)
	}
}

func TestTopCategoryLexicalTieBreak(t *testing.T) {
	txs := []Transaction{
		expense("a", CategoryShopping, "-₹300", monday),
		expense("b", CategoryFood, "-₹300", monday),
	}
	top, ok := TopCategory(txs)
	if !ok {
		t.Fatal("expected a top category")
	}
	// Equal totals resolve to the lexically smaller name.
	if top.Category != CategoryFood {
		t.Fatalf("tie broke to %s, want Food", top.Category)
	}
}

func TestTopCategoryNoExpenses(t *testing.T) {
	if _, ok := TopCategory([]Transaction{income("pay", "+₹100", monday)}); ok {
		t.Fatal("expected no top category for income-only list")
	}
	if _, ok := TopCategory(nil); ok {
		t.Fatal("expected no top category for empty list")
	}
}

func TestTotalsSplitByIncomeFlag(t *testing.T) {
	txs := []Transaction{
		income("topup", "+₹1000", monday),
		expense("rent", CategoryRent, "-₹400", monday),
		expense("snack", CategoryFood, "-₹100", monday),
	}
	if got := TotalIncome(txs); got.Paise != 100000 {
		t.Fatalf("totalIncome = %d, want 100000", got.Paise)
	}
	if got := TotalSpent(txs); got.Paise != 50000 {
		t.Fatalf("totalSpent = %d, want 50000", got.Paise)
	}
}

func TestExceedsLimit(t *testing.T) {
	limit := RupeesFromInt(20000)
	spent := RupeesFromInt(19800)

	if !ExceedsLimit(spent, RupeesFromInt(500), limit) {
		t.Fatal("19800 + 500 should exceed 20000")
	}
	if ExceedsLimit(spent, RupeesFromInt(200), limit) {
		t.Fatal("19800 + 200 should not exceed 20000")
	}
}

func TestLimitUsage(t *testing.T) {
	if got := LimitUsage(RupeesFromInt(5000), RupeesFromInt(20000)); got != 25 {
		t.Fatalf("usage = %v, want 25", got)
	}
	if got := LimitUsage(RupeesFromInt(5000), Money{}); got != 0 {
		t.Fatalf("usage with zero limit = %v, want 0", got)
	}
	// Overspend reads past 100 so callers can report by how much.
	if got := LimitUsage(RupeesFromInt(30000), RupeesFromInt(20000)); got != 150 {
		t.Fatalf("usage = %v, want 150", got)
	}
}

func TestNextSubscriptionCharge(t *testing.T) {
	sub := expense("Netflix", CategoryEntertainment, "-₹649", monday)
	sub.IsSubscription = true
	sub.NextBillingDate = monday.AddDate(0, 0, 1)

	txs := []Transaction{expense("lunch", CategoryFood, "-₹200", monday), sub}
	got, ok := NextSubscriptionCharge(txs)
	if !ok || got.Name != "Netflix" {
		t.Fatalf("subscription = %v (ok=%v), want Netflix", got.Name, ok)
	}

	if _, ok := NextSubscriptionCharge(txs[:1]); ok {
		t.Fatal("expected no subscription")
	}
}
