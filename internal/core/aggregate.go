package core

import "time"

// CategoryAmount pairs a category with an aggregated magnitude.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// WeeklySpend folds expense transactions into seven weekday buckets,
// Sunday through Saturday in fixed calendar order. Each expense contributes
// its magnitude to the bucket of its date's weekday; days without expenses
// stay zero. Transactions whose amount string fails to parse are skipped.
func WeeklySpend(transactions []Transaction) [7]Money {
	var buckets [7]Money
	for _, t := range transactions {
		if t.IsIncome {
			continue
		}
		amount, err := ParseAmount(t.Amount)
		if err != nil {
			continue
		}
		day := int(t.Date.Weekday())
		buckets[day] = buckets[day].Add(amount.Abs())
	}
	return buckets
}

// CategoryTotals sums expense magnitudes per category. Income transactions
// and unparseable amounts are excluded.
func CategoryTotals(transactions []Transaction) map[Category]Money {
	totals := make(map[Category]Money)
	for _, t := range transactions {
		if t.IsIncome {
			continue
		}
		amount, err := ParseAmount(t.Amount)
		if err != nil {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(amount.Abs())
	}
	return totals
}

// TopCategory returns the category with the highest expense total.
// Equal totals break toward the lexically smaller category name so the
// result never depends on map iteration order. ok is false when the list
// contains no countable expenses.
func TopCategory(transactions []Transaction) (top CategoryAmount, ok bool) {
	totals := CategoryTotals(transactions)
	for category, amount := range totals {
		switch {
		case !ok,
			amount.Paise > top.Amount.Paise,
			amount.Paise == top.Amount.Paise && category < top.Category:
			top = CategoryAmount{Category: category, Amount: amount}
			ok = true
		}
	}
	return top, ok
}

// TotalSpent sums the magnitudes of all expense transactions.
func TotalSpent(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if t.IsIncome {
			continue
		}
		if amount, err := ParseAmount(t.Amount); err == nil {
			total = total.Add(amount.Abs())
		}
	}
	return total
}

// TotalIncome sums the magnitudes of all income transactions.
func TotalIncome(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if !t.IsIncome {
			continue
		}
		if amount, err := ParseAmount(t.Amount); err == nil {
			total = total.Add(amount.Abs())
		}
	}
	return total
}

// LimitUsage returns spent as a percentage of limit, uncapped so the
// caller can tell by how far the limit was blown. A non-positive limit
// reads as 0%.
func LimitUsage(spent, limit Money) float64 {
	if limit.Paise <= 0 {
		return 0
	}
	return float64(spent.Paise) / float64(limit.Paise) * 100
}

// ExceedsLimit reports whether adding one more expense pushes cumulative
// spend past the monthly limit.
func ExceedsLimit(spent, newExpense, limit Money) bool {
	return spent.Add(newExpense.Abs()).Paise > limit.Paise
}

// NextSubscriptionCharge returns the first transaction flagged as a
// subscription. With the list in date-descending order that is the most
// recently recorded one, which is what the upcoming-charge banner shows.
func NextSubscriptionCharge(transactions []Transaction) (Transaction, bool) {
	for _, t := range transactions {
		if t.IsSubscription {
			return t, true
		}
	}
	return Transaction{}, false
}

// WeekdayName gives the short label for a WeeklySpend bucket index.
func WeekdayName(i int) string {
	return time.Weekday(i % 7).String()[:3]
}
