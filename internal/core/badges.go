package core

// Badge is a derived achievement indicator. Badges are recomputed from the
// current transaction and goal lists on every evaluation and nothing records
// when one was unlocked, so a badge can flip back to locked when the data
// underneath it changes (deleting a goal, for instance).
type Badge struct {
	ID       string
	Name     string
	Desc     string
	Unlocked bool
}

// visionaryThreshold is the combined goal savings needed for the Visionary
// badge, ₹5,000.
var visionaryThreshold = RupeesFromInt(5000)

// EvaluateBadges runs the fixed badge rule set over the full transaction and
// goal lists. The order of the result is stable.
func EvaluateBadges(transactions []Transaction, goals []Goal) []Badge {
	hasIncome := false
	for _, t := range transactions {
		if t.IsIncome {
			hasIncome = true
			break
		}
	}

	return []Badge{
		{
			ID:       "saver-sage",
			Name:     "Saver Sage",
			Desc:     "Created a Goal",
			Unlocked: len(goals) > 0,
		},
		{
			ID:       "active-user",
			Name:     "Active User",
			Desc:     "5+ Transactions",
			Unlocked: len(transactions) >= 5,
		},
		{
			ID:       "money-maker",
			Name:     "Money Maker",
			Desc:     "Added Funds",
			Unlocked: hasIncome,
		},
		{
			ID:       "visionary",
			Name:     "Visionary",
			Desc:     "Saved ₹5k+",
			Unlocked: TotalSaved(goals).Paise >= visionaryThreshold.Paise,
		},
	}
}
