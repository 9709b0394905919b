package core

import (
	"fmt"
	"strings"
)

// Insight is the spending nudge shown on the dashboard, derived from the
// top expense category.
type Insight struct {
	Message   string
	Highlight string
	Advice    string
}

// SpendingInsight builds a friendly observation about where the money went.
// With no transactions it invites the user to start tracking.
func SpendingInsight(transactions []Transaction, name string) Insight {
	if len(transactions) == 0 {
		return Insight{
			Message:   "I'm ready to help you save!",
			Highlight: "Let's start tracking.",
			Advice:    "Add your first expense to get personalized insights.",
		}
	}

	firstName := "Friend"
	if parts := strings.Fields(name); len(parts) > 0 {
		firstName = parts[0]
	}

	top, ok := TopCategory(transactions)
	if !ok {
		return Insight{
			Message:   "I'm ready to help you save!",
			Highlight: "Let's start tracking.",
			Advice:    "Add your first expense to get personalized insights.",
		}
	}

	amount := top.Amount.Display()[1:] // strip the sign for display
	switch top.Category {
	case CategoryFood:
		return Insight{
			Message:   fmt.Sprintf("Hi %s, I noticed you've spent", firstName),
			Highlight: amount + " on Dining",
			Advice:    "Treating yourself is great! Maybe try a home-cooked meal once this week to save a little?",
		}
	case CategoryShopping:
		return Insight{
			Message:   "It looks like you invested",
			Highlight: amount + " in Shopping",
			Advice:    "Everything in moderation! Consider the 24-hour rule before your next big purchase.",
		}
	case CategoryEntertainment:
		return Insight{
			Message:   "You've been having fun!",
			Highlight: amount + " on Entertainment",
			Advice:    "Experiences are valuable. Just make sure it aligns with your monthly savings goal.",
		}
	case CategoryTransport:
		return Insight{
			Message:   "Your commute added up to",
			Highlight: amount,
			Advice:    "If possible, carpooling or public transit could be a wallet-friendly alternative!",
		}
	default:
		return Insight{
			Message:   "You've tracked a total of",
			Highlight: TotalSpent(transactions).Display()[1:],
			Advice:    "Great job tracking your expenses. Awareness is the first step to financial freedom!",
		}
	}
}
