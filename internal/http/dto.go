package http

import (
	"math"
	"time"

	"orbit/internal/core"
	"orbit/internal/service"
)

// JSON shapes of the three collections and the dashboard projection.
// Monetary fields are rupees; transaction amounts keep their original
// signed display string.

type profileDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Balance      float64 `json:"balance"`
	Currency     string  `json:"currency"`
	MonthlyLimit float64 `json:"monthlyLimit"`
	AvatarID     string  `json:"avatarId"`
	AvatarEmoji  string  `json:"avatarEmoji"`
	CardFrozen   bool    `json:"cardFrozen"`
}

type transactionDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	Date            string `json:"date"`
	Color           string `json:"color"`
	IsIncome        bool   `json:"isIncome"`
	IsSubscription  bool   `json:"isSubscription"`
	NextBillingDate string `json:"nextBillingDate,omitempty"`
}

type goalDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Target  float64 `json:"target"`
	Saved   float64 `json:"saved"`
	Percent int     `json:"percent"`
	Icon    string  `json:"icon"`
}

type badgeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	Unlocked bool   `json:"unlocked"`
}

type weekdayAmountDTO struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

type categoryAmountDTO struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Color    string  `json:"color"`
}

type insightDTO struct {
	Message   string `json:"message"`
	Highlight string `json:"highlight"`
	Advice    string `json:"advice"`
}

type dashboardDTO struct {
	Profile          profileDTO          `json:"profile"`
	WeeklySpend      []weekdayAmountDTO  `json:"weeklySpend"`
	Categories       []categoryAmountDTO `json:"categories"`
	TopCategory      *categoryAmountDTO  `json:"topCategory,omitempty"`
	TotalSpent       float64             `json:"totalSpent"`
	TotalIncome      float64             `json:"totalIncome"`
	Limit            float64             `json:"limit"`
	LimitUsage       float64             `json:"limitUsage"`
	Badges           []badgeDTO          `json:"badges"`
	Insight          insightDTO          `json:"insight"`
	NextSubscription *transactionDTO     `json:"nextSubscription,omitempty"`
}

func toProfileDTO(p core.UserProfile) profileDTO {
	return profileDTO{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Balance:      p.Balance.Rupees(),
		Currency:     p.Currency,
		MonthlyLimit: p.Limit().Rupees(),
		AvatarID:     p.AvatarID,
		AvatarEmoji:  core.AvatarByID(p.AvatarID).Emoji,
		CardFrozen:   p.CardFrozen,
	}
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:             t.ID,
		Name:           t.Name,
		Category:       string(t.Category),
		Amount:         t.Amount,
		Date:           t.Date.UTC().Format(time.RFC3339),
		Color:          t.Color,
		IsIncome:       t.IsIncome,
		IsSubscription: t.IsSubscription,
	}
	if !t.NextBillingDate.IsZero() {
		dto.NextBillingDate = t.NextBillingDate.UTC().Format(time.RFC3339)
	}
	return dto
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = toTransactionDTO(t)
	}
	return out
}

func toGoalDTO(g core.Goal) goalDTO {
	return goalDTO{
		ID:      g.ID,
		Name:    g.Name,
		Target:  g.Target.Rupees(),
		Saved:   g.Saved.Rupees(),
		Percent: core.PercentComplete(g),
		Icon:    string(core.ClassifyIcon(g.Name)),
	}
}

func toGoalDTOs(goals []core.Goal) []goalDTO {
	out := make([]goalDTO, len(goals))
	for i, g := range goals {
		out[i] = toGoalDTO(g)
	}
	return out
}

func toDashboardDTO(d service.Dashboard) dashboardDTO {
	dto := dashboardDTO{
		Profile:     toProfileDTO(d.Profile),
		WeeklySpend: make([]weekdayAmountDTO, 7),
		Categories:  make([]categoryAmountDTO, 0, len(d.CategoryTotals)),
		TotalSpent:  d.TotalSpent.Rupees(),
		TotalIncome: d.TotalIncome.Rupees(),
		Limit:       d.Limit.Rupees(),
		LimitUsage:  d.LimitUsage,
		Insight: insightDTO{
			Message:   d.Insight.Message,
			Highlight: d.Insight.Highlight,
			Advice:    d.Insight.Advice,
		},
	}

	for i, amount := range d.WeeklySpend {
		dto.WeeklySpend[i] = weekdayAmountDTO{
			Day:    core.WeekdayName(i),
			Amount: amount.Rupees(),
		}
	}
	for _, ca := range d.CategoryTotals {
		dto.Categories = append(dto.Categories, toCategoryAmountDTO(ca))
	}
	if d.HasTopCategory {
		top := toCategoryAmountDTO(d.TopCategory)
		dto.TopCategory = &top
	}
	for _, b := range d.Badges {
		dto.Badges = append(dto.Badges, badgeDTO{
			ID: b.ID, Name: b.Name, Desc: b.Desc, Unlocked: b.Unlocked,
		})
	}
	if d.NextSubscription != nil {
		next := toTransactionDTO(*d.NextSubscription)
		dto.NextSubscription = &next
	}
	return dto
}

func toCategoryAmountDTO(ca core.CategoryAmount) categoryAmountDTO {
	return categoryAmountDTO{
		Category: string(ca.Category),
		Amount:   ca.Amount.Rupees(),
		Color:    ca.Category.Color(),
	}
}

// moneyFromRupees converts a JSON rupee number into paise.
func moneyFromRupees(r float64) core.Money {
	return core.Money{Paise: int64(math.Round(r * 100))}
}
