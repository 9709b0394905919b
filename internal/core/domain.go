package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transport"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryRent          Category = "Rent"
	CategoryIncome        Category = "Income"
	CategorySavings       Category = "Savings"
	CategoryOther         Category = "Other"
)

// DefaultMonthlyLimit is applied to profiles that never configured one.
var DefaultMonthlyLimit = Money{Paise: 20000 * 100}

type (
	Category string

	// Transaction is a single ledger entry. Amount keeps the display string
	// the entry was created with ("-₹500", "+₹1200"); immutable once written.
	Transaction struct {
		ID              string
		Name            string
		Category        Category
		Amount          string
		Date            time.Time
		Color           string
		IsIncome        bool
		IsSubscription  bool
		NextBillingDate time.Time
	}

	// Goal is a named savings target. Saved is not clamped to Target;
	// over-saving is allowed and only the progress display caps at 100%.
	Goal struct {
		ID     string
		Name   string
		Target Money
		Saved  Money
	}

	// UserProfile mirrors the profile document. Balance tracks the running
	// sum of signed transaction amounts but nothing reconciles the two.
	UserProfile struct {
		ID           string
		Name         string
		Email        string
		Balance      Money
		Currency     string
		MonthlyLimit Money
		AvatarID     string
		CardFrozen   bool
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyName       = errors.New("empty name")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidTarget   = errors.New("invalid goal target")
)

var categoryColors = map[Category]string{
	CategoryFood:          "bg-orange-500",
	CategoryShopping:      "bg-blue-500",
	CategoryTransport:     "bg-emerald-500",
	CategoryBills:         "bg-red-500",
	CategoryEntertainment: "bg-purple-500",
	CategoryRent:          "bg-indigo-500",
	CategoryIncome:        "bg-emerald-500",
	CategorySavings:       "bg-blue-500",
	CategoryOther:         "bg-gray-500",
}

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryShopping, CategoryTransport, CategoryBills,
		CategoryEntertainment, CategoryRent, CategoryIncome, CategorySavings,
		CategoryOther,
	}
}

func (c Category) IsValid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color returns the display tag associated with the category.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return "bg-gray-500"
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if _, err := ParseAmount(t.Amount); err != nil {
		return err
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if g.Target.Paise <= 0 {
		return ErrInvalidTarget
	}
	if g.Saved.Paise < 0 {
		return errors.New("saved amount cannot be negative")
	}
	return nil
}

func (p UserProfile) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if !strings.Contains(p.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}

// Limit returns the configured monthly limit, or the default when unset.
func (p UserProfile) Limit() Money {
	if p.MonthlyLimit.Paise <= 0 {
		return DefaultMonthlyLimit
	}
	return p.MonthlyLimit
}
