package core

import "strings"

// GoalIcon classifies a goal for display purposes.
type GoalIcon string

const (
	IconVehicle     GoalIcon = "vehicle"
	IconTravel      GoalIcon = "travel"
	IconElectronics GoalIcon = "electronics"
	IconTarget      GoalIcon = "target"
)

// iconRules are checked in priority order; the first match wins.
var iconRules = []struct {
	icon     GoalIcon
	keywords []string
}{
	{IconVehicle, []string{"car", "bike"}},
	{IconTravel, []string{"trip", "vacation"}},
	{IconElectronics, []string{"mac", "tech", "phone"}},
}

// ClassifyIcon picks a goal icon by case-insensitive substring match on the
// goal name, falling back to the generic target.
func ClassifyIcon(goalName string) GoalIcon {
	name := strings.ToLower(goalName)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.icon
			}
		}
	}
	return IconTarget
}

// PercentComplete returns the goal's progress clamped to [0,100].
// A zero target reads as 0% rather than dividing by zero. Saved amounts
// past the target show as 100% even though the stored value keeps growing.
func PercentComplete(g Goal) int {
	if g.Target.Paise <= 0 {
		return 0
	}
	pct := g.Saved.Paise * 100 / g.Target.Paise
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// TotalSaved sums the saved amounts across all goals.
func TotalSaved(goals []Goal) Money {
	var total Money
	for _, g := range goals {
		total = total.Add(g.Saved)
	}
	return total
}
