// Package bonus owns the weekly bonus tier table and the month-week calendar.
// Both the bonus computation path and the reconciliation path resolve tiers
// through ComputeTier, so the threshold table exists in exactly one place.
package bonus

import "github.com/shopspring/decimal"

const (
	TierNone = "none"
	Tier1    = "tier_1"
	Tier2    = "tier_2"
	Tier3    = "tier_3"
	Tier4    = "tier_4"
	Tier5    = "tier_5"
)

type Tier struct {
	MinRevenue decimal.Decimal
	Amount     decimal.Decimal
	Label      string
}

// Tiers is evaluated top-down, first match wins. Keep it sorted by descending
// MinRevenue; the zero-threshold "none" entry makes ComputeTier total over
// non-negative input.
var Tiers = []Tier{
	{MinRevenue: decimal.NewFromInt(2400), Amount: decimal.NewFromInt(180), Label: Tier5},
	{MinRevenue: decimal.NewFromInt(2100), Amount: decimal.NewFromInt(135), Label: Tier4},
	{MinRevenue: decimal.NewFromInt(1800), Amount: decimal.NewFromInt(95), Label: Tier3},
	{MinRevenue: decimal.NewFromInt(1500), Amount: decimal.NewFromInt(60), Label: Tier2},
	{MinRevenue: decimal.NewFromInt(1200), Amount: decimal.NewFromInt(35), Label: Tier1},
	{MinRevenue: decimal.Zero, Amount: decimal.Zero, Label: TierNone},
}

// ComputeTier maps a weekly revenue figure to its bonus tier and amount.
func ComputeTier(weeklyRevenue decimal.Decimal) (label string, amount decimal.Decimal) {
	for _, t := range Tiers {
		if weeklyRevenue.GreaterThanOrEqual(t.MinRevenue) {
			return t.Label, t.Amount
		}
	}
	return TierNone, decimal.Zero
}
