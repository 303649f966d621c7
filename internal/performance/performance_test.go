package performance_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-system/internal/performance"
	"veritas-system/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		metrics     performance.Metrics
		wantPattern string
		wantUrgency string
	}{
		{
			"declining star",
			performance.Metrics{Trend: -20, Volatility: 0.5, BonusRate: 0.7},
			performance.PatternDecliningStar, performance.UrgencyUrgent,
		},
		{
			"rising talent",
			performance.Metrics{Trend: 30, Volatility: 0.1, BonusRate: 0.2},
			performance.PatternRisingTalent, performance.UrgencyLow,
		},
		{
			"consistent high",
			performance.Metrics{Trend: 0, Volatility: 0.1, BonusRate: 0.7},
			performance.PatternConsistentHigh, performance.UrgencyLow,
		},
		{
			"consistent low",
			performance.Metrics{Trend: 0, Volatility: 0.1, BonusRate: 0.1},
			performance.PatternConsistentLow, performance.UrgencyHigh,
		},
		{
			"erratic",
			performance.Metrics{Trend: 0, Volatility: 0.5, BonusRate: 0.4},
			performance.PatternErratic, performance.UrgencyMedium,
		},
		{
			"plateau fallback",
			performance.Metrics{Trend: 5, Volatility: 0.25, BonusRate: 0.5},
			performance.PatternPlateau, performance.UrgencyMedium,
		},
		{
			// A declining high earner is erratic too, but decline outranks it.
			"declining star beats erratic",
			performance.Metrics{Trend: -30, Volatility: 0.6, BonusRate: 0.8},
			performance.PatternDecliningStar, performance.UrgencyUrgent,
		},
		{
			"rising talent beats consistent high",
			performance.Metrics{Trend: 25, Volatility: 0.1, BonusRate: 0.7},
			performance.PatternRisingTalent, performance.UrgencyLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, urgency := performance.Classify(tt.metrics)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantUrgency, urgency)
		})
	}
}

func TestClassifyBranch(t *testing.T) {
	analysisDate := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()
	star := mem.AddEmployee(1, "Anna")
	struggler := mem.AddEmployee(1, "Ben")
	newcomer := mem.AddEmployee(1, "Cleo")

	for d := 1; d <= 20; d++ {
		date := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
		dailyID := mem.AddDailyRevenue(1, date, decimal.NewFromInt(1500), decimal.Zero, decimal.NewFromInt(1500))
		mem.AddEmployeeRevenue(star, dailyID, decimal.NewFromInt(1000))
		mem.AddEmployeeRevenue(struggler, dailyID, decimal.NewFromInt(500))
		if d <= 5 {
			mem.AddEmployeeRevenue(newcomer, dailyID, decimal.NewFromInt(300))
		}
	}

	for wk := 1; wk <= 3; wk++ {
		wbID := mem.AddWeeklyBonus(store.WeeklyBonusRow{
			BranchID: 1, WeekNumber: wk, Month: 3, Year: 2025,
			WeekStart: time.Date(2025, 3, (wk-1)*7+1, 0, 0, 0, 0, time.UTC),
			WeekEnd:   time.Date(2025, 3, wk*7, 0, 0, 0, 0, time.UTC),
			Status:    "approved", TotalAmount: decimal.NewFromInt(60),
		})
		mem.AddBonusDetail(store.BonusDetailRow{
			WeeklyBonusID: wbID, EmployeeID: star,
			WeeklyRevenue: decimal.NewFromInt(1500), BonusAmount: decimal.NewFromInt(60),
			BonusTier: "tier_2", IsEligible: true,
		})
		mem.AddBonusDetail(store.BonusDetailRow{
			WeeklyBonusID: wbID, EmployeeID: struggler,
			WeeklyRevenue: decimal.NewFromInt(700), BonusAmount: decimal.Zero,
			BonusTier: "none", IsEligible: true,
		})
	}

	svc := performance.NewService(mem)
	out, err := svc.ClassifyBranch(context.Background(), 1, analysisDate)
	require.NoError(t, err)

	// Cleo has only five days of data and is skipped; Ben's high urgency
	// sorts him ahead of Anna.
	require.Len(t, out, 2)
	assert.Equal(t, struggler, out[0].EmployeeID)
	assert.Equal(t, performance.PatternConsistentLow, out[0].Pattern)
	assert.Equal(t, performance.UrgencyHigh, out[0].Urgency)
	assert.Equal(t, 0.0, out[0].Metrics.BonusRate)

	assert.Equal(t, star, out[1].EmployeeID)
	assert.Equal(t, performance.PatternConsistentHigh, out[1].Pattern)
	assert.Equal(t, performance.UrgencyLow, out[1].Urgency)
	assert.Equal(t, 1.0, out[1].Metrics.BonusRate)
	assert.Equal(t, 20, out[1].SampleCount)
	assert.Equal(t, 0.0, out[1].Metrics.Volatility)
}

func TestClassifyBranchEmptyBranch(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := performance.NewService(mem)
	out, err := svc.ClassifyBranch(context.Background(), 9, time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, out)
}
