package fraud_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-system/internal/fraud"
	"veritas-system/internal/store"
)

var rangeStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
var rangeEnd = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func seedDaily(mem *store.MemoryStore, employeeID int64, dayOffset int, value string) {
	v := decimal.RequireFromString(value)
	date := rangeStart.AddDate(0, 0, dayOffset)
	dailyID := mem.AddDailyRevenue(1, date, v, decimal.Zero, v)
	mem.AddEmployeeRevenue(employeeID, dailyID, v)
}

func detect(t *testing.T, mem *store.MemoryStore) *fraud.Result {
	t.Helper()
	res, err := fraud.NewService(mem).DetectFraudPatterns(context.Background(), 1, rangeStart, rangeEnd)
	require.NoError(t, err)
	return res
}

func patternTypes(res *fraud.Result) []string {
	var types []string
	for _, p := range res.Patterns {
		types = append(types, p.PatternType)
	}
	return types
}

func TestThresholdGaming(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	// One entry per week, each parked just above the 1200 cutoff. Four daily
	// samples keep the per-day heuristics out of the picture.
	for i, v := range []string{"1210", "1205", "1220", "1215"} {
		seedDaily(mem, emp, i*7, v)
	}

	res := detect(t, mem)

	require.Len(t, res.Patterns, 1)
	p := res.Patterns[0]
	assert.Equal(t, fraud.PatternThresholdGaming, p.PatternType)
	assert.Equal(t, fraud.ConfidenceHigh, p.Confidence)
	assert.Equal(t, fraud.RiskHigh, p.RiskLevel)
	assert.Equal(t, []int64{emp}, p.AffectedEntities)
	assert.Len(t, p.Evidence, 4)
	assert.Equal(t, 40, res.RiskScore)
	assert.Equal(t, fraud.RiskMedium, res.RiskLevel)
}

func TestThresholdGamingNeedsFourWeeks(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	for i, v := range []string{"1210", "1205", "1220"} {
		seedDaily(mem, emp, i*7, v)
	}

	res := detect(t, mem)

	assert.Empty(t, res.Patterns)
	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, fraud.RiskLow, res.RiskLevel)
}

func TestRoundNumberAndRepetitionStack(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	// Twelve identical multiples of 50: both per-day heuristics at their
	// high-confidence weights, 30 + 25.
	for d := 0; d < 12; d++ {
		seedDaily(mem, emp, d, "600")
	}

	res := detect(t, mem)

	assert.ElementsMatch(t, []string{fraud.PatternRoundNumber, fraud.PatternExactRepetition}, patternTypes(res))
	assert.Equal(t, 55, res.RiskScore)
	assert.Equal(t, fraud.RiskMedium, res.RiskLevel)
	for _, p := range res.Patterns {
		assert.Equal(t, fraud.ConfidenceHigh, p.Confidence)
	}
}

func TestStackedPatternsReachHighRisk(t *testing.T) {
	mem := store.NewMemoryStore()
	anna := mem.AddEmployee(1, "Anna")
	ben := mem.AddEmployee(1, "Ben")
	for d := 0; d < 12; d++ {
		seedDaily(mem, anna, d, "600")
	}
	for i, v := range []string{"1510", "1525", "1530", "1545"} {
		seedDaily(mem, ben, i*7, v)
	}

	res := detect(t, mem)

	assert.Len(t, res.Patterns, 3)
	assert.Equal(t, 95, res.RiskScore)
	assert.Equal(t, fraud.RiskHigh, res.RiskLevel)
}

func TestRiskScoreCappedAt100(t *testing.T) {
	mem := store.NewMemoryStore()
	// Three employees worth 55 each would sum to 165 uncapped.
	for _, name := range []string{"Anna", "Ben", "Cleo"} {
		emp := mem.AddEmployee(1, name)
		for d := 0; d < 12; d++ {
			seedDaily(mem, emp, d, "600")
		}
	}

	res := detect(t, mem)

	assert.Equal(t, 100, res.RiskScore)
	assert.Equal(t, fraud.RiskHigh, res.RiskLevel)
}

func TestRoundNumberMediumConfidence(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	// 5 of 12 round (42%): past the 40% line but short of the 60% one. The
	// round values are all distinct so repetition stays quiet.
	values := []string{"550", "600", "650", "700", "750", "613.27", "487.12", "721.88", "534.60", "668.45", "591.03", "712.34"}
	for d, v := range values {
		seedDaily(mem, emp, d, v)
	}

	res := detect(t, mem)

	require.Len(t, res.Patterns, 1)
	p := res.Patterns[0]
	assert.Equal(t, fraud.PatternRoundNumber, p.PatternType)
	assert.Equal(t, fraud.ConfidenceMedium, p.Confidence)
	assert.Equal(t, fraud.RiskMedium, p.RiskLevel)
	assert.Equal(t, 15, res.RiskScore)
	assert.Equal(t, fraud.RiskLow, res.RiskLevel)
}

func TestPerDayHeuristicsNeedTenSamples(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	for d := 0; d < 9; d++ {
		seedDaily(mem, emp, d, "600")
	}

	res := detect(t, mem)

	assert.Empty(t, res.Patterns)
	assert.Equal(t, fraud.RiskLow, res.RiskLevel)
}

func TestCleanSeries(t *testing.T) {
	mem := store.NewMemoryStore()
	emp := mem.AddEmployee(1, "Anna")
	values := []string{"613.27", "487.12", "721.88", "534.60", "668.45", "591.03", "712.34", "455.90", "603.18", "577.66", "689.21", "498.04"}
	for d, v := range values {
		seedDaily(mem, emp, d, v)
	}

	res := detect(t, mem)

	assert.Empty(t, res.Patterns)
	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, fraud.RiskLow, res.RiskLevel)
}
