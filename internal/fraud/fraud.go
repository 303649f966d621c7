// Package fraud scans revenue series for manipulation signatures: round-number
// bias, revenue parked just above a bonus cutoff, and exact-value repetition.
// Heuristic scores stack rather than average, since co-occurring patterns
// indicate compounding risk.
package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"veritas-system/internal/bonus"
	"veritas-system/internal/store"
)

const (
	PatternRoundNumber     = "round_number_bias"
	PatternThresholdGaming = "threshold_gaming"
	PatternExactRepetition = "exact_repetition"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Sample-count guards. Below these an employee's series is skipped silently.
const (
	minDailySamples = 10
	minWeeklyTotals = 4
)

// gamingWindow is the band above a tier threshold that counts as "parked".
var gamingWindow = decimal.NewFromInt(50)

var roundStep = decimal.NewFromInt(50)

type Pattern struct {
	PatternType      string   `json:"pattern_type"`
	Description      string   `json:"description"`
	AffectedEntities []int64  `json:"affected_entities"`
	Confidence       string   `json:"confidence"`
	Evidence         []string `json:"evidence"`
	RiskLevel        string   `json:"risk_level"`
	Recommendations  []string `json:"recommendations"`
}

type Result struct {
	BranchID  int64     `json:"branch_id"`
	RiskScore int       `json:"risk_score"`
	RiskLevel string    `json:"risk_level"`
	Patterns  []Pattern `json:"patterns"`
}

type dayValue struct {
	date  time.Time
	value decimal.Decimal
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// DetectFraudPatterns runs the three heuristics per employee over the range.
// The returned risk score is the sum of every flagged pattern's weight, capped
// at 100.
func (s *Service) DetectFraudPatterns(ctx context.Context, branchID int64, start, end time.Time) (*Result, error) {
	totals, err := s.store.EmployeeDayTotals(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee revenue series: %w", err)
	}

	series := map[int64][]dayValue{}
	var order []int64
	for _, t := range totals {
		if _, seen := series[t.EmployeeID]; !seen {
			order = append(order, t.EmployeeID)
		}
		series[t.EmployeeID] = append(series[t.EmployeeID], dayValue{date: t.Date, value: t.Total})
	}

	result := &Result{BranchID: branchID, Patterns: []Pattern{}}
	score := 0

	for _, employeeID := range order {
		days := series[employeeID]

		if p, weight, ok := roundNumberBias(employeeID, days); ok {
			result.Patterns = append(result.Patterns, p)
			score += weight
		}
		if p, weight, ok := exactRepetition(employeeID, days); ok {
			result.Patterns = append(result.Patterns, p)
			score += weight
		}

		weekly := weeklyTotals(start, days)
		if p, weight, ok := thresholdGaming(employeeID, weekly); ok {
			result.Patterns = append(result.Patterns, p)
			score += weight
		}
	}

	if score > 100 {
		score = 100
	}
	result.RiskScore = score
	switch {
	case score >= 60:
		result.RiskLevel = RiskHigh
	case score >= 30:
		result.RiskLevel = RiskMedium
	default:
		result.RiskLevel = RiskLow
	}
	return result, nil
}

func roundNumberBias(employeeID int64, days []dayValue) (Pattern, int, bool) {
	if len(days) < minDailySamples {
		return Pattern{}, 0, false
	}
	round := 0
	for _, d := range days {
		if d.value.Mod(roundStep).IsZero() {
			round++
		}
	}
	fraction := float64(round) / float64(len(days))
	if fraction <= 0.4 {
		return Pattern{}, 0, false
	}

	weight := 15
	confidence := ConfidenceMedium
	if fraction > 0.6 {
		weight = 30
		confidence = ConfidenceHigh
	}
	return Pattern{
		PatternType:      PatternRoundNumber,
		Description:      fmt.Sprintf("%.0f%% of revenue entries are multiples of %s", fraction*100, roundStep),
		AffectedEntities: []int64{employeeID},
		Confidence:       confidence,
		Evidence:         []string{fmt.Sprintf("%d of %d entries divisible by %s", round, len(days), roundStep)},
		RiskLevel:        riskForWeight(weight),
		Recommendations:  []string{"cross-check the employee's entries against register receipts"},
	}, weight, true
}

func exactRepetition(employeeID int64, days []dayValue) (Pattern, int, bool) {
	if len(days) < minDailySamples {
		return Pattern{}, 0, false
	}
	counts := map[string]int{}
	for _, d := range days {
		counts[d.value.StringFixed(2)]++
	}

	bestValue := ""
	bestCount := 0
	for v, c := range counts {
		if c > bestCount {
			bestValue, bestCount = v, c
		}
	}

	fraction := float64(bestCount) / float64(len(days))
	if bestCount < 5 || fraction <= 0.3 {
		return Pattern{}, 0, false
	}

	weight := 10
	confidence := ConfidenceMedium
	if fraction > 0.4 {
		weight = 25
		confidence = ConfidenceHigh
	}
	return Pattern{
		PatternType:      PatternExactRepetition,
		Description:      fmt.Sprintf("value %s recurs in %.0f%% of entries", bestValue, fraction*100),
		AffectedEntities: []int64{employeeID},
		Confidence:       confidence,
		Evidence:         []string{fmt.Sprintf("%s recorded %d times in %d entries", bestValue, bestCount, len(days))},
		RiskLevel:        riskForWeight(weight),
		Recommendations:  []string{"review the repeated entries for copy-paste data entry"},
	}, weight, true
}

func thresholdGaming(employeeID int64, weekly []decimal.Decimal) (Pattern, int, bool) {
	if len(weekly) < minWeeklyTotals {
		return Pattern{}, 0, false
	}

	parked := 0
	var evidence []string
	for _, w := range weekly {
		for _, t := range bonus.Tiers {
			if t.MinRevenue.IsZero() {
				continue
			}
			if w.GreaterThanOrEqual(t.MinRevenue) && w.LessThan(t.MinRevenue.Add(gamingWindow)) {
				parked++
				evidence = append(evidence, fmt.Sprintf("weekly total %s within %s of the %s cutoff", w.StringFixed(2), gamingWindow, t.Label))
				break
			}
		}
	}

	fraction := float64(parked) / float64(len(weekly))
	if fraction <= 0.5 {
		return Pattern{}, 0, false
	}

	weight := 40
	return Pattern{
		PatternType:      PatternThresholdGaming,
		Description:      fmt.Sprintf("%.0f%% of weekly totals land just above a bonus cutoff", fraction*100),
		AffectedEntities: []int64{employeeID},
		Confidence:       ConfidenceHigh,
		Evidence:         evidence,
		RiskLevel:        riskForWeight(weight),
		Recommendations:  []string{"audit the weeks in question day by day", "compare against branch totals for the same weeks"},
	}, weight, true
}

// weeklyTotals buckets an employee's day totals into consecutive 7-day windows
// measured from the start of the analysis range.
func weeklyTotals(start time.Time, days []dayValue) []decimal.Decimal {
	buckets := map[int]decimal.Decimal{}
	maxWeek := -1
	for _, d := range days {
		week := int(d.date.Sub(start).Hours() / 24 / 7)
		if week < 0 {
			continue
		}
		buckets[week] = buckets[week].Add(d.value)
		if week > maxWeek {
			maxWeek = week
		}
	}
	var totals []decimal.Decimal
	for w := 0; w <= maxWeek; w++ {
		if sum, ok := buckets[w]; ok {
			totals = append(totals, sum)
		}
	}
	return totals
}

func riskForWeight(weight int) string {
	if weight >= 30 {
		return RiskHigh
	}
	return RiskMedium
}
