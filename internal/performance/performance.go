// Package performance classifies each employee's trailing-60-day revenue
// behavior into one of six archetypes. Classification is a priority-ordered
// decision list: rules are evaluated in order and the first match wins, so the
// rule order is part of the contract.
package performance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"veritas-system/internal/stats"
	"veritas-system/internal/store"
)

const (
	PatternDecliningStar  = "declining_star"
	PatternRisingTalent   = "rising_talent"
	PatternConsistentHigh = "consistent_high"
	PatternConsistentLow  = "consistent_low"
	PatternErratic        = "erratic"
	PatternPlateau        = "plateau"

	UrgencyUrgent = "urgent"
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

const (
	lookbackDays = 60
	minSamples   = 14
)

// Metrics are the three inputs the decision list runs on.
type Metrics struct {
	Trend      float64 `json:"trend"`
	Volatility float64 `json:"volatility"`
	BonusRate  float64 `json:"bonus_rate"`
}

type Classification struct {
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Pattern      string  `json:"pattern"`
	Urgency      string  `json:"urgency"`
	Metrics      Metrics `json:"metrics"`
	SampleCount  int     `json:"sample_count"`
}

type rule struct {
	pattern string
	urgency string
	matches func(Metrics) bool
}

// rules in priority order. A high earner in decline outranks everything else.
var rules = []rule{
	{PatternDecliningStar, UrgencyUrgent, func(m Metrics) bool { return m.BonusRate > 0.6 && m.Trend < -15 }},
	{PatternRisingTalent, UrgencyLow, func(m Metrics) bool { return m.Trend > 20 && m.Volatility < 0.3 }},
	{PatternConsistentHigh, UrgencyLow, func(m Metrics) bool { return m.BonusRate > 0.6 && m.Volatility < 0.2 }},
	{PatternConsistentLow, UrgencyHigh, func(m Metrics) bool { return m.BonusRate < 0.3 && m.Volatility < 0.2 }},
	{PatternErratic, UrgencyMedium, func(m Metrics) bool { return m.Volatility > 0.4 }},
	{PatternPlateau, UrgencyMedium, func(Metrics) bool { return true }},
}

// Classify runs the decision list over precomputed metrics.
func Classify(m Metrics) (pattern, urgency string) {
	for _, r := range rules {
		if r.matches(m) {
			return r.pattern, r.urgency
		}
	}
	return PatternPlateau, UrgencyMedium
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ClassifyBranch computes trend, volatility and bonus hit rate for every
// active employee with at least 14 days of data in the trailing 60 days, and
// returns the classifications sorted by urgency.
func (s *Service) ClassifyBranch(ctx context.Context, branchID int64, analysisDate time.Time) ([]Classification, error) {
	start := analysisDate.AddDate(0, 0, -(lookbackDays - 1))

	employees, err := s.store.ActiveEmployees(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	totals, err := s.store.EmployeeDayTotals(ctx, branchID, start, analysisDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue series: %w", err)
	}

	series := map[int64][]float64{}
	for _, t := range totals {
		series[t.EmployeeID] = append(series[t.EmployeeID], t.Total.InexactFloat64())
	}

	var out []Classification
	for _, emp := range employees {
		values := series[emp.ID]
		if len(values) < minSamples {
			continue
		}

		details, err := s.store.EmployeeBonusDetails(ctx, emp.ID, start, analysisDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load bonus details for employee %d: %w", emp.ID, err)
		}

		m := computeMetrics(values, details)
		pattern, urgency := Classify(m)
		out = append(out, Classification{
			EmployeeID:   emp.ID,
			EmployeeName: emp.EmployeeName,
			Pattern:      pattern,
			Urgency:      urgency,
			Metrics:      m,
			SampleCount:  len(values),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return urgencyRank(out[i].Urgency) < urgencyRank(out[j].Urgency)
	})
	return out, nil
}

func computeMetrics(values []float64, details []store.BonusDetailRow) Metrics {
	half := len(values) / 2
	firstMean := stats.Mean(values[:half])
	secondMean := stats.Mean(values[half:])

	trend := 0.0
	if firstMean != 0 {
		trend = (secondMean - firstMean) / firstMean * 100
	}

	mean := stats.Mean(values)
	volatility := 0.0
	if mean != 0 {
		volatility = stats.StdDev(values) / mean
	}

	bonusRate := 0.0
	if len(details) > 0 {
		hit := 0
		for _, d := range details {
			if d.BonusAmount.GreaterThan(decimal.Zero) {
				hit++
			}
		}
		bonusRate = float64(hit) / float64(len(details))
	}

	return Metrics{Trend: trend, Volatility: volatility, BonusRate: bonusRate}
}

func urgencyRank(urgency string) int {
	switch urgency {
	case UrgencyUrgent:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}
