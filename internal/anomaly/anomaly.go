// Package anomaly flags statistical outliers in branch and employee revenue
// series. Older history only informs the baseline; only the most recent days
// are ever flagged.
package anomaly

import (
	"context"
	"fmt"
	"sort"
	"time"

	"veritas-system/internal/stats"
	"veritas-system/internal/store"
)

const (
	TypeSpike = "spike"
	TypeDrop  = "drop"

	EntityBranch   = "branch"
	EntityEmployee = "employee"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// minSamples is the insufficient-data guard: shorter series return an empty
// result, not an error.
const minSamples = 7

const (
	branchRecentDays = 7
	// Individual series are noisier; a seven-day window would overwhelm
	// alerts, so employees are scanned over three days only.
	employeeRecentDays = 3
)

type Anomaly struct {
	Type             string    `json:"type"`
	EntityType       string    `json:"entity_type"`
	EntityID         int64     `json:"entity_id"`
	Date             time.Time `json:"date"`
	ExpectedValue    float64   `json:"expected_value"`
	ActualValue      float64   `json:"actual_value"`
	DeviationSigma   float64   `json:"deviation_sigma"`
	Confidence       string    `json:"confidence"`
	Severity         string    `json:"severity"`
	PossibleCauses   []string  `json:"possible_causes"`
	SuggestedActions []string  `json:"suggested_actions"`
}

type Baseline struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Median      float64 `json:"median"`
	SampleCount int     `json:"sample_count"`
}

type Result struct {
	BranchID     int64     `json:"branch_id"`
	AnalysisDate time.Time `json:"analysis_date"`
	Baseline     Baseline  `json:"baseline"`
	Anomalies    []Anomaly `json:"anomalies"`
}

type Options struct {
	LookbackDays         int
	ZScoreThreshold      float64
	IncludeEmployeeLevel bool
}

func DefaultOptions() Options {
	return Options{
		LookbackDays:         90,
		ZScoreThreshold:      2.5,
		IncludeEmployeeLevel: true,
	}
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// DetectRevenueAnomalies scans the branch series over the lookback window and
// flags threshold breaches in the last seven days, plus the last three days of
// each employee series when enabled. The final list is sorted by severity;
// order within one severity tier is insertion order and not guaranteed.
func (s *Service) DetectRevenueAnomalies(ctx context.Context, branchID int64, analysisDate time.Time, opts Options) (*Result, error) {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 90
	}
	if opts.ZScoreThreshold <= 0 {
		opts.ZScoreThreshold = 2.5
	}

	start := analysisDate.AddDate(0, 0, -(opts.LookbackDays - 1))
	result := &Result{BranchID: branchID, AnalysisDate: analysisDate, Anomalies: []Anomaly{}}

	dailies, err := s.store.DailyRevenues(ctx, branchID, start, analysisDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch series: %w", err)
	}

	if len(dailies) < minSamples {
		return result, nil
	}

	values := make([]float64, len(dailies))
	for i, d := range dailies {
		values[i] = d.Total.InexactFloat64()
	}
	mean := stats.Mean(values)
	stdDev := stats.StdDev(values)
	result.Baseline = Baseline{
		Mean:        mean,
		StdDev:      stdDev,
		Median:      stats.Median(values),
		SampleCount: len(values),
	}

	recentCutoff := analysisDate.AddDate(0, 0, -branchRecentDays)
	for _, d := range dailies {
		if !d.Date.After(recentCutoff) {
			continue
		}
		if a, ok := classify(d.Total.InexactFloat64(), mean, stdDev, opts.ZScoreThreshold, EntityBranch, branchID, d.Date); ok {
			result.Anomalies = append(result.Anomalies, a)
		}
	}

	if opts.IncludeEmployeeLevel {
		if err := s.detectEmployeeAnomalies(ctx, branchID, start, analysisDate, opts.ZScoreThreshold, result); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(result.Anomalies, func(i, j int) bool {
		return severityRank(result.Anomalies[i].Severity) < severityRank(result.Anomalies[j].Severity)
	})
	return result, nil
}

func (s *Service) detectEmployeeAnomalies(ctx context.Context, branchID int64, start, analysisDate time.Time, threshold float64, result *Result) error {
	totals, err := s.store.EmployeeDayTotals(ctx, branchID, start, analysisDate)
	if err != nil {
		return fmt.Errorf("failed to load employee series: %w", err)
	}

	type point struct {
		date  time.Time
		value float64
	}
	series := map[int64][]point{}
	var order []int64
	for _, t := range totals {
		if _, seen := series[t.EmployeeID]; !seen {
			order = append(order, t.EmployeeID)
		}
		series[t.EmployeeID] = append(series[t.EmployeeID], point{date: t.Date, value: t.Total.InexactFloat64()})
	}

	recentCutoff := analysisDate.AddDate(0, 0, -employeeRecentDays)
	for _, employeeID := range order {
		points := series[employeeID]
		if len(points) < minSamples {
			continue
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.value
		}
		// Each employee gets its own baseline, not the branch's.
		mean := stats.Mean(values)
		stdDev := stats.StdDev(values)

		for _, p := range points {
			if !p.date.After(recentCutoff) {
				continue
			}
			if a, ok := classify(p.value, mean, stdDev, threshold, EntityEmployee, employeeID, p.date); ok {
				result.Anomalies = append(result.Anomalies, a)
			}
		}
	}
	return nil
}

func classify(value, mean, stdDev, threshold float64, entityType string, entityID int64, date time.Time) (Anomaly, bool) {
	z := stats.ZScore(value, mean, stdDev)
	abs := z
	if abs < 0 {
		abs = -abs
	}
	if abs < threshold {
		return Anomaly{}, false
	}

	anomalyType := TypeSpike
	if z < 0 {
		anomalyType = TypeDrop
	}

	confidence := ConfidenceLow
	severity := SeverityInfo
	switch {
	case abs >= 3:
		confidence = ConfidenceHigh
		severity = SeverityCritical
	case abs >= 2.5:
		confidence = ConfidenceMedium
		severity = SeverityWarning
	}

	return Anomaly{
		Type:             anomalyType,
		EntityType:       entityType,
		EntityID:         entityID,
		Date:             date,
		ExpectedValue:    mean,
		ActualValue:      value,
		DeviationSigma:   z,
		Confidence:       confidence,
		Severity:         severity,
		PossibleCauses:   possibleCauses(anomalyType, entityType),
		SuggestedActions: suggestedActions(anomalyType, entityType),
	}, true
}

func severityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

func possibleCauses(anomalyType, entityType string) []string {
	if anomalyType == TypeSpike {
		if entityType == EntityBranch {
			return []string{"seasonal demand surge", "bulk sale or special event", "data entry error (extra digit)"}
		}
		return []string{"unusually large individual sales", "revenue recorded against the wrong employee", "data entry error"}
	}
	if entityType == EntityBranch {
		return []string{"branch closed part of the day", "missing entries for the day", "demand drop"}
	}
	return []string{"employee absent part of the day", "entries recorded under a colleague", "missing entries"}
}

func suggestedActions(anomalyType, entityType string) []string {
	if anomalyType == TypeSpike {
		return []string{"verify the day's entries against receipts", "confirm any special events with the branch manager"}
	}
	if entityType == EntityBranch {
		return []string{"check the branch's opening hours for the day", "verify all employees submitted their entries"}
	}
	return []string{"confirm the employee's attendance for the day", "review the day's entry assignments"}
}
