// Package reconcile proves that employee-level revenue entries sum to the
// branch-reported daily totals, and that recorded weekly bonuses match a fresh
// recomputation from the tier table. Findings come back inside the result
// payload; an error means the analysis itself could not run.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"veritas-system/internal/bonus"
	"veritas-system/internal/store"
)

// Tolerance below which two money totals are considered equal.
var Tolerance = decimal.NewFromFloat(0.01)

const (
	DiscrepancyMismatch         = "mismatch"
	DiscrepancyOrphan           = "orphan"
	DiscrepancyMissing          = "missing"
	DiscrepancyBonusDetail      = "bonus_detail"
	DiscrepancyWeeklyBonusTotal = "weekly_bonus_total"
)

type Discrepancy struct {
	Type           string          `json:"type"`
	Date           *time.Time      `json:"date,omitempty"`
	DailyRevenueID int64           `json:"daily_revenue_id,omitempty"`
	BonusDetailID  int64           `json:"bonus_detail_id,omitempty"`
	EmployeeID     int64           `json:"employee_id,omitempty"`
	Expected       decimal.Decimal `json:"expected"`
	Actual         decimal.Decimal `json:"actual"`
	Difference     decimal.Decimal `json:"difference"`
	Description    string          `json:"description"`
}

type Summary struct {
	TotalChecked    int             `json:"total_checked"`
	Matched         int             `json:"matched"`
	Mismatched      int             `json:"mismatched"`
	TotalDifference decimal.Decimal `json:"total_difference"`
}

type Result struct {
	IsReconciled  bool          `json:"is_reconciled"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Summary       Summary       `json:"summary"`
}

const (
	MonthStatusReconciled = "reconciled"
	MonthStatusHasIssues  = "has_issues"
	MonthStatusCritical   = "critical"
)

// MonthResult aggregates one revenue pass and one bonus pass per week.
type MonthResult struct {
	BranchID     int64           `json:"branch_id"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Status       string          `json:"status"`
	Revenue      Result          `json:"revenue"`
	Bonuses      []Result        `json:"bonuses"`
	TotalIssues  int             `json:"total_issues"`
	TotalDiffSum decimal.Decimal `json:"total_difference"`
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ReconcileBranchRevenues compares each day's branch total against the sum of
// its employee entries. A day whose branch total is zero while employees
// recorded revenue is an orphan; any other difference beyond the tolerance is
// a mismatch.
func (s *Service) ReconcileBranchRevenues(ctx context.Context, branchID int64, start, end time.Time) (*Result, error) {
	dailies, err := s.store.DailyRevenues(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily revenues: %w", err)
	}
	sums, err := s.store.EmployeeSumsByDaily(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee sums: %w", err)
	}

	sumByDaily := make(map[int64]decimal.Decimal, len(sums))
	for _, row := range sums {
		sumByDaily[row.DailyRevenueID] = row.Sum
	}

	result := &Result{Discrepancies: []Discrepancy{}}
	result.Summary.TotalChecked = len(dailies)

	for _, day := range dailies {
		employeeSum := sumByDaily[day.ID]
		date := day.Date

		if day.Total.IsZero() && employeeSum.GreaterThan(decimal.Zero) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Type:           DiscrepancyOrphan,
				Date:           &date,
				DailyRevenueID: day.ID,
				Expected:       day.Total,
				Actual:         employeeSum,
				Difference:     employeeSum,
				Description:    fmt.Sprintf("employees recorded %s but the branch total is zero", employeeSum.StringFixed(2)),
			})
			continue
		}

		diff := day.Total.Sub(employeeSum).Abs()
		if diff.GreaterThan(Tolerance) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Type:           DiscrepancyMismatch,
				Date:           &date,
				DailyRevenueID: day.ID,
				Expected:       day.Total,
				Actual:         employeeSum,
				Difference:     diff,
				Description:    fmt.Sprintf("branch total %s vs employee sum %s", day.Total.StringFixed(2), employeeSum.StringFixed(2)),
			})
		}
	}

	result.Summary.Mismatched = len(result.Discrepancies)
	result.Summary.Matched = result.Summary.TotalChecked - result.Summary.Mismatched
	for _, d := range result.Discrepancies {
		result.Summary.TotalDifference = result.Summary.TotalDifference.Add(d.Difference)
	}
	result.IsReconciled = len(result.Discrepancies) == 0
	return result, nil
}

// ReconcileBonusCalculations re-derives every BonusDetail from the tier table
// and checks the WeeklyBonus total against the sum of the recomputed amounts.
// Verifying against recomputed values (not stored ones) also catches a
// systemic threshold-table drift.
func (s *Service) ReconcileBonusCalculations(ctx context.Context, branchID int64, week, month, year int) (*Result, error) {
	weekly, err := s.store.WeeklyBonus(ctx, branchID, week, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly bonus: %w", err)
	}

	result := &Result{Discrepancies: []Discrepancy{}}
	if weekly == nil {
		result.Discrepancies = append(result.Discrepancies, Discrepancy{
			Type:        DiscrepancyMissing,
			Description: fmt.Sprintf("no weekly bonus record for branch %d week %d %d/%d", branchID, week, month, year),
		})
		result.Summary.Mismatched = 1
		return result, nil
	}

	details, err := s.store.BonusDetails(ctx, weekly.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus details: %w", err)
	}

	expectedTotal := decimal.Zero
	result.Summary.TotalChecked = len(details)
	for _, d := range details {
		expectedTier, expectedAmount := bonus.ComputeTier(d.WeeklyRevenue)
		expectedTotal = expectedTotal.Add(expectedAmount)

		diff := d.BonusAmount.Sub(expectedAmount).Abs()
		if diff.GreaterThan(Tolerance) || d.BonusTier != expectedTier {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Type:          DiscrepancyBonusDetail,
				BonusDetailID: d.ID,
				EmployeeID:    d.EmployeeID,
				Expected:      expectedAmount,
				Actual:        d.BonusAmount,
				Difference:    diff,
				Description: fmt.Sprintf("stored %s/%s, recomputed %s/%s from weekly revenue %s",
					d.BonusTier, d.BonusAmount.StringFixed(2), expectedTier, expectedAmount.StringFixed(2), d.WeeklyRevenue.StringFixed(2)),
			})
		}
	}

	totalDiff := weekly.TotalAmount.Sub(expectedTotal).Abs()
	if totalDiff.GreaterThan(Tolerance) {
		result.Discrepancies = append(result.Discrepancies, Discrepancy{
			Type:        DiscrepancyWeeklyBonusTotal,
			Expected:    expectedTotal,
			Actual:      weekly.TotalAmount,
			Difference:  totalDiff,
			Description: fmt.Sprintf("weekly bonus total %s vs recomputed sum %s", weekly.TotalAmount.StringFixed(2), expectedTotal.StringFixed(2)),
		})
	}

	result.Summary.Mismatched = len(result.Discrepancies)
	result.Summary.Matched = result.Summary.TotalChecked - len(result.Discrepancies)
	if result.Summary.Matched < 0 {
		result.Summary.Matched = 0
	}
	for _, d := range result.Discrepancies {
		result.Summary.TotalDifference = result.Summary.TotalDifference.Add(d.Difference)
	}
	result.IsReconciled = len(result.Discrepancies) == 0
	return result, nil
}

// ReconcileMonth runs the revenue reconciliation once over the full month and
// the bonus reconciliation once per bonus week. The critical classification
// ORs an absolute money threshold with an absolute count threshold.
func (s *Service) ReconcileMonth(ctx context.Context, branchID int64, month, year int) (*MonthResult, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	revenue, err := s.ReconcileBranchRevenues(ctx, branchID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	out := &MonthResult{
		BranchID: branchID,
		Month:    month,
		Year:     year,
		Revenue:  *revenue,
	}
	issues := len(revenue.Discrepancies)
	diffSum := revenue.Summary.TotalDifference

	for _, wk := range bonus.WeeksOfMonth(month, year) {
		wr, err := s.ReconcileBonusCalculations(ctx, branchID, wk.Number, month, year)
		if err != nil {
			return nil, err
		}
		out.Bonuses = append(out.Bonuses, *wr)
		issues += len(wr.Discrepancies)
		diffSum = diffSum.Add(wr.Summary.TotalDifference)
	}

	out.TotalIssues = issues
	out.TotalDiffSum = diffSum

	switch {
	case issues == 0:
		out.Status = MonthStatusReconciled
	case diffSum.GreaterThan(decimal.NewFromInt(1000)) || issues > 10:
		out.Status = MonthStatusCritical
	default:
		out.Status = MonthStatusHasIssues
	}
	return out, nil
}
