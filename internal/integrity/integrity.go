// Package integrity holds the read-only data health checklist and the
// idempotent corrective operations. Corrections never roll back: whatever was
// fixed before a failure stays fixed and is reported in the summary.
package integrity

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"veritas-system/internal/reconcile"
	"veritas-system/internal/store"
)

const (
	OpRecalculate      = "recalculate"
	OpFixNegatives     = "fix_negatives"
	OpRemoveDuplicates = "remove_duplicates"
	OpFixOrphans       = "fix_orphans"
)

type Correction struct {
	Type        string `json:"type"`
	TargetID    int64  `json:"target_id"`
	Description string `json:"description"`
}

type Summary struct {
	Checked   int `json:"checked"`
	Corrected int `json:"corrected"`
	Failed    int `json:"failed"`
}

type Result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Corrections []Correction `json:"corrections"`
	Summary     Summary      `json:"summary"`
}

type Issue struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type HealthReport struct {
	IsHealthy bool    `json:"is_healthy"`
	Issues    []Issue `json:"issues"`
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ExecuteAutoCorrection dispatches one named corrective operation. Internal
// failures are folded into the result rather than returned: partial progress
// is preserved and reported.
func (s *Service) ExecuteAutoCorrection(ctx context.Context, operation string, branchID int64, month, year int) *Result {
	var (
		result *Result
		err    error
	)
	switch operation {
	case OpRecalculate:
		result, err = s.recalculate(ctx, branchID, month, year)
	case OpFixNegatives:
		result, err = s.fixNegatives(ctx, branchID)
	case OpRemoveDuplicates:
		result, err = s.removeDuplicates(ctx, branchID)
	case OpFixOrphans:
		result, err = s.fixOrphans(ctx)
	default:
		return &Result{
			Success:     false,
			Message:     fmt.Sprintf("unknown correction operation: %s", operation),
			Corrections: []Correction{},
		}
	}

	if err != nil {
		if result == nil {
			result = &Result{Corrections: []Correction{}}
		}
		result.Success = false
		result.Message = err.Error()
		result.Summary.Failed = result.Summary.Checked - result.Summary.Corrected
		return result
	}
	result.Success = true
	return result
}

// recalculate recomputes each weekly bonus total from its detail rows and
// overwrites totals off by more than the reconciliation tolerance. Running it
// twice in a row corrects nothing the second time.
func (s *Service) recalculate(ctx context.Context, branchID int64, month, year int) (*Result, error) {
	result := &Result{Corrections: []Correction{}}

	bonuses, err := s.store.WeeklyBonusesForMonth(ctx, branchID, month, year)
	if err != nil {
		return result, fmt.Errorf("failed to load weekly bonuses: %w", err)
	}

	for _, b := range bonuses {
		result.Summary.Checked++

		details, err := s.store.BonusDetails(ctx, b.ID)
		if err != nil {
			return result, fmt.Errorf("failed to load details for bonus %d: %w", b.ID, err)
		}
		expected := decimal.Zero
		for _, d := range details {
			expected = expected.Add(d.BonusAmount)
		}

		if b.TotalAmount.Sub(expected).Abs().LessThanOrEqual(reconcile.Tolerance) {
			continue
		}
		if err := s.store.UpdateWeeklyBonusTotal(ctx, b.ID, expected); err != nil {
			return result, fmt.Errorf("failed to update bonus %d: %w", b.ID, err)
		}
		result.Summary.Corrected++
		result.Corrections = append(result.Corrections, Correction{
			Type:        OpRecalculate,
			TargetID:    b.ID,
			Description: fmt.Sprintf("weekly bonus %d total %s recomputed to %s", b.ID, b.TotalAmount.StringFixed(2), expected.StringFixed(2)),
		})
	}

	result.Message = fmt.Sprintf("recalculated %d weekly bonus totals, corrected %d", result.Summary.Checked, result.Summary.Corrected)
	return result, nil
}

func (s *Service) fixNegatives(ctx context.Context, branchID int64) (*Result, error) {
	result := &Result{Corrections: []Correction{}}

	rows, err := s.store.NegativeEmployeeRevenues(ctx, branchID)
	if err != nil {
		return result, fmt.Errorf("failed to find negative revenues: %w", err)
	}
	result.Summary.Checked = len(rows)

	for _, r := range rows {
		if err := s.store.ZeroEmployeeRevenue(ctx, r.ID); err != nil {
			return result, fmt.Errorf("failed to zero employee revenue %d: %w", r.ID, err)
		}
		result.Summary.Corrected++
		result.Corrections = append(result.Corrections, Correction{
			Type:        OpFixNegatives,
			TargetID:    r.ID,
			Description: fmt.Sprintf("employee revenue %d zeroed from %s", r.ID, r.Total.StringFixed(2)),
		})
	}

	result.Message = fmt.Sprintf("zeroed %d negative employee revenue rows", result.Summary.Corrected)
	return result, nil
}

// removeDuplicates deletes rows duplicated on (employee, daily revenue); the
// lowest id of each pair survives.
func (s *Service) removeDuplicates(ctx context.Context, branchID int64) (*Result, error) {
	result := &Result{Corrections: []Correction{}}

	rows, err := s.store.DuplicateEmployeeRevenues(ctx, branchID)
	if err != nil {
		return result, fmt.Errorf("failed to find duplicate revenues: %w", err)
	}
	result.Summary.Checked = len(rows)

	for _, r := range rows {
		if err := s.store.DeleteEmployeeRevenue(ctx, r.ID); err != nil {
			return result, fmt.Errorf("failed to delete employee revenue %d: %w", r.ID, err)
		}
		result.Summary.Corrected++
		result.Corrections = append(result.Corrections, Correction{
			Type:        OpRemoveDuplicates,
			TargetID:    r.ID,
			Description: fmt.Sprintf("duplicate employee revenue %d removed (employee %d, daily revenue %d)", r.ID, r.EmployeeID, r.DailyRevenueID),
		})
	}

	result.Message = fmt.Sprintf("removed %d duplicate employee revenue rows", result.Summary.Corrected)
	return result, nil
}

func (s *Service) fixOrphans(ctx context.Context) (*Result, error) {
	result := &Result{Corrections: []Correction{}}

	rows, err := s.store.OrphanBonusDetails(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to find orphan bonus details: %w", err)
	}
	result.Summary.Checked = len(rows)

	for _, r := range rows {
		if err := s.store.DeleteBonusDetail(ctx, r.ID); err != nil {
			return result, fmt.Errorf("failed to delete bonus detail %d: %w", r.ID, err)
		}
		result.Summary.Corrected++
		result.Corrections = append(result.Corrections, Correction{
			Type:        OpFixOrphans,
			TargetID:    r.ID,
			Description: fmt.Sprintf("orphan bonus detail %d removed (weekly bonus %d missing)", r.ID, r.WeeklyBonusID),
		})
	}

	result.Message = fmt.Sprintf("removed %d orphan bonus detail rows", result.Summary.Corrected)
	return result, nil
}

// CheckDataIntegrity runs the read-only health checklist: negative values,
// orphan records and weekly bonus total mismatches. Callers are expected to
// run it after corrections and require a healthy report.
func (s *Service) CheckDataIntegrity(ctx context.Context, branchID int64, month, year int) (*HealthReport, error) {
	report := &HealthReport{Issues: []Issue{}}

	negatives, err := s.store.NegativeEmployeeRevenues(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check negative revenues: %w", err)
	}
	if len(negatives) > 0 {
		report.Issues = append(report.Issues, Issue{
			Type:        "negative_values",
			Count:       len(negatives),
			Severity:    "critical",
			Description: fmt.Sprintf("%d employee revenue rows have negative totals", len(negatives)),
		})
	}

	duplicates, err := s.store.DuplicateEmployeeRevenues(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate revenues: %w", err)
	}
	if len(duplicates) > 0 {
		report.Issues = append(report.Issues, Issue{
			Type:        "duplicate_records",
			Count:       len(duplicates),
			Severity:    "warning",
			Description: fmt.Sprintf("%d employee revenue rows are duplicated", len(duplicates)),
		})
	}

	orphans, err := s.store.OrphanBonusDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check orphan bonus details: %w", err)
	}
	if len(orphans) > 0 {
		report.Issues = append(report.Issues, Issue{
			Type:        "orphan_records",
			Count:       len(orphans),
			Severity:    "warning",
			Description: fmt.Sprintf("%d bonus detail rows have no weekly bonus", len(orphans)),
		})
	}

	mismatches := 0
	bonuses, err := s.store.WeeklyBonusesForMonth(ctx, branchID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to check weekly bonus totals: %w", err)
	}
	for _, b := range bonuses {
		details, err := s.store.BonusDetails(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load details for bonus %d: %w", b.ID, err)
		}
		sum := decimal.Zero
		for _, d := range details {
			sum = sum.Add(d.BonusAmount)
		}
		if b.TotalAmount.Sub(sum).Abs().GreaterThan(reconcile.Tolerance) {
			mismatches++
		}
	}
	if mismatches > 0 {
		report.Issues = append(report.Issues, Issue{
			Type:        "total_mismatches",
			Count:       mismatches,
			Severity:    "critical",
			Description: fmt.Sprintf("%d weekly bonus totals disagree with their detail rows", mismatches),
		})
	}

	report.IsHealthy = len(report.Issues) == 0
	return report, nil
}
