package workflow

import (
	"context"
	"fmt"
	"math"
	"time"

	"veritas-system/internal/bonus"
	"veritas-system/internal/database/models"
)

// bonusDeadlineDays is how long after week end a bonus record may be created
// and still count as timely.
const bonusDeadlineDays = 2

type ComplianceReport struct {
	BranchID        int64 `json:"branch_id"`
	Month           int   `json:"month"`
	Year            int   `json:"year"`
	BonusScore      int   `json:"bonus_score"`
	ApprovalScore   int   `json:"approval_score"`
	EntryScore      int   `json:"entry_score"`
	OverallScore    int   `json:"overall_score"`
	ExpectedWeeks   int   `json:"expected_weeks"`
	TimelyBonuses   int   `json:"timely_bonuses"`
	ApprovedCount   int   `json:"approved_count"`
	BonusCount      int   `json:"bonus_count"`
	EntryCount      int   `json:"entry_count"`
	ExpectedEntries int   `json:"expected_entries"`
}

// GetComplianceReport blends three sub-scores with fixed weights: timeliness
// of bonus creation (30%), approval completeness (30%) and daily-entry
// completion (40%).
func (s *Service) GetComplianceReport(ctx context.Context, branchID int64, month, year int) (*ComplianceReport, error) {
	weeks := bonus.WeeksOfMonth(month, year)
	bonuses, err := s.store.WeeklyBonusesForMonth(ctx, branchID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly bonuses: %w", err)
	}

	byWeek := map[int]int{}
	for i, b := range bonuses {
		byWeek[b.WeekNumber] = i
	}

	timely := 0
	for _, wk := range weeks {
		i, ok := byWeek[wk.Number]
		if !ok {
			continue
		}
		// The whole deadline day still counts as timely.
		deadline := wk.End.AddDate(0, 0, bonusDeadlineDays+1)
		if bonuses[i].CreatedAt.Before(deadline) {
			timely++
		}
	}
	bonusScore := ratioScore(timely, len(weeks))

	approved := 0
	for _, b := range bonuses {
		if b.Status == models.BonusStatusApproved || b.Status == models.BonusStatusPaid {
			approved++
		}
	}
	approvalScore := ratioScore(approved, len(bonuses))

	entries, err := s.store.DailyEntryCount(ctx, branchID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily entries: %w", err)
	}
	expectedEntries := expectedEntryDays(month, year, s.now())
	entryScore := ratioScore(entries, expectedEntries)

	overall := int(math.Round(0.3*float64(bonusScore) + 0.3*float64(approvalScore) + 0.4*float64(entryScore)))

	return &ComplianceReport{
		BranchID:        branchID,
		Month:           month,
		Year:            year,
		BonusScore:      bonusScore,
		ApprovalScore:   approvalScore,
		EntryScore:      entryScore,
		OverallScore:    overall,
		ExpectedWeeks:   len(weeks),
		TimelyBonuses:   timely,
		ApprovedCount:   approved,
		BonusCount:      len(bonuses),
		EntryCount:      entries,
		ExpectedEntries: expectedEntries,
	}, nil
}

// expectedEntryDays is the full month for past months, the elapsed days for
// the current month.
func expectedEntryDays(month, year int, now time.Time) int {
	days := bonus.DaysInMonth(month, year)
	if year == now.Year() && time.Month(month) == now.Month() && now.Day() < days {
		return now.Day()
	}
	return days
}

func ratioScore(hit, total int) int {
	if total == 0 {
		return 0
	}
	score := int(math.Round(float64(hit) / float64(total) * 100))
	if score > 100 {
		score = 100
	}
	return score
}
