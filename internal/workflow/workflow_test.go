package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-system/internal/database/models"
	"veritas-system/internal/store"
	"veritas-system/internal/workflow"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.BonusStatusDraft, models.BonusStatusPending, true},
		{models.BonusStatusDraft, models.BonusStatusApproved, false},
		{models.BonusStatusPending, models.BonusStatusRequested, true},
		{models.BonusStatusPending, models.BonusStatusApproved, false},
		{models.BonusStatusRequested, models.BonusStatusApproved, true},
		{models.BonusStatusRequested, models.BonusStatusRejected, true},
		{models.BonusStatusRejected, models.BonusStatusPending, true},
		{models.BonusStatusRejected, models.BonusStatusApproved, false},
		{models.BonusStatusApproved, models.BonusStatusPaid, false},
		{models.BonusStatusPaid, models.BonusStatusDraft, false},
		{"nonsense", models.BonusStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, workflow.CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []string{models.BonusStatusApproved, models.BonusStatusRejected},
		workflow.NextStatuses(models.BonusStatusRequested))
	assert.Empty(t, workflow.NextStatuses(models.BonusStatusApproved))
	assert.Empty(t, workflow.NextStatuses("nonsense"))
}

func seedQueue(now time.Time) *store.MemoryStore {
	mem := store.NewMemoryStore()
	add := func(week int, status string, waitingDays int) {
		mem.AddWeeklyBonus(store.WeeklyBonusRow{
			BranchID: 1, WeekNumber: week, Month: 3, Year: 2025,
			Status: status, TotalAmount: decimal.Zero,
			CreatedAt: now.AddDate(0, 0, -waitingDays),
			UpdatedAt: now.AddDate(0, 0, -waitingDays),
		})
	}
	add(1, models.BonusStatusPending, 8)
	add(2, models.BonusStatusRequested, 5)
	add(3, models.BonusStatusApproved, 2)
	add(4, models.BonusStatusDraft, 10)
	return mem
}

func TestPendingTasksByRole(t *testing.T) {
	now := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	mem := seedQueue(now)
	svc := workflow.NewServiceAt(mem, func() time.Time { return now })
	ctx := context.Background()

	admin, err := svc.PendingTasks(ctx, 1, 3, 2025, workflow.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admin, 3)
	assert.Equal(t, models.BonusStatusPending, admin[0].Status)
	assert.Equal(t, workflow.PriorityUrgent, admin[0].Priority)
	assert.Equal(t, 8, admin[0].WaitingDays)
	assert.Equal(t, workflow.PriorityHigh, admin[1].Priority)
	assert.Equal(t, workflow.PriorityNormal, admin[2].Priority)

	manager, err := svc.PendingTasks(ctx, 1, 3, 2025, workflow.RoleManager)
	require.NoError(t, err)
	require.Len(t, manager, 2)
	for _, task := range manager {
		assert.NotEqual(t, models.BonusStatusApproved, task.Status)
	}

	accountant, err := svc.PendingTasks(ctx, 1, 3, 2025, workflow.RoleAccountant)
	require.NoError(t, err)
	require.Len(t, accountant, 1)
	assert.Equal(t, models.BonusStatusApproved, accountant[0].Status)
}

func TestPendingTasksUnknownRole(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := workflow.NewService(mem)
	_, err := svc.PendingTasks(context.Background(), 1, 3, 2025, "auditor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestPendingTasksFreshRecordIsLowPriority(t *testing.T) {
	now := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()
	mem.AddWeeklyBonus(store.WeeklyBonusRow{
		BranchID: 1, WeekNumber: 1, Month: 3, Year: 2025,
		Status: models.BonusStatusPending, TotalAmount: decimal.Zero,
		UpdatedAt: now.Add(-12 * time.Hour),
	})
	svc := workflow.NewServiceAt(mem, func() time.Time { return now })

	tasks, err := svc.PendingTasks(context.Background(), 1, 3, 2025, workflow.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 0, tasks[0].WaitingDays)
	assert.Equal(t, workflow.PriorityLow, tasks[0].Priority)
}

func TestGetComplianceReport(t *testing.T) {
	// July 2025: 31 days, five bonus weeks, fully in the past.
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()

	for d := 1; d <= 31; d++ {
		v := decimal.NewFromInt(1000)
		mem.AddDailyRevenue(1, time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC), v, decimal.Zero, v)
	}

	weekEnds := []int{7, 14, 21, 28, 31}
	statuses := []string{
		models.BonusStatusApproved,
		models.BonusStatusApproved,
		models.BonusStatusPaid,
		models.BonusStatusPending,
		models.BonusStatusRequested,
	}
	for i, end := range weekEnds {
		weekEnd := time.Date(2025, 7, end, 0, 0, 0, 0, time.UTC)
		mem.AddWeeklyBonus(store.WeeklyBonusRow{
			BranchID: 1, WeekNumber: i + 1, Month: 7, Year: 2025,
			WeekEnd: weekEnd, Status: statuses[i], TotalAmount: decimal.Zero,
			CreatedAt: weekEnd.AddDate(0, 0, 1),
			UpdatedAt: weekEnd.AddDate(0, 0, 1),
		})
	}

	svc := workflow.NewServiceAt(mem, func() time.Time { return now })
	rep, err := svc.GetComplianceReport(context.Background(), 1, 7, 2025)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.ExpectedWeeks)
	assert.Equal(t, 5, rep.TimelyBonuses)
	assert.Equal(t, 100, rep.BonusScore)
	// approved + paid out of five bonuses
	assert.Equal(t, 3, rep.ApprovedCount)
	assert.Equal(t, 60, rep.ApprovalScore)
	assert.Equal(t, 31, rep.EntryCount)
	assert.Equal(t, 31, rep.ExpectedEntries)
	assert.Equal(t, 100, rep.EntryScore)
	// 0.3*100 + 0.3*60 + 0.4*100
	assert.Equal(t, 88, rep.OverallScore)
}

func TestComplianceTimelinessBoundary(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()

	// Week 1 of July ends on the 7th. Created late on the 9th is still
	// timely; midnight on the 10th is not.
	weekEnd := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	mem.AddWeeklyBonus(store.WeeklyBonusRow{
		BranchID: 1, WeekNumber: 1, Month: 7, Year: 2025,
		WeekEnd: weekEnd, Status: models.BonusStatusApproved, TotalAmount: decimal.Zero,
		CreatedAt: time.Date(2025, 7, 9, 23, 59, 0, 0, time.UTC),
	})
	mem.AddWeeklyBonus(store.WeeklyBonusRow{
		BranchID: 1, WeekNumber: 2, Month: 7, Year: 2025,
		WeekEnd: time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
		Status:  models.BonusStatusApproved, TotalAmount: decimal.Zero,
		CreatedAt: time.Date(2025, 7, 17, 0, 0, 0, 0, time.UTC),
	})

	svc := workflow.NewServiceAt(mem, func() time.Time { return now })
	rep, err := svc.GetComplianceReport(context.Background(), 1, 7, 2025)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.TimelyBonuses)
	// 1 timely of 5 expected weeks
	assert.Equal(t, 20, rep.BonusScore)
}

func TestComplianceCurrentMonthProratesEntries(t *testing.T) {
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()
	for d := 1; d <= 10; d++ {
		v := decimal.NewFromInt(1000)
		mem.AddDailyRevenue(1, time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC), v, decimal.Zero, v)
	}

	svc := workflow.NewServiceAt(mem, func() time.Time { return now })
	rep, err := svc.GetComplianceReport(context.Background(), 1, 7, 2025)
	require.NoError(t, err)

	assert.Equal(t, 10, rep.ExpectedEntries)
	assert.Equal(t, 100, rep.EntryScore)
}

func TestComplianceEmptyMonth(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := workflow.NewService(mem)
	rep, err := svc.GetComplianceReport(context.Background(), 1, 7, 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, rep.BonusScore)
	assert.Equal(t, 0, rep.ApprovalScore)
	assert.Equal(t, 0, rep.EntryScore)
	assert.Equal(t, 0, rep.OverallScore)
}
