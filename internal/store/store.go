// Package store defines the data contracts between the analysis engines and
// the relational store. Engines depend on the Store interface only; the gorm
// implementation lives in gorm.go and an in-memory implementation for tests in
// memory.go.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailyRevenueRow is one branch-reported day.
type DailyRevenueRow struct {
	ID      int64
	Date    time.Time
	Cash    decimal.Decimal
	Network decimal.Decimal
	Total   decimal.Decimal
}

// EmployeeDaySum is the employee-side total for one DailyRevenue row.
type EmployeeDaySum struct {
	DailyRevenueID int64
	Sum            decimal.Decimal
}

// EmployeeDayTotal is one employee's recorded total on one day.
type EmployeeDayTotal struct {
	EmployeeID int64
	Date       time.Time
	Total      decimal.Decimal
}

type WeeklyBonusRow struct {
	ID          int64
	BranchID    int64
	WeekNumber  int
	Month       int
	Year        int
	WeekStart   time.Time
	WeekEnd     time.Time
	Status      string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BonusDetailRow struct {
	ID            int64
	WeeklyBonusID int64
	EmployeeID    int64
	WeeklyRevenue decimal.Decimal
	BonusAmount   decimal.Decimal
	BonusTier     string
	IsEligible    bool
}

type EmployeeRevenueRow struct {
	ID             int64
	EmployeeID     int64
	DailyRevenueID int64
	Total          decimal.Decimal
}

type EmployeeRow struct {
	ID           int64
	EmployeeName string
}

// Store is the engine's full read/write contract. Reads are bounded by the
// supplied branch and date range; writes are single-row updates or deletes.
// Missing parent rows are reported as (nil, nil), not as errors, so callers
// can surface them as business findings.
type Store interface {
	// Revenue reads.
	DailyRevenues(ctx context.Context, branchID int64, start, end time.Time) ([]DailyRevenueRow, error)
	EmployeeSumsByDaily(ctx context.Context, branchID int64, start, end time.Time) ([]EmployeeDaySum, error)
	EmployeeDayTotals(ctx context.Context, branchID int64, start, end time.Time) ([]EmployeeDayTotal, error)

	// Bonus reads.
	WeeklyBonus(ctx context.Context, branchID int64, week, month, year int) (*WeeklyBonusRow, error)
	WeeklyBonusesForMonth(ctx context.Context, branchID int64, month, year int) ([]WeeklyBonusRow, error)
	BonusDetails(ctx context.Context, weeklyBonusID int64) ([]BonusDetailRow, error)
	EmployeeBonusDetails(ctx context.Context, employeeID int64, start, end time.Time) ([]BonusDetailRow, error)

	// Reference reads.
	ActiveEmployees(ctx context.Context, branchID int64) ([]EmployeeRow, error)
	DailyEntryCount(ctx context.Context, branchID int64, month, year int) (int, error)

	// Integrity reads.
	NegativeEmployeeRevenues(ctx context.Context, branchID int64) ([]EmployeeRevenueRow, error)
	DuplicateEmployeeRevenues(ctx context.Context, branchID int64) ([]EmployeeRevenueRow, error)
	OrphanBonusDetails(ctx context.Context) ([]BonusDetailRow, error)

	// Correction writes.
	UpdateWeeklyBonusTotal(ctx context.Context, weeklyBonusID int64, total decimal.Decimal) error
	ZeroEmployeeRevenue(ctx context.Context, employeeRevenueID int64) error
	DeleteEmployeeRevenue(ctx context.Context, employeeRevenueID int64) error
	DeleteBonusDetail(ctx context.Context, bonusDetailID int64) error
}
