package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"veritas-system/internal/database/models"
)

// GormStore implements Store against the postgres schema in
// internal/database/models.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DailyRevenues(ctx context.Context, branchID int64, start, end time.Time) ([]DailyRevenueRow, error) {
	var rows []DailyRevenueRow
	err := s.db.WithContext(ctx).
		Model(&models.DailyRevenue{}).
		Select("id, revenue_date as date, cash, network, total").
		Where("branch_id = ? AND revenue_date BETWEEN ? AND ?", branchID, start, end).
		Order("revenue_date asc").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) EmployeeSumsByDaily(ctx context.Context, branchID int64, start, end time.Time) ([]EmployeeDaySum, error) {
	var rows []EmployeeDaySum
	err := s.db.WithContext(ctx).
		Table("employee_revenues as er").
		Select("er.daily_revenue_id, SUM(er.total) as sum").
		Joins("JOIN daily_revenues as dr ON dr.id = er.daily_revenue_id").
		Where("dr.branch_id = ? AND dr.revenue_date BETWEEN ? AND ?", branchID, start, end).
		Group("er.daily_revenue_id").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) EmployeeDayTotals(ctx context.Context, branchID int64, start, end time.Time) ([]EmployeeDayTotal, error) {
	var rows []EmployeeDayTotal
	err := s.db.WithContext(ctx).
		Table("employee_revenues as er").
		Select("er.employee_id, dr.revenue_date as date, er.total").
		Joins("JOIN daily_revenues as dr ON dr.id = er.daily_revenue_id").
		Where("dr.branch_id = ? AND dr.revenue_date BETWEEN ? AND ?", branchID, start, end).
		Order("dr.revenue_date asc").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) WeeklyBonus(ctx context.Context, branchID int64, week, month, year int) (*WeeklyBonusRow, error) {
	var bonus models.WeeklyBonus
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND week_number = ? AND month = ? AND year = ?", branchID, week, month, year).
		First(&bonus).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row := weeklyBonusRow(bonus)
	return &row, nil
}

func (s *GormStore) WeeklyBonusesForMonth(ctx context.Context, branchID int64, month, year int) ([]WeeklyBonusRow, error) {
	var bonuses []models.WeeklyBonus
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND month = ? AND year = ?", branchID, month, year).
		Order("week_number asc").
		Find(&bonuses).Error
	if err != nil {
		return nil, err
	}
	rows := make([]WeeklyBonusRow, 0, len(bonuses))
	for _, b := range bonuses {
		rows = append(rows, weeklyBonusRow(b))
	}
	return rows, nil
}

func (s *GormStore) BonusDetails(ctx context.Context, weeklyBonusID int64) ([]BonusDetailRow, error) {
	var details []models.BonusDetail
	err := s.db.WithContext(ctx).
		Where("weekly_bonus_id = ?", weeklyBonusID).
		Find(&details).Error
	if err != nil {
		return nil, err
	}
	rows := make([]BonusDetailRow, 0, len(details))
	for _, d := range details {
		rows = append(rows, bonusDetailRow(d))
	}
	return rows, nil
}

func (s *GormStore) EmployeeBonusDetails(ctx context.Context, employeeID int64, start, end time.Time) ([]BonusDetailRow, error) {
	var rows []BonusDetailRow
	err := s.db.WithContext(ctx).
		Table("bonus_details as bd").
		Select("bd.id, bd.weekly_bonus_id, bd.employee_id, bd.weekly_revenue, bd.bonus_amount, bd.bonus_tier, bd.is_eligible").
		Joins("JOIN weekly_bonuses as wb ON wb.id = bd.weekly_bonus_id").
		Where("bd.employee_id = ? AND wb.week_start BETWEEN ? AND ?", employeeID, start, end).
		Order("wb.week_start asc").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) ActiveEmployees(ctx context.Context, branchID int64) ([]EmployeeRow, error) {
	var rows []EmployeeRow
	err := s.db.WithContext(ctx).
		Model(&models.Employee{}).
		Select("id, employee_name").
		Where("branch_id = ? AND is_active = ?", branchID, true).
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) DailyEntryCount(ctx context.Context, branchID int64, month, year int) (int, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.DailyRevenue{}).
		Where("branch_id = ? AND revenue_date BETWEEN ? AND ?", branchID, monthStart, monthEnd).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) NegativeEmployeeRevenues(ctx context.Context, branchID int64) ([]EmployeeRevenueRow, error) {
	var rows []EmployeeRevenueRow
	err := s.db.WithContext(ctx).
		Table("employee_revenues as er").
		Select("er.id, er.employee_id, er.daily_revenue_id, er.total").
		Joins("JOIN daily_revenues as dr ON dr.id = er.daily_revenue_id").
		Where("dr.branch_id = ? AND er.total < 0", branchID).
		Scan(&rows).Error
	return rows, err
}

// DuplicateEmployeeRevenues returns every row that shares its
// (employee_id, daily_revenue_id) pair with a lower id. The lowest id of each
// pair is the survivor and is never returned.
func (s *GormStore) DuplicateEmployeeRevenues(ctx context.Context, branchID int64) ([]EmployeeRevenueRow, error) {
	var rows []EmployeeRevenueRow
	err := s.db.WithContext(ctx).
		Table("employee_revenues as er").
		Select("er.id, er.employee_id, er.daily_revenue_id, er.total").
		Joins("JOIN daily_revenues as dr ON dr.id = er.daily_revenue_id").
		Where("dr.branch_id = ?", branchID).
		Where("er.id > (SELECT MIN(e2.id) FROM employee_revenues as e2 WHERE e2.employee_id = er.employee_id AND e2.daily_revenue_id = er.daily_revenue_id)").
		Order("er.id asc").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) OrphanBonusDetails(ctx context.Context) ([]BonusDetailRow, error) {
	var rows []BonusDetailRow
	err := s.db.WithContext(ctx).
		Table("bonus_details as bd").
		Select("bd.id, bd.weekly_bonus_id, bd.employee_id, bd.weekly_revenue, bd.bonus_amount, bd.bonus_tier, bd.is_eligible").
		Joins("LEFT JOIN weekly_bonuses as wb ON wb.id = bd.weekly_bonus_id").
		Where("wb.id IS NULL").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) UpdateWeeklyBonusTotal(ctx context.Context, weeklyBonusID int64, total decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.WeeklyBonus{}).
		Where("id = ?", weeklyBonusID).
		Update("total_amount", total).Error
}

func (s *GormStore) ZeroEmployeeRevenue(ctx context.Context, employeeRevenueID int64) error {
	return s.db.WithContext(ctx).
		Model(&models.EmployeeRevenue{}).
		Where("id = ?", employeeRevenueID).
		Update("total", decimal.Zero).Error
}

func (s *GormStore) DeleteEmployeeRevenue(ctx context.Context, employeeRevenueID int64) error {
	return s.db.WithContext(ctx).
		Delete(&models.EmployeeRevenue{}, employeeRevenueID).Error
}

func (s *GormStore) DeleteBonusDetail(ctx context.Context, bonusDetailID int64) error {
	return s.db.WithContext(ctx).
		Delete(&models.BonusDetail{}, bonusDetailID).Error
}

func weeklyBonusRow(b models.WeeklyBonus) WeeklyBonusRow {
	row := WeeklyBonusRow{
		ID:          b.ID,
		BranchID:    b.BranchID,
		WeekNumber:  b.WeekNumber,
		Month:       b.Month,
		Year:        b.Year,
		WeekStart:   b.WeekStart,
		WeekEnd:     b.WeekEnd,
		Status:      b.Status,
		TotalAmount: b.TotalAmount,
	}
	if b.CreatedAt != nil {
		row.CreatedAt = *b.CreatedAt
	}
	if b.UpdatedAt != nil {
		row.UpdatedAt = *b.UpdatedAt
	}
	return row
}

func bonusDetailRow(d models.BonusDetail) BonusDetailRow {
	return BonusDetailRow{
		ID:            d.ID,
		WeeklyBonusID: d.WeeklyBonusID,
		EmployeeID:    d.EmployeeID,
		WeeklyRevenue: d.WeeklyRevenue,
		BonusAmount:   d.BonusAmount,
		BonusTier:     d.BonusTier,
		IsEligible:    d.IsEligible,
	}
}
