package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Branch struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	BranchName string     `gorm:"type:varchar(128);uniqueIndex;not null"`
	Address    string     `gorm:"type:text"`
	Phone      string     `gorm:"type:varchar(32)"`
	IsActive   bool       `gorm:"default:true"`
	CreatedAt  *time.Time `gorm:"autoCreateTime"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime"`

	Employees []Employee `gorm:"foreignKey:BranchID"`
}

type Employee struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	BranchID     int64  `gorm:"index;not null"`
	EmployeeName string `gorm:"type:varchar(128);not null"`
	Position     string `gorm:"type:varchar(64)"`
	Phone        string `gorm:"type:varchar(32)"`
	HireDate     *time.Time
	BaseSalary   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive     bool            `gorm:"default:true"`
	CreatedAt    *time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    *time.Time      `gorm:"autoUpdateTime"`
}

// DailyRevenue is the branch-reported daily total, one row per branch per
// calendar day. Total is the ground truth the employee rows are reconciled
// against.
type DailyRevenue struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	BranchID      int64           `gorm:"index:idx_daily_branch_date;not null"`
	RevenueDate   time.Time       `gorm:"index:idx_daily_branch_date;not null"`
	Cash          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Network       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsMatched     bool            `gorm:"default:false"`
	UnmatchReason *string         `gorm:"type:text"`
	CreatedAt     *time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     *time.Time      `gorm:"autoUpdateTime"`

	EmployeeRevenues []EmployeeRevenue `gorm:"foreignKey:DailyRevenueID"`
}

type EmployeeRevenue struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	EmployeeID     int64           `gorm:"index;not null"`
	DailyRevenueID int64           `gorm:"index;not null"`
	Cash           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Network        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt      *time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      *time.Time      `gorm:"autoUpdateTime"`
}
