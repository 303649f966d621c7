package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyBonus workflow statuses. Transition legality lives in the workflow
// service; these are the persisted values.
const (
	BonusStatusDraft     = "draft"
	BonusStatusPending   = "pending"
	BonusStatusRequested = "requested"
	BonusStatusApproved  = "approved"
	BonusStatusRejected  = "rejected"
	BonusStatusPaid      = "paid"
)

// WeeklyBonus is one bonus run per branch per month-week (weeks 1-4, or 5 when
// the month has more than 28 days). TotalAmount must equal the sum of its
// BonusDetail rows.
type WeeklyBonus struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	BranchID    int64           `gorm:"index:idx_bonus_branch_week;not null"`
	WeekNumber  int             `gorm:"index:idx_bonus_branch_week;not null"`
	Month       int             `gorm:"index:idx_bonus_branch_week;not null"`
	Year        int             `gorm:"index:idx_bonus_branch_week;not null"`
	WeekStart   time.Time       `gorm:"not null"`
	WeekEnd     time.Time       `gorm:"not null"`
	Status      string          `gorm:"type:varchar(16);not null;default:'draft'"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   *time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   *time.Time      `gorm:"autoUpdateTime"`

	BonusDetails []BonusDetail `gorm:"foreignKey:WeeklyBonusID"`
}

type BonusDetail struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	WeeklyBonusID int64           `gorm:"index;not null"`
	EmployeeID    int64           `gorm:"index;not null"`
	WeeklyRevenue decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BonusAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BonusTier     string          `gorm:"type:varchar(16);not null"`
	IsEligible    bool            `gorm:"default:true"`
	CreatedAt     *time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     *time.Time      `gorm:"autoUpdateTime"`
}
