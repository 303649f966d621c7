// Package workflow tracks the weekly bonus approval lifecycle and scores a
// branch's process compliance. Transition legality is looked up from a fixed
// adjacency table rather than re-derived by callers.
package workflow

import (
	"context"
	"fmt"
	"time"

	"veritas-system/internal/database/models"
	"veritas-system/internal/store"
)

// transitions is the status adjacency table. approved and paid are terminal
// for automated transitions; rejected can be retried back into pending.
var transitions = map[string][]string{
	models.BonusStatusDraft:     {models.BonusStatusPending},
	models.BonusStatusPending:   {models.BonusStatusRequested},
	models.BonusStatusRequested: {models.BonusStatusApproved, models.BonusStatusRejected},
	models.BonusStatusRejected:  {models.BonusStatusPending},
	models.BonusStatusApproved:  {},
	models.BonusStatusPaid:      {},
}

// CanTransitionTo reports whether a weekly bonus may move from one status to
// another.
func CanTransitionTo(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from a status. Unknown statuses have
// no legal targets.
func NextStatuses(from string) []string {
	return transitions[from]
}

const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleAccountant = "accountant"
)

// roleStatuses scopes the pending-task queue per role: accountants only see
// approved bonuses awaiting payout, managers everything still moving toward
// approval, admins both.
var roleStatuses = map[string][]string{
	RoleAdmin:      {models.BonusStatusPending, models.BonusStatusRequested, models.BonusStatusApproved},
	RoleManager:    {models.BonusStatusPending, models.BonusStatusRequested},
	RoleAccountant: {models.BonusStatusApproved},
}

const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

type Task struct {
	WeeklyBonusID int64  `json:"weekly_bonus_id"`
	BranchID      int64  `json:"branch_id"`
	WeekNumber    int    `json:"week_number"`
	Month         int    `json:"month"`
	Year          int    `json:"year"`
	Status        string `json:"status"`
	WaitingDays   int    `json:"waiting_days"`
	Priority      string `json:"priority"`
	Description   string `json:"description"`
}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// NewServiceAt pins the clock, for tests.
func NewServiceAt(s store.Store, now func() time.Time) *Service {
	return &Service{store: s, now: now}
}

// PendingTasks returns the role-scoped task queue for a branch month. Priority
// grows with the days a record has been sitting since its last update.
func (s *Service) PendingTasks(ctx context.Context, branchID int64, month, year int, role string) ([]Task, error) {
	statuses, ok := roleStatuses[role]
	if !ok {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	bonuses, err := s.store.WeeklyBonusesForMonth(ctx, branchID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly bonuses: %w", err)
	}

	tasks := []Task{}
	for _, b := range bonuses {
		if !contains(statuses, b.Status) {
			continue
		}
		waiting := int(s.now().Sub(b.UpdatedAt).Hours() / 24)
		tasks = append(tasks, Task{
			WeeklyBonusID: b.ID,
			BranchID:      b.BranchID,
			WeekNumber:    b.WeekNumber,
			Month:         b.Month,
			Year:          b.Year,
			Status:        b.Status,
			WaitingDays:   waiting,
			Priority:      taskPriority(waiting),
			Description:   fmt.Sprintf("week %d bonus is %s, waiting %d day(s)", b.WeekNumber, b.Status, waiting),
		})
	}
	return tasks, nil
}

func taskPriority(waitingDays int) string {
	switch {
	case waitingDays > 7:
		return PriorityUrgent
	case waitingDays > 3:
		return PriorityHigh
	case waitingDays < 1:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
