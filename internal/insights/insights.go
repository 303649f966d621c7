// Package insights turns the raw analysis outputs into proactive alerts and
// recommendations for the dashboard. Everything here is a return value;
// persistence and notification delivery belong to the caller.
package insights

import (
	"context"
	"fmt"
	"time"

	"veritas-system/internal/anomaly"
	"veritas-system/internal/fraud"
	"veritas-system/internal/performance"
	"veritas-system/internal/workflow"
)

type ProactiveAlert struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Deadline    time.Time `json:"deadline"`
	EntityType  string    `json:"entity_type"`
	EntityID    int64     `json:"entity_id"`
}

type SmartRecommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	EmployeeID  int64  `json:"employee_id"`
}

type Digest struct {
	BranchID        int64                 `json:"branch_id"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Alerts          []ProactiveAlert      `json:"alerts"`
	Recommendations []SmartRecommendation `json:"recommendations"`
}

type Service struct {
	workflow    *workflow.Service
	anomalies   *anomaly.Service
	fraud       *fraud.Service
	performance *performance.Service
	now         func() time.Time
}

func NewService(wf *workflow.Service, an *anomaly.Service, fr *fraud.Service, pf *performance.Service) *Service {
	return &Service{workflow: wf, anomalies: an, fraud: fr, performance: pf, now: time.Now}
}

// NewServiceAt pins the clock, for tests.
func NewServiceAt(wf *workflow.Service, an *anomaly.Service, fr *fraud.Service, pf *performance.Service, now func() time.Time) *Service {
	return &Service{workflow: wf, anomalies: an, fraud: fr, performance: pf, now: now}
}

// BranchDigest runs the full analysis suite for one branch month and distills
// it into alerts and recommendations.
func (s *Service) BranchDigest(ctx context.Context, branchID int64, month, year int) (*Digest, error) {
	now := s.now()
	digest := &Digest{
		BranchID:        branchID,
		GeneratedAt:     now,
		Alerts:          []ProactiveAlert{},
		Recommendations: []SmartRecommendation{},
	}

	tasks, err := s.workflow.PendingTasks(ctx, branchID, month, year, workflow.RoleAdmin)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		digest.Alerts = append(digest.Alerts, ProactiveAlert{
			Type:        "workflow_task",
			Title:       fmt.Sprintf("Bonus week %d awaiting action", t.WeekNumber),
			Description: t.Description,
			Priority:    t.Priority,
			Deadline:    now.AddDate(0, 0, deadlineDays(t.Priority)),
			EntityType:  "weekly_bonus",
			EntityID:    t.WeeklyBonusID,
		})
	}

	anomalies, err := s.anomalies.DetectRevenueAnomalies(ctx, branchID, now, anomaly.DefaultOptions())
	if err != nil {
		return nil, err
	}
	for _, a := range anomalies.Anomalies {
		if a.Severity == anomaly.SeverityInfo {
			continue
		}
		priority := workflow.PriorityHigh
		if a.Severity == anomaly.SeverityCritical {
			priority = workflow.PriorityUrgent
		}
		digest.Alerts = append(digest.Alerts, ProactiveAlert{
			Type:        "revenue_anomaly",
			Title:       fmt.Sprintf("Revenue %s on %s", a.Type, a.Date.Format("2006-01-02")),
			Description: fmt.Sprintf("%s %d recorded %.2f against an expected %.2f (%.1f sigma)", a.EntityType, a.EntityID, a.ActualValue, a.ExpectedValue, a.DeviationSigma),
			Priority:    priority,
			Deadline:    now.AddDate(0, 0, deadlineDays(priority)),
			EntityType:  a.EntityType,
			EntityID:    a.EntityID,
		})
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	fraudResult, err := s.fraud.DetectFraudPatterns(ctx, branchID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if fraudResult.RiskLevel != fraud.RiskLow {
		priority := workflow.PriorityHigh
		if fraudResult.RiskLevel == fraud.RiskHigh {
			priority = workflow.PriorityUrgent
		}
		digest.Alerts = append(digest.Alerts, ProactiveAlert{
			Type:        "fraud_risk",
			Title:       fmt.Sprintf("Fraud risk %s (score %d)", fraudResult.RiskLevel, fraudResult.RiskScore),
			Description: fmt.Sprintf("%d suspicious patterns detected this month", len(fraudResult.Patterns)),
			Priority:    priority,
			Deadline:    now.AddDate(0, 0, deadlineDays(priority)),
			EntityType:  "branch",
			EntityID:    branchID,
		})
	}

	classifications, err := s.performance.ClassifyBranch(ctx, branchID, now)
	if err != nil {
		return nil, err
	}
	for _, c := range classifications {
		if rec, ok := recommendationFor(c); ok {
			digest.Recommendations = append(digest.Recommendations, rec)
		}
	}

	return digest, nil
}

func recommendationFor(c performance.Classification) (SmartRecommendation, bool) {
	switch c.Pattern {
	case performance.PatternDecliningStar:
		return SmartRecommendation{
			Type:        "retention",
			Title:       fmt.Sprintf("Check in with %s", c.EmployeeName),
			Description: fmt.Sprintf("A reliable earner is trending down %.0f%% over the last 60 days.", -c.Metrics.Trend),
			Priority:    workflow.PriorityUrgent,
			EmployeeID:  c.EmployeeID,
		}, true
	case performance.PatternRisingTalent:
		return SmartRecommendation{
			Type:        "development",
			Title:       fmt.Sprintf("Recognize %s", c.EmployeeName),
			Description: fmt.Sprintf("Revenue is up %.0f%% with stable output; consider added responsibility.", c.Metrics.Trend),
			Priority:    workflow.PriorityLow,
			EmployeeID:  c.EmployeeID,
		}, true
	case performance.PatternConsistentLow:
		return SmartRecommendation{
			Type:        "coaching",
			Title:       fmt.Sprintf("Coach %s", c.EmployeeName),
			Description: "Steady output below bonus thresholds; a training plan may help.",
			Priority:    workflow.PriorityHigh,
			EmployeeID:  c.EmployeeID,
		}, true
	case performance.PatternErratic:
		return SmartRecommendation{
			Type:        "scheduling",
			Title:       fmt.Sprintf("Review %s's schedule", c.EmployeeName),
			Description: fmt.Sprintf("Volatility of %.2f suggests inconsistent shifts or entry habits.", c.Metrics.Volatility),
			Priority:    workflow.PriorityNormal,
			EmployeeID:  c.EmployeeID,
		}, true
	}
	return SmartRecommendation{}, false
}

func deadlineDays(priority string) int {
	switch priority {
	case workflow.PriorityUrgent:
		return 1
	case workflow.PriorityHigh:
		return 2
	default:
		return 7
	}
}
