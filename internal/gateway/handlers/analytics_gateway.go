package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"veritas-system/internal/anomaly"
	"veritas-system/internal/fraud"
	"veritas-system/internal/gateway/middleware"
	"veritas-system/internal/insights"
	"veritas-system/internal/integrity"
	"veritas-system/internal/performance"
	"veritas-system/internal/reconcile"
	"veritas-system/internal/workflow"
)

const (
	monthReportCachePrefix = "month_reconciliation:"
	fraudReportCachePrefix = "fraud_report:"
	complianceCachePrefix  = "compliance_report:"

	reportCacheTTL = 10 * time.Minute
)

const dateLayout = "2006-01-02"

type AnalyticsHTTPHandler struct {
	reconcile   *reconcile.Service
	anomalies   *anomaly.Service
	fraud       *fraud.Service
	performance *performance.Service
	workflow    *workflow.Service
	integrity   *integrity.Service
	insights    *insights.Service
	redis       *redis.Client
}

func NewAnalyticsHTTPHandler(
	rec *reconcile.Service,
	an *anomaly.Service,
	fr *fraud.Service,
	pf *performance.Service,
	wf *workflow.Service,
	ig *integrity.Service,
	in *insights.Service,
	redisClient *redis.Client,
) *AnalyticsHTTPHandler {
	return &AnalyticsHTTPHandler{
		reconcile:   rec,
		anomalies:   an,
		fraud:       fr,
		performance: pf,
		workflow:    wf,
		integrity:   ig,
		insights:    in,
		redis:       redisClient,
	}
}

// --- Request & Query Structs for Binding ---

type DateRangeQuery struct {
	BranchID  int64  `form:"branch_id" binding:"required"`
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
}

type WeekQuery struct {
	BranchID int64 `form:"branch_id" binding:"required"`
	Week     int   `form:"week" binding:"required"`
	Month    int   `form:"month" binding:"required"`
	Year     int   `form:"year" binding:"required"`
}

type MonthQuery struct {
	BranchID int64 `form:"branch_id" binding:"required"`
	Month    int   `form:"month" binding:"required"`
	Year     int   `form:"year" binding:"required"`
}

type AnomalyQuery struct {
	BranchID         int64   `form:"branch_id" binding:"required"`
	Date             string  `form:"date"`
	LookbackDays     int     `form:"lookback_days"`
	ZScoreThreshold  float64 `form:"z_threshold"`
	ExcludeEmployees bool    `form:"exclude_employees"`
}

type PerformanceQuery struct {
	BranchID int64  `form:"branch_id" binding:"required"`
	Date     string `form:"date"`
}

type TasksQuery struct {
	BranchID int64  `form:"branch_id" binding:"required"`
	Month    int    `form:"month" binding:"required"`
	Year     int    `form:"year" binding:"required"`
	Role     string `form:"role"`
}

type TransitionsQuery struct {
	Status string `form:"status" binding:"required"`
	To     string `form:"to"`
}

type CorrectionRequest struct {
	Operation string `json:"operation" binding:"required"`
	BranchID  int64  `json:"branch_id" binding:"required"`
	Month     int    `json:"month" binding:"required"`
	Year      int    `json:"year" binding:"required"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

// --- Reconciliation ---

func (h *AnalyticsHTTPHandler) ReconcileRevenues(c *gin.Context) {
	var q DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	start, end, err := parseRange(q.StartDate, q.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.reconcile.ReconcileBranchRevenues(c.Request.Context(), q.BranchID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Revenue reconciliation completed", result))
}

func (h *AnalyticsHTTPHandler) ReconcileBonuses(c *gin.Context) {
	var q WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.reconcile.ReconcileBonusCalculations(c.Request.Context(), q.BranchID, q.Week, q.Month, q.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Bonus reconciliation completed", result))
}

func (h *AnalyticsHTTPHandler) ReconcileMonth(c *gin.Context) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	cacheKey := fmt.Sprintf("%s%d:%d:%d", monthReportCachePrefix, q.BranchID, q.Year, q.Month)
	var cached reconcile.MonthResult
	if h.cacheGet(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, successResponse("Month reconciliation completed (cached)", cached))
		return
	}

	result, err := h.reconcile.ReconcileMonth(c.Request.Context(), q.BranchID, q.Month, q.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	h.cacheSet(c.Request.Context(), cacheKey, result)
	c.JSON(http.StatusOK, successResponse("Month reconciliation completed", result))
}

// --- Anomalies ---

func (h *AnalyticsHTTPHandler) DetectAnomalies(c *gin.Context) {
	var q AnomalyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	analysisDate := time.Now().UTC().Truncate(24 * time.Hour)
	if q.Date != "" {
		parsed, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("date must be YYYY-MM-DD"))
			return
		}
		analysisDate = parsed
	}

	opts := anomaly.DefaultOptions()
	if q.LookbackDays > 0 {
		opts.LookbackDays = q.LookbackDays
	}
	if q.ZScoreThreshold > 0 {
		opts.ZScoreThreshold = q.ZScoreThreshold
	}
	opts.IncludeEmployeeLevel = !q.ExcludeEmployees

	result, err := h.anomalies.DetectRevenueAnomalies(c.Request.Context(), q.BranchID, analysisDate, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Anomaly detection completed", result))
}

// --- Fraud ---

func (h *AnalyticsHTTPHandler) DetectFraud(c *gin.Context) {
	var q DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	start, end, err := parseRange(q.StartDate, q.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	cacheKey := fmt.Sprintf("%s%d:%s:%s", fraudReportCachePrefix, q.BranchID, q.StartDate, q.EndDate)
	var cached fraud.Result
	if h.cacheGet(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, successResponse("Fraud scan completed (cached)", cached))
		return
	}

	result, err := h.fraud.DetectFraudPatterns(c.Request.Context(), q.BranchID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	h.cacheSet(c.Request.Context(), cacheKey, result)
	c.JSON(http.StatusOK, successResponse("Fraud scan completed", result))
}

// --- Performance ---

func (h *AnalyticsHTTPHandler) ClassifyPerformance(c *gin.Context) {
	var q PerformanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	analysisDate := time.Now().UTC().Truncate(24 * time.Hour)
	if q.Date != "" {
		parsed, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("date must be YYYY-MM-DD"))
			return
		}
		analysisDate = parsed
	}

	result, err := h.performance.ClassifyBranch(c.Request.Context(), q.BranchID, analysisDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Performance classification completed", result))
}

// --- Workflow ---

func (h *AnalyticsHTTPHandler) PendingTasks(c *gin.Context) {
	var q TasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	role := q.Role
	if role == "" {
		role = c.GetString(middleware.ContextRole)
	}

	tasks, err := h.workflow.PendingTasks(c.Request.Context(), q.BranchID, q.Month, q.Year, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Pending tasks computed", tasks))
}

func (h *AnalyticsHTTPHandler) StatusTransitions(c *gin.Context) {
	var q TransitionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	data := gin.H{
		"status":        q.Status,
		"next_statuses": workflow.NextStatuses(q.Status),
	}
	if q.To != "" {
		data["can_transition_to"] = workflow.CanTransitionTo(q.Status, q.To)
	}
	c.JSON(http.StatusOK, successResponse("Status transitions resolved", data))
}

func (h *AnalyticsHTTPHandler) ComplianceReport(c *gin.Context) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	cacheKey := fmt.Sprintf("%s%d:%d:%d", complianceCachePrefix, q.BranchID, q.Year, q.Month)
	var cached workflow.ComplianceReport
	if h.cacheGet(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, successResponse("Compliance report computed (cached)", cached))
		return
	}

	report, err := h.workflow.GetComplianceReport(c.Request.Context(), q.BranchID, q.Month, q.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	h.cacheSet(c.Request.Context(), cacheKey, report)
	c.JSON(http.StatusOK, successResponse("Compliance report computed", report))
}

// --- Integrity ---

func (h *AnalyticsHTTPHandler) CheckIntegrity(c *gin.Context) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	report, err := h.integrity.CheckDataIntegrity(c.Request.Context(), q.BranchID, q.Month, q.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Integrity check completed", report))
}

func (h *AnalyticsHTTPHandler) RunCorrection(c *gin.Context) {
	var req CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result := h.integrity.ExecuteAutoCorrection(c.Request.Context(), req.Operation, req.BranchID, req.Month, req.Year)

	// Corrections change the numbers behind every cached report.
	h.invalidateBranchCaches(c.Request.Context(), req.BranchID, req.Month, req.Year)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, APIResponse{Success: result.Success, Message: result.Message, Data: result})
}

// --- Insights ---

func (h *AnalyticsHTTPHandler) BranchDigest(c *gin.Context) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	digest, err := h.insights.BranchDigest(c.Request.Context(), q.BranchID, q.Month, q.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Branch digest generated", digest))
}

// --- Cache helpers ---

func (h *AnalyticsHTTPHandler) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if h.redis == nil {
		return false
	}
	raw, err := h.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (h *AnalyticsHTTPHandler) cacheSet(ctx context.Context, key string, value interface{}) {
	if h.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = h.redis.Set(ctx, key, raw, reportCacheTTL).Err()
}

func (h *AnalyticsHTTPHandler) invalidateBranchCaches(ctx context.Context, branchID int64, month, year int) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx,
		fmt.Sprintf("%s%d:%d:%d", monthReportCachePrefix, branchID, year, month),
		fmt.Sprintf("%s%d:%d:%d", complianceCachePrefix, branchID, year, month),
	).Err()
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date is before start_date")
	}
	return start, end, nil
}
