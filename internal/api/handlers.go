// Package api implements the REST API endpoints for the maintenance tracker.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/alert"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/compliance"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/database"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/status"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WindowStore is the persistence surface the handlers operate against.
// *database.DB satisfies it.
type WindowStore interface {
	GetRecords(ctx context.Context) ([]*models.MaintenanceRecord, error)
	GetWindow(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	HasWindowOn(ctx context.Context, provider string, dayStart, dayEnd time.Time) (bool, error)
	InsertWindow(ctx context.Context, rec *models.MaintenanceRecord) error
	ConfirmCompletion(ctx context.Context, id string, at time.Time, by string) error
	UndoCompletion(ctx context.Context, id string) error
	ConfirmCleanup(ctx context.Context, id string, at time.Time, by string) error
	UndoCleanup(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, newEnd *time.Time, untilNotice bool) error
	SetCancellationPending(ctx context.Context, id string, pending bool) error
	ApproveCancel(ctx context.Context, id string) error
	SetDeletionPending(ctx context.Context, id string, pending bool) error
	ApproveDelete(ctx context.Context, id string) error
	SetSnoozedUntil(ctx context.Context, id string, until time.Time) error
}

// Handlers provides REST API endpoint handlers.
type Handlers struct {
	store     WindowStore
	engine    *alert.Engine
	scheduler *compliance.Scheduler
	loc       *time.Location
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store WindowStore, engine *alert.Engine, scheduler *compliance.Scheduler, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{store: store, engine: engine, scheduler: scheduler, loc: loc}
}

// HealthCheck returns the service health status.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "maintenance-tracker",
		"version": "0.1.0",
	})
}

// requireStore returns true if persistence is available, or sends a 503 and returns false.
func (h *Handlers) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return false
	}
	return true
}

// windowView is a maintenance record annotated with its derived phase.
type windowView struct {
	*models.MaintenanceRecord
	Phase           models.Phase `json:"phase"`
	CleanupEligible bool         `json:"cleanup_eligible"`
}

// ListWindows returns all maintenance windows with their derived phase.
func (h *Handlers) ListWindows(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	records, err := h.store.GetRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	views := make([]windowView, 0, len(records))
	for _, rec := range records {
		views = append(views, windowView{
			MaintenanceRecord: rec,
			Phase:             status.Classify(rec, now),
			CleanupEligible:   status.IsCleanupEligible(rec, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(views),
		"data":  views,
	})
}

// GetWindow returns a single maintenance window by ID.
func (h *Handlers) GetWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	rec, err := h.store.GetWindow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, windowView{
		MaintenanceRecord: rec,
		Phase:             status.Classify(rec, now),
		CleanupEligible:   status.IsCleanupEligible(rec, now),
	})
}

// createWindowRequest is the payload for recording a new maintenance window.
type createWindowRequest struct {
	Provider           string      `json:"provider" binding:"required"`
	Kind               models.Kind `json:"kind"`
	StartTime          time.Time   `json:"start_time" binding:"required"`
	EndTime            *time.Time  `json:"end_time"`
	UntilFurtherNotice bool        `json:"until_further_notice"`
	Recorder           string      `json:"recorder"`
}

// CreateWindow records a new maintenance window.
// Validation: the end boundary must be either an explicit end time or
// until-further-notice, never both; a provider can have at most one
// window recorded per local day.
func (h *Handlers) CreateWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	var req createWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req.Provider = strings.TrimSpace(req.Provider)
	if req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider is required"})
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindScheduled
	}
	if !req.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind: " + string(req.Kind)})
		return
	}

	if req.Kind != models.KindCancelled {
		if req.EndTime == nil && !req.UntilFurtherNotice {
			c.JSON(http.StatusBadRequest, gin.H{"error": "either end_time or until_further_notice is required"})
			return
		}
		if req.EndTime != nil && req.UntilFurtherNotice {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_time and until_further_notice are mutually exclusive"})
			return
		}
		if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be after start_time"})
			return
		}
	}

	dayStart := localDayStart(req.StartTime, h.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	exists, err := h.store.HasWindowOn(c.Request.Context(), req.Provider, dayStart, dayEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{
			"error": "a window for this provider is already recorded on " + dayStart.Format("2006-01-02"),
		})
		return
	}

	rec := &models.MaintenanceRecord{
		ID:                 uuid.New().String(),
		Provider:           req.Provider,
		Kind:               req.Kind,
		Status:             models.StatusUpcoming,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		UntilFurtherNotice: req.UntilFurtherNotice,
		Recorder:           req.Recorder,
		CreatedAt:          time.Now(),
	}
	if req.Kind == models.KindCancelled {
		rec.Status = models.StatusCancelled
	}

	if err := h.store.InsertWindow(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// actorRequest carries the operator name for actions that record who acted.
type actorRequest struct {
	By string `json:"by"`
}

// CompleteWindow marks a window's provider work as done.
func (h *Handlers) CompleteWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	var req actorRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.store.ConfirmCompletion(c.Request.Context(), c.Param("id"), time.Now(), req.By); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// UndoComplete reverts a completion confirmation.
func (h *Handlers) UndoComplete(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.UndoCompletion(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completion undone"})
}

// CleanupWindow confirms back-office cleanup for a completed window.
// Rejected while the post-completion cooldown is still running.
func (h *Handlers) CleanupWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	id := c.Param("id")
	rec, err := h.store.GetWindow(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return
	}

	now := time.Now()
	if rec.Status != models.StatusCompleted || rec.CompletionTime == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "window is not completed"})
		return
	}
	if !status.IsCleanupEligible(rec, now) {
		unlockAt := rec.CompletionTime.Add(status.CleanupCooldown)
		c.JSON(http.StatusConflict, gin.H{
			"error":     "cleanup is locked until the cooldown elapses",
			"unlock_at": unlockAt,
		})
		return
	}

	var req actorRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.store.ConfirmCleanup(c.Request.Context(), id, now, req.By); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleanup confirmed"})
}

// UndoCleanup reverts a cleanup confirmation.
func (h *Handlers) UndoCleanup(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.UndoCleanup(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleanup undone"})
}

// extendRequest is the payload for extending a window's end boundary.
type extendRequest struct {
	NewEnd             *time.Time `json:"new_end"`
	UntilFurtherNotice bool       `json:"until_further_notice"`
}

// ExtendWindow pushes a window's end boundary out, or converts it to
// until-further-notice. The window's kind becomes extended_maintenance.
func (h *Handlers) ExtendWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.NewEnd == nil && !req.UntilFurtherNotice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either new_end or until_further_notice is required"})
		return
	}
	if req.NewEnd != nil && req.UntilFurtherNotice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_end and until_further_notice are mutually exclusive"})
		return
	}

	if err := h.store.Extend(c.Request.Context(), c.Param("id"), req.NewEnd, req.UntilFurtherNotice); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "extended"})
}

// RequestCancel flags a window for cancellation, pending approval.
func (h *Handlers) RequestCancel(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.SetCancellationPending(c.Request.Context(), c.Param("id"), true); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancellation pending"})
}

// ApproveCancel finalizes a pending cancellation. Terminal.
func (h *Handlers) ApproveCancel(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.ApproveCancel(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// RequestDelete flags a window for deletion, pending approval.
func (h *Handlers) RequestDelete(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.SetDeletionPending(c.Request.Context(), c.Param("id"), true); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deletion pending"})
}

// ApproveDelete removes a window whose deletion was requested.
func (h *Handlers) ApproveDelete(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	if err := h.store.ApproveDelete(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// SnoozeWindow suppresses overdue alerts for a window for five minutes.
func (h *Handlers) SnoozeWindow(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert engine unavailable"})
		return
	}

	id := c.Param("id")
	if _, err := h.store.GetWindow(c.Request.Context(), id); err != nil {
		h.storeError(c, err)
		return
	}

	until := h.engine.Snooze(c.Request.Context(), id)
	if err := h.store.SetSnoozedUntil(c.Request.Context(), id, until); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "snoozed", "until": until})
}

// LiveNotifications returns notifications from the last 20 seconds.
func (h *Handlers) LiveNotifications(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert engine unavailable"})
		return
	}

	events := h.engine.Live()
	c.JSON(http.StatusOK, gin.H{"count": len(events), "data": events})
}

// NotificationHistory returns notifications from the last 10 minutes.
func (h *Handlers) NotificationHistory(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert engine unavailable"})
		return
	}

	events := h.engine.History()
	c.JSON(http.StatusOK, gin.H{"count": len(events), "data": events})
}

// ComplianceChecklist returns the expected-vs-recorded checklist for a
// local date. Query param: date (YYYY-MM-DD, defaults to tomorrow).
func (h *Handlers) ComplianceChecklist(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "compliance scheduler unavailable"})
		return
	}

	day := time.Now().In(h.loc).AddDate(0, 0, 1)
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'date' format, use YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	records, err := h.store.GetRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := h.scheduler.BuildChecklist(day, records)
	c.JSON(http.StatusOK, gin.H{
		"date":  day.Format("2006-01-02"),
		"count": len(items),
		"data":  items,
	})
}

// storeError maps persistence errors to HTTP responses.
func (h *Handlers) storeError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "maintenance window not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// localDayStart truncates t to midnight in loc.
func localDayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
