package status

import (
	"testing"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

var (
	base  = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	start = base
)

func fixedWindow(end time.Time) *models.MaintenanceRecord {
	return &models.MaintenanceRecord{
		ID:        "mw-1",
		Provider:  "SA Gaming",
		Kind:      models.KindScheduled,
		StartTime: start,
		EndTime:   &end,
		Status:    models.StatusOngoing,
	}
}

func TestClassify_DeletionPendingWinsOverEverything(t *testing.T) {
	completion := base.Add(time.Hour)
	rec := &models.MaintenanceRecord{
		ID:                  "mw-1",
		Provider:            "SA Gaming",
		Kind:                models.KindScheduled,
		StartTime:           start,
		Status:              models.StatusCompleted,
		CompletionTime:      &completion,
		BoDeleted:           true,
		CancellationPending: true,
		DeletionPending:     true,
	}

	if got := Classify(rec, base.Add(2*time.Hour)); got != models.PhasePendingDelete {
		t.Errorf("expected pending_delete, got %s", got)
	}
}

func TestClassify_CancelledBeatsPendingCancel(t *testing.T) {
	rec := &models.MaintenanceRecord{
		ID:                  "mw-1",
		Provider:            "SA Gaming",
		Kind:                models.KindCancelled,
		StartTime:           start,
		Status:              models.StatusCancelled,
		CancellationPending: true,
	}

	if got := Classify(rec, base); got != models.PhaseCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}
}

func TestClassify_PendingCancelBeforeApproval(t *testing.T) {
	end := base.Add(time.Hour)
	rec := fixedWindow(end)
	rec.CancellationPending = true

	if got := Classify(rec, base.Add(30*time.Minute)); got != models.PhasePendingCancel {
		t.Errorf("expected pending_cancel, got %s", got)
	}
}

func TestClassify_CompletedSplitsOnBoCleanup(t *testing.T) {
	completion := base.Add(time.Hour)
	rec := &models.MaintenanceRecord{
		ID:             "mw-1",
		Provider:       "SA Gaming",
		Kind:           models.KindScheduled,
		StartTime:      start,
		Status:         models.StatusCompleted,
		CompletionTime: &completion,
	}

	if got := Classify(rec, completion.Add(time.Minute)); got != models.PhaseBoCleanupPending {
		t.Errorf("expected bo_cleanup_pending, got %s", got)
	}

	rec.BoDeleted = true
	if got := Classify(rec, completion.Add(time.Minute)); got != models.PhaseCompletedFinal {
		t.Errorf("expected completed_final, got %s", got)
	}
}

func TestClassify_TimeDerivedPhases(t *testing.T) {
	end := base.Add(time.Hour)
	rec := fixedWindow(end)

	if got := Classify(rec, base.Add(-time.Minute)); got != models.PhaseUpcoming {
		t.Errorf("before start: expected upcoming, got %s", got)
	}
	if got := Classify(rec, base.Add(30*time.Minute)); got != models.PhaseOngoing {
		t.Errorf("inside window: expected ongoing, got %s", got)
	}
	if got := Classify(rec, end.Add(time.Minute)); got != models.PhaseActionRequired {
		t.Errorf("past end: expected action_required, got %s", got)
	}
}

func TestClassify_UntilFurtherNoticeStaysOngoing(t *testing.T) {
	rec := &models.MaintenanceRecord{
		ID:                 "mw-1",
		Provider:           "SA Gaming",
		Kind:               models.KindUrgent,
		StartTime:          start,
		UntilFurtherNotice: true,
		Status:             models.StatusOngoing,
	}

	// No fixed end: even days later the phase stays ongoing.
	if got := Classify(rec, base.Add(72*time.Hour)); got != models.PhaseOngoing {
		t.Errorf("expected ongoing, got %s", got)
	}
}

func TestIsCleanupEligible_CooldownBoundary(t *testing.T) {
	completion := base
	rec := &models.MaintenanceRecord{
		ID:             "mw-1",
		Provider:       "SA Gaming",
		Kind:           models.KindScheduled,
		StartTime:      start.Add(-2 * time.Hour),
		Status:         models.StatusCompleted,
		CompletionTime: &completion,
	}

	if IsCleanupEligible(rec, completion.Add(119*time.Minute)) {
		t.Error("expected cleanup locked at completion+119m")
	}
	if !IsCleanupEligible(rec, completion.Add(120*time.Minute)) {
		t.Error("expected cleanup unlocked at completion+120m")
	}
}

func TestIsCleanupEligible_NoCompletionTime(t *testing.T) {
	rec := fixedWindow(base.Add(time.Hour))
	if IsCleanupEligible(rec, base.Add(24*time.Hour)) {
		t.Error("expected ineligible without a completion time")
	}
}
