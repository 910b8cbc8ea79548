package alert

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/compliance"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/status"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

const (
	// preEndWarning fires when the remaining window drops into (25m, 30m].
	preEndWarning = 30 * time.Minute
	preEndFloor   = 25 * time.Minute

	// graceWindow is the post-end period where a gentle completion check
	// fires before escalation starts.
	graceWindow = 5 * time.Minute

	// cleanupReminderWindow bounds the one-shot BO cleanup reminder after
	// the cooldown unlocks.
	cleanupReminderWindow = 5 * time.Minute

	// shiftWindow is how long after a shift boundary the handover check
	// keeps firing for windows that predate the boundary.
	shiftWindow = 45 * time.Minute

	digestHour      = 9
	digestResetHour = 1
)

// shiftBoundaries are the duty handover times, in the reference timezone.
var shiftBoundaries = []struct {
	label  string
	hour   int
	minute int
}{
	{"07:00", 7, 0},
	{"14:45", 14, 45},
	{"22:45", 22, 45},
}

// evaluateRecord applies every per-record alert rule to one window.
// Each rule is independent; a record can fire several kinds in one tick.
func (e *Engine) evaluateRecord(ctx context.Context, rec *models.MaintenanceRecord, now time.Time) {
	e.checkCleanupReminder(ctx, rec, now)
	e.checkShiftHandover(ctx, rec, now)
	e.checkFixedEnd(ctx, rec, now)
}

// checkCleanupReminder fires once when a completed window's BO cleanup
// cooldown unlocks.
func (e *Engine) checkCleanupReminder(ctx context.Context, rec *models.MaintenanceRecord, now time.Time) {
	if rec.Status != models.StatusCompleted || rec.BoDeleted || rec.CompletionTime == nil {
		return
	}

	unlocked := rec.CompletionTime.Add(status.CleanupCooldown)
	since := now.Sub(unlocked)
	if since < 0 || since >= cleanupReminderWindow {
		return
	}

	e.emit(ctx, dedupKey(rec.ID, "cleanup"), models.NotificationEvent{
		Title:           "BO cleanup due",
		Message:         fmt.Sprintf("%s completed over two hours ago, remove the BO announcement.", rec.Provider),
		Severity:        models.SeverityWarning,
		RelatedRecordID: rec.ID,
	})
}

// checkShiftHandover fires once per shift boundary per local day for
// until-further-notice windows that were already open before the boundary.
// These windows never self-escalate by status, so the handover check is
// what keeps them from being forgotten across shifts.
func (e *Engine) checkShiftHandover(ctx context.Context, rec *models.MaintenanceRecord, now time.Time) {
	if !rec.UntilFurtherNotice {
		return
	}
	if rec.Status == models.StatusCompleted || rec.Status == models.StatusCancelled {
		return
	}

	localNow := now.In(e.loc)
	year, month, day := localNow.Date()
	localDate := localNow.Format("2006-01-02")

	for _, boundary := range shiftBoundaries {
		instant := time.Date(year, month, day, boundary.hour, boundary.minute, 0, 0, e.loc)
		since := localNow.Sub(instant)
		if since < 0 || since >= shiftWindow {
			continue
		}
		if !rec.StartTime.Before(instant) {
			continue
		}

		e.emit(ctx, dedupKey(rec.ID, "shift", boundary.label, localDate),
			models.NotificationEvent{
				Title:           "Shift handover check",
				Message:         fmt.Sprintf("%s is still under maintenance until further notice, confirm status with the provider at handover.", rec.Provider),
				Severity:        models.SeverityWarning,
				CopyText:        fmt.Sprintf("Handover note: %s maintenance ongoing (until further notice) since %s.", rec.Provider, rec.StartTime.In(e.loc).Format("Jan 2 15:04")),
				RelatedRecordID: rec.ID,
			})
	}
}

// checkFixedEnd covers the three end-time driven kinds for windows with a
// concrete end: the 30-minute warning, the grace-period confirmation, and
// the per-minute overdue escalation.
func (e *Engine) checkFixedEnd(ctx context.Context, rec *models.MaintenanceRecord, now time.Time) {
	if !rec.HasFixedEnd() {
		return
	}
	if rec.Status == models.StatusCompleted || rec.Status == models.StatusCancelled {
		return
	}

	end := *rec.EndTime

	if remaining := end.Sub(now); remaining > preEndFloor && remaining <= preEndWarning {
		e.emit(ctx, dedupKey(rec.ID, "30min"), models.NotificationEvent{
			Title:           "Maintenance ending soon",
			Message:         fmt.Sprintf("%s is due to finish at %s (under 30 minutes).", rec.Provider, end.In(e.loc).Format("15:04")),
			Severity:        models.SeverityWarning,
			RelatedRecordID: rec.ID,
		})
	}

	past := now.Sub(end)
	if past > 0 && past <= graceWindow {
		e.emit(ctx, dedupKey(rec.ID, "grace"), models.NotificationEvent{
			Title:           "Maintenance window ended",
			Message:         fmt.Sprintf("%s passed its end time at %s, confirm completion or extend.", rec.Provider, end.In(e.loc).Format("15:04")),
			Severity:        models.SeverityWarning,
			RelatedRecordID: rec.ID,
		})
	}

	if past > graceWindow && !e.snoozeActive(rec, now) {
		// One epoch per elapsed wall-clock minute keeps the nag firing
		// indefinitely until the window is resolved or snoozed.
		epoch := now.Unix() / 60
		e.emit(ctx, dedupKey(rec.ID, "overdue", fmt.Sprintf("%d", epoch)),
			models.NotificationEvent{
				Title:           "Maintenance overdue",
				Message:         fmt.Sprintf("%s is %s past its end time with no completion recorded.", rec.Provider, past.Round(time.Minute)),
				Severity:        models.SeverityUrgent,
				RelatedRecordID: rec.ID,
			})
	}
}

// evaluateDigest runs the once-per-day compliance digest. From 09:00 local
// the engine checks tomorrow's recurring provider windows; whatever the
// outcome, the day is marked as digested so the alert cannot repeat. The
// flag re-arms when the local hour rolls past 01:00.
func (e *Engine) evaluateDigest(ctx context.Context, records []*models.MaintenanceRecord, now time.Time) {
	localNow := now.In(e.loc)
	hour := localNow.Hour()

	e.mu.Lock()
	if hour == digestResetHour {
		e.digestAlerted = false
	}
	alreadyAlerted := e.digestAlerted
	e.mu.Unlock()

	if hour < digestHour || alreadyAlerted {
		return
	}

	tomorrow := localNow.AddDate(0, 0, 1)
	items := e.scheduler.BuildChecklist(tomorrow, records)
	tomorrowDate := tomorrow.Format("2006-01-02")

	if err := e.mirror.SetChecklist(ctx, tomorrowDate, items); err != nil {
		log.Printf("alert: mirroring checklist for %s: %v", tomorrowDate, err)
	}

	if missing := compliance.MissingProviders(items); len(missing) > 0 {
		e.emit(ctx, dedupKey("digest", tomorrowDate), models.NotificationEvent{
			Title:    "Tomorrow's maintenance not recorded",
			Message:  fmt.Sprintf("No entry yet for: %s. Record the recurring windows before end of shift.", strings.Join(missing, ", ")),
			Severity: models.SeverityWarning,
		})
	}

	e.mu.Lock()
	e.digestAlerted = true
	e.mu.Unlock()
}

// dedupKey builds the composite registry key for one logical alert.
func dedupKey(parts ...string) string {
	return strings.Join(parts, "|")
}
