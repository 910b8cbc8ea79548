// Package status derives the lifecycle phase of a maintenance window from
// its persisted fields and the current instant.
//
// Classification is a pure function over well-formed records: the persisted
// coarse status, the approval-gate flags, and wall-clock position relative
// to the window boundaries collapse into a single phase. Precedence is
// fixed: approval gates outrank terminal states, which outrank time-derived
// phases. Callers can rely on the first matching rule winning.
package status

import (
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// CleanupCooldown is how long after completion the BO cleanup action stays
// locked. Announcements are left up long enough for players to catch up.
const CleanupCooldown = 120 * time.Minute

// Classify returns the derived phase of the record at the given instant.
// The function is total: malformed records are a caller-side precondition
// violation, not a runtime error, and still map onto some phase.
func Classify(rec *models.MaintenanceRecord, now time.Time) models.Phase {
	if rec.DeletionPending {
		return models.PhasePendingDelete
	}
	if rec.Status == models.StatusCancelled {
		return models.PhaseCancelled
	}
	if rec.CancellationPending {
		return models.PhasePendingCancel
	}
	if rec.Status == models.StatusCompleted {
		if !rec.BoDeleted {
			return models.PhaseBoCleanupPending
		}
		return models.PhaseCompletedFinal
	}

	if now.Before(rec.StartTime) {
		return models.PhaseUpcoming
	}
	// Until-further-notice windows never self-escalate past ongoing; the
	// shift-handover alerts carry the escalation for that case.
	if rec.EndTime != nil && now.After(*rec.EndTime) {
		return models.PhaseActionRequired
	}
	return models.PhaseOngoing
}

// IsCleanupEligible reports whether the BO cleanup confirmation is unlocked
// for a completed record. Before the cooldown elapses the action is locked;
// no alert is tied to the lock itself.
func IsCleanupEligible(rec *models.MaintenanceRecord, now time.Time) bool {
	if rec.CompletionTime == nil {
		return false
	}
	return now.Sub(*rec.CompletionTime) >= CleanupCooldown
}
