// Package models defines the core data structures used across the
// IC Duty Maintenance Tracker.
//
// The tracker follows provider maintenance windows through their lifecycle
// and turns elapsed wall-clock time into duty-operator alerts. These models
// represent the maintenance windows themselves, the notification events the
// alert engine emits, and the compliance checklist items the scheduler
// produces for recurring provider checks.
package models

import "time"

// Kind categorizes a maintenance window.
type Kind string

const (
	KindScheduled   Kind = "scheduled"
	KindUrgent      Kind = "urgent"
	KindExtended    Kind = "extended_maintenance"
	KindCancelled   Kind = "cancelled"
	KindPartOfGame  Kind = "part_of_game"
)

// Valid reports whether k is one of the known window kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindScheduled, KindUrgent, KindExtended, KindCancelled, KindPartOfGame:
		return true
	}
	return false
}

// Status is the coarse persisted state of a maintenance window.
// The fine-grained lifecycle phase is derived per evaluation, never stored.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Phase is the derived lifecycle phase of a maintenance window at a given
// instant. It is computed by the status classifier and never persisted.
type Phase string

const (
	PhasePendingDelete    Phase = "pending_delete"
	PhasePendingCancel    Phase = "pending_cancel"
	PhaseCancelled        Phase = "cancelled"
	PhaseBoCleanupPending Phase = "bo_cleanup_pending"
	PhaseCompletedFinal   Phase = "completed_final"
	PhaseUpcoming         Phase = "upcoming"
	PhaseActionRequired   Phase = "action_required"
	PhaseOngoing          Phase = "ongoing"
)

// Severity indicates the urgency of a notification event.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityUrgent  Severity = "urgent"
	SeverityError   Severity = "error"
)

// MaintenanceRecord represents one provider maintenance window.
//
// EndTime is nil exactly when the window runs until further notice or the
// kind is cancelled. CompletionTime is set exactly when Status is completed.
// BoDeleted may only be true on a completed window. The pending flags are
// advisory approval gates; the record stays live until an approval action
// flips Status or destroys the row.
type MaintenanceRecord struct {
	ID                  string     `json:"id" db:"id"`
	Provider            string     `json:"provider" db:"provider"`
	Kind                Kind       `json:"kind" db:"kind"`
	StartTime           time.Time  `json:"start_time" db:"start_time"`
	EndTime             *time.Time `json:"end_time,omitempty" db:"end_time"`
	UntilFurtherNotice  bool       `json:"until_further_notice" db:"until_further_notice"`
	Status              Status     `json:"status" db:"status"`
	CompletionTime      *time.Time `json:"completion_time,omitempty" db:"completion_time"`
	CompletedBy         string     `json:"completed_by,omitempty" db:"completed_by"`
	BoDeleted           bool       `json:"bo_deleted" db:"bo_deleted"`
	BoDeletedBy         string     `json:"bo_deleted_by,omitempty" db:"bo_deleted_by"`
	BoDeletedAt         *time.Time `json:"bo_deleted_at,omitempty" db:"bo_deleted_at"`
	CancellationPending bool       `json:"cancellation_pending" db:"cancellation_pending"`
	DeletionPending     bool       `json:"deletion_pending" db:"deletion_pending"`
	SnoozedUntil        *time.Time `json:"snoozed_until,omitempty" db:"snoozed_until"`
	Recorder            string     `json:"recorder" db:"recorder"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// HasFixedEnd reports whether the window has a concrete end time to alert
// against. Until-further-notice windows never self-escalate on time alone.
func (r *MaintenanceRecord) HasFixedEnd() bool {
	return r.EndTime != nil && !r.UntilFurtherNotice
}

// Valid performs a structural sanity check against the record invariants.
// The alert engine skips records that fail this check rather than aborting
// the evaluation tick.
func (r *MaintenanceRecord) Valid() bool {
	if r.ID == "" || r.Provider == "" {
		return false
	}
	if r.StartTime.IsZero() {
		return false
	}
	if r.EndTime == nil && !r.UntilFurtherNotice && r.Kind != KindCancelled {
		return false
	}
	if (r.Status == StatusCompleted) != (r.CompletionTime != nil) {
		return false
	}
	if r.BoDeleted && r.Status != StatusCompleted {
		return false
	}
	return true
}

// NotificationEvent is one alert emitted by the engine. Events are owned by
// whichever sink consumes them; the engine itself only guarantees a rolling
// ten-minute history and a twenty-second live view.
type NotificationEvent struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Severity        Severity  `json:"severity"`
	CopyText        string    `json:"copy_text,omitempty"`
	RelatedRecordID string    `json:"related_record_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ComplianceStatus is the outcome of one compliance checklist entry.
type ComplianceStatus string

const (
	ComplianceOK      ComplianceStatus = "ok"
	ComplianceMissing ComplianceStatus = "missing"
)

// ComplianceChecklistItem is one recurring provider check matched (or not)
// against the current record set for a calendar date.
type ComplianceChecklistItem struct {
	Provider        string           `json:"provider"`
	Status          ComplianceStatus `json:"status"`
	MatchedRecordID string           `json:"matched_record_id,omitempty"`
	Note            string           `json:"note,omitempty"`
}
