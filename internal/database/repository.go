package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// ErrNotFound is returned when an operator action targets a window that no
// longer exists or is no longer in a state the action applies to.
var ErrNotFound = errors.New("maintenance window not found or not actionable")

const windowColumns = `
	id, provider, kind, start_time, end_time, until_further_notice,
	status, completion_time, completed_by,
	bo_deleted, bo_deleted_by, bo_deleted_at,
	cancellation_pending, deletion_pending, snoozed_until, recorder, created_at
`

func scanWindow(row pgx.Row) (*models.MaintenanceRecord, error) {
	var rec models.MaintenanceRecord
	err := row.Scan(
		&rec.ID, &rec.Provider, &rec.Kind, &rec.StartTime, &rec.EndTime, &rec.UntilFurtherNotice,
		&rec.Status, &rec.CompletionTime, &rec.CompletedBy,
		&rec.BoDeleted, &rec.BoDeletedBy, &rec.BoDeletedAt,
		&rec.CancellationPending, &rec.DeletionPending, &rec.SnoozedUntil, &rec.Recorder, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecords returns the full window set ordered by start time. This is the
// alert engine's per-tick read; it deliberately includes completed and
// cancelled windows since several alert rules apply to them.
func (db *DB) GetRecords(ctx context.Context) ([]*models.MaintenanceRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM maintenance_windows
		ORDER BY start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	defer rows.Close()

	var records []*models.MaintenanceRecord
	for rows.Next() {
		rec, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading windows: %w", err)
	}
	return records, nil
}

// GetWindow returns a single window by ID.
func (db *DB) GetWindow(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	rec, err := scanWindow(db.Pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM maintenance_windows
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching window %s: %w", id, err)
	}
	return rec, nil
}

// HasWindowOn reports whether any window for the provider starts inside the
// given instant range. The create handler uses it for duplicate
// provider-plus-day detection before a new entry is accepted.
func (db *DB) HasWindowOn(ctx context.Context, provider string, dayStart, dayEnd time.Time) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM maintenance_windows
		WHERE LOWER(provider) = LOWER($1)
		  AND start_time >= $2 AND start_time < $3
	`, provider, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking duplicate window: %w", err)
	}
	return count > 0, nil
}

// InsertWindow stores a new maintenance window.
func (db *DB) InsertWindow(ctx context.Context, rec *models.MaintenanceRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO maintenance_windows (
			id, provider, kind, start_time, end_time, until_further_notice,
			status, recorder, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rec.ID, rec.Provider, rec.Kind, rec.StartTime, rec.EndTime, rec.UntilFurtherNotice,
		rec.Status, rec.Recorder, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting window: %w", err)
	}
	return nil
}

// ConfirmCompletion marks a live window as completed. Already completed or
// cancelled windows are not actionable.
func (db *DB) ConfirmCompletion(ctx context.Context, id string, at time.Time, by string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET status = 'completed', completion_time = $2, completed_by = $3
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
	`, id, at, by)
	if err != nil {
		return fmt.Errorf("confirming completion of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UndoCompletion reverses a completion (admin action). The window returns
// to ongoing with cleanup state cleared.
func (db *DB) UndoCompletion(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET status = 'ongoing', completion_time = NULL, completed_by = '',
		    bo_deleted = FALSE, bo_deleted_by = '', bo_deleted_at = NULL
		WHERE id = $1 AND status = 'completed'
	`, id)
	if err != nil {
		return fmt.Errorf("undoing completion of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmCleanup records the BO announcement removal on a completed window.
func (db *DB) ConfirmCleanup(ctx context.Context, id string, at time.Time, by string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET bo_deleted = TRUE, bo_deleted_by = $3, bo_deleted_at = $2
		WHERE id = $1 AND status = 'completed' AND bo_deleted = FALSE
	`, id, at, by)
	if err != nil {
		return fmt.Errorf("confirming cleanup of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UndoCleanup reverses a BO cleanup confirmation (admin action).
func (db *DB) UndoCleanup(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET bo_deleted = FALSE, bo_deleted_by = '', bo_deleted_at = NULL
		WHERE id = $1 AND bo_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("undoing cleanup of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Extend pushes the window's end out. With untilNotice the fixed end is
// cleared entirely; otherwise newEnd replaces it. Either way the kind flips
// to extended maintenance.
func (db *DB) Extend(ctx context.Context, id string, newEnd *time.Time, untilNotice bool) error {
	var tag pgconn.CommandTag
	var err error
	if untilNotice {
		tag, err = db.Pool.Exec(ctx, `
			UPDATE maintenance_windows
			SET end_time = NULL, until_further_notice = TRUE, kind = 'extended_maintenance'
			WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		`, id)
	} else {
		tag, err = db.Pool.Exec(ctx, `
			UPDATE maintenance_windows
			SET end_time = $2, until_further_notice = FALSE, kind = 'extended_maintenance'
			WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		`, id, newEnd)
	}
	if err != nil {
		return fmt.Errorf("extending window %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCancellationPending flags or clears the cancellation approval gate.
func (db *DB) SetCancellationPending(ctx context.Context, id string, pending bool) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET cancellation_pending = $2
		WHERE id = $1 AND status != 'cancelled'
	`, id, pending)
	if err != nil {
		return fmt.Errorf("setting cancellation gate on %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApproveCancel flips the window to its terminal cancelled status.
func (db *DB) ApproveCancel(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET status = 'cancelled', cancellation_pending = FALSE
		WHERE id = $1 AND status != 'cancelled'
	`, id)
	if err != nil {
		return fmt.Errorf("approving cancellation of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDeletionPending flags or clears the deletion approval gate.
func (db *DB) SetDeletionPending(ctx context.Context, id string, pending bool) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET deletion_pending = $2
		WHERE id = $1
	`, id, pending)
	if err != nil {
		return fmt.Errorf("setting deletion gate on %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApproveDelete destroys the window row.
func (db *DB) ApproveDelete(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM maintenance_windows WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deleting window %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSnoozedUntil persists the overdue-escalation snooze instant.
func (db *DB) SetSnoozedUntil(ctx context.Context, id string, until time.Time) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE maintenance_windows
		SET snoozed_until = $2
		WHERE id = $1
	`, id, until)
	if err != nil {
		return fmt.Errorf("snoozing window %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
