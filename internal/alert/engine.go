// Package alert implements the periodic evaluator at the heart of the
// tracker. On every tick it re-reads the maintenance windows, derives each
// window's lifecycle phase, applies the fixed alert rule set, and emits
// deduplicated notification events to the live view, the rolling history,
// and the external delivery side channel.
//
// The engine owns all of its alert state: the append-only dedup registry,
// the per-record snooze view, the once-per-day digest flag, and both event
// retention windows. It never mutates a maintenance record; operator
// actions go through the storage layer and are picked up on the next tick.
package alert

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/compliance"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/cache"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// RecordSource supplies the current maintenance window set. In production
// this is the PostgreSQL storage layer; in tests, a fixture source. The
// engine trusts whatever set it is given each tick; staleness is the
// supplier's problem, not the evaluator's.
type RecordSource interface {
	GetRecords(ctx context.Context) ([]*models.MaintenanceRecord, error)
}

const (
	// DefaultTickInterval is the cadence of full rule evaluation.
	DefaultTickInterval = 5 * time.Second
	// DefaultHousekeepInterval drives display-clock updates and retention
	// trimming only; no rules fire on it.
	DefaultHousekeepInterval = time.Second

	historyRetention = 10 * time.Minute
	liveRetention    = 20 * time.Second
	snoozeDuration   = 5 * time.Minute
)

// Engine is the periodic alert evaluator. All exported methods are safe for
// concurrent use; rule evaluation itself runs on the single Run goroutine,
// so ticks never overlap.
type Engine struct {
	source    RecordSource
	scheduler *compliance.Scheduler
	notifier  Notifier
	mirror    *cache.Cache
	loc       *time.Location

	// Now supplies the current instant. Tests override it to step through
	// alert windows deterministically.
	Now func() time.Time

	TickInterval      time.Duration
	HousekeepInterval time.Duration

	mu            sync.Mutex
	fired         map[string]bool // append-only dedup registry, never swept
	snoozes       map[string]time.Time
	digestAlerted bool
	history       []models.NotificationEvent
	live          []models.NotificationEvent
}

// NewEngine creates an Engine. mirror may be nil when Redis is unavailable;
// notifier must not be nil (use NopNotifier to discard deliveries).
func NewEngine(source RecordSource, scheduler *compliance.Scheduler, notifier Notifier, mirror *cache.Cache, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		source:            source,
		scheduler:         scheduler,
		notifier:          notifier,
		mirror:            mirror,
		loc:               loc,
		Now:               time.Now,
		TickInterval:      DefaultTickInterval,
		HousekeepInterval: DefaultHousekeepInterval,
		fired:             make(map[string]bool),
		snoozes:           make(map[string]time.Time),
	}
}

// Run drives the evaluation and housekeeping tickers until the context is
// cancelled. Both run on this one goroutine, so a tick always finishes
// before the next one starts. Stopping simply halts future ticks; the
// dedup registry and snooze state die with the engine instance.
func (e *Engine) Run(ctx context.Context) {
	evaluate := time.NewTicker(e.TickInterval)
	defer evaluate.Stop()
	housekeep := time.NewTicker(e.HousekeepInterval)
	defer housekeep.Stop()

	log.Printf("alert: engine running (tick=%s, housekeep=%s, tz=%s)",
		e.TickInterval, e.HousekeepInterval, e.loc)

	for {
		select {
		case <-ctx.Done():
			log.Printf("alert: engine stopped")
			return
		case <-evaluate.C:
			e.EvaluateTick(ctx)
		case <-housekeep.C:
			e.Housekeep()
		}
	}
}

// EvaluateTick runs one full evaluation pass: fresh records, fresh instant,
// per-record rules, then the daily compliance digest. A failed record fetch
// or a malformed record never stops the pass.
func (e *Engine) EvaluateTick(ctx context.Context) {
	records, err := e.source.GetRecords(ctx)
	if err != nil {
		log.Printf("alert: skipping tick, record fetch failed: %v", err)
		return
	}

	now := e.Now()
	for _, rec := range records {
		if !rec.Valid() {
			log.Printf("alert: skipping malformed record %q", rec.ID)
			continue
		}
		e.evaluateRecord(ctx, rec, now)
	}
	e.evaluateDigest(ctx, records, now)
}

// Housekeep trims the rolling history and the live view. The dedup registry
// is deliberately untouched: trimming it would re-arm one-shot alerts.
func (e *Engine) Housekeep() {
	now := e.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = trimOlderThan(e.history, now, historyRetention)
	e.live = trimOlderThan(e.live, now, liveRetention)
}

// Snooze suppresses overdue escalation for the record for the snooze
// duration and retracts its overdue events from the live view. The returned
// instant is what the caller persists as the record's snoozedUntil. Other
// alert kinds are unaffected.
func (e *Engine) Snooze(ctx context.Context, recordID string) time.Time {
	until := e.Now().Add(snoozeDuration)

	e.mu.Lock()
	e.snoozes[recordID] = until

	kept := e.live[:0]
	var retracted []string
	for _, event := range e.live {
		if event.RelatedRecordID == recordID && event.Severity == models.SeverityUrgent {
			retracted = append(retracted, event.ID)
			continue
		}
		kept = append(kept, event)
	}
	e.live = kept
	e.mu.Unlock()

	for _, id := range retracted {
		if err := e.mirror.RetractLive(ctx, id); err != nil {
			log.Printf("alert: retracting mirrored event %s: %v", id, err)
		}
	}

	log.Printf("alert: record %s snoozed until %s", recordID, until.Format(time.RFC3339))
	return until
}

// Live returns a copy of the current live view (events younger than the
// twenty-second self-expiry).
func (e *Engine) Live() []models.NotificationEvent {
	now := e.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.live = trimOlderThan(e.live, now, liveRetention)
	out := make([]models.NotificationEvent, len(e.live))
	copy(out, e.live)
	return out
}

// History returns a copy of the rolling ten-minute history.
func (e *Engine) History() []models.NotificationEvent {
	now := e.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = trimOlderThan(e.history, now, historyRetention)
	out := make([]models.NotificationEvent, len(e.history))
	copy(out, e.history)
	return out
}

// ResetDedup clears the dedup registry and the digest flag. For tests only.
func (e *Engine) ResetDedup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fired = make(map[string]bool)
	e.digestAlerted = false
}

// emit fires one notification event unless its dedup key has already fired.
// Every emitted event lands in both retention windows, gets mirrored to
// Redis, and for anything but success severity goes out the delivery
// side channel.
func (e *Engine) emit(ctx context.Context, dedupKey string, event models.NotificationEvent) {
	e.mu.Lock()
	if e.fired[dedupKey] {
		e.mu.Unlock()
		return
	}
	e.fired[dedupKey] = true

	event.ID = uuid.NewString()
	event.CreatedAt = e.Now()
	e.history = append(e.history, event)
	e.live = append(e.live, event)
	e.mu.Unlock()

	if err := e.mirror.PublishLive(ctx, event); err != nil {
		log.Printf("alert: mirroring event %s: %v", event.ID, err)
	}

	if event.Severity != models.SeveritySuccess {
		if err := e.notifier.Deliver(ctx, event); err != nil {
			log.Printf("alert: delivering event %s: %v", event.ID, err)
		}
	}

	log.Printf("alert: fired %s [%s] %s", dedupKey, event.Severity, event.Title)
}

// snoozeActive reports whether overdue escalation is currently suppressed
// for the record, considering both the persisted snooze and the engine's
// optimistic local view (the persisted field can lag a refresh behind).
func (e *Engine) snoozeActive(rec *models.MaintenanceRecord, now time.Time) bool {
	if rec.SnoozedUntil != nil && now.Before(*rec.SnoozedUntil) {
		return true
	}
	e.mu.Lock()
	until, ok := e.snoozes[rec.ID]
	e.mu.Unlock()
	return ok && now.Before(until)
}

func trimOlderThan(events []models.NotificationEvent, now time.Time, retention time.Duration) []models.NotificationEvent {
	cutoff := now.Add(-retention)
	kept := events[:0]
	for _, event := range events {
		if event.CreatedAt.After(cutoff) {
			kept = append(kept, event)
		}
	}
	return kept
}
