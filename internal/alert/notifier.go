package alert

import (
	"context"
	"log"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// Notifier delivers notification events to a side channel outside the
// tracker itself, such as a chat webhook or the desk's notification
// bridge. The engine calls it for every emitted event except
// success-severity ones.
type Notifier interface {
	Deliver(ctx context.Context, event models.NotificationEvent) error
}

// LogNotifier writes events to the process log. It is the default delivery
// channel when no external bridge is configured.
type LogNotifier struct{}

// Deliver logs the event and never fails.
func (LogNotifier) Deliver(_ context.Context, event models.NotificationEvent) error {
	log.Printf("notify: [%s] %s: %s", event.Severity, event.Title, event.Message)
	return nil
}

// NopNotifier discards all events. Useful in tests that only inspect the
// engine's own state.
type NopNotifier struct{}

// Deliver discards the event.
func (NopNotifier) Deliver(_ context.Context, _ models.NotificationEvent) error { return nil }
