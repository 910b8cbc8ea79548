// Package cache provides a Redis-backed mirror of the tracker's transient
// alert state. The live notification view is written with its twenty-second
// self-expiry so dashboard replicas can read it without talking to the
// engine process, and the latest compliance checklist is kept for the same
// reason. The engine remains correct with no Redis at all: a nil client
// turns every operation into a no-op.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// liveTTL matches the live stream's per-event self-expiry.
const liveTTL = 20 * time.Second

// checklistTTL keeps the mirrored checklist until the next daily digest
// run has long since replaced it.
const checklistTTL = 24 * time.Hour

// Cache wraps a Redis client with tracker-specific mirror operations.
type Cache struct {
	client *redis.Client
}

// New creates a Cache connected to the given address. addr is "host:port".
func New(ctx context.Context, addr, password string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to Redis at %s: %w", addr, err)
	}

	log.Printf("cache: connected to Redis at %s", addr)
	return &Cache{client: client}, nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PublishLive mirrors one notification event into the live view. The key
// expires on Redis's side after the live TTL, matching the engine's own
// twenty-second retention.
func (c *Cache) PublishLive(ctx context.Context, event models.NotificationEvent) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("cache: marshaling event %s: %w", event.ID, err)
	}
	key := "live:" + event.ID
	if err := c.client.Set(ctx, key, payload, liveTTL).Err(); err != nil {
		return fmt.Errorf("cache: publishing live event %s: %w", event.ID, err)
	}
	return nil
}

// RetractLive removes a mirrored live event before its TTL runs out, e.g.
// when an operator snoozes the record that triggered it.
func (c *Cache) RetractLive(ctx context.Context, eventID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, "live:"+eventID).Err(); err != nil {
		return fmt.Errorf("cache: retracting live event %s: %w", eventID, err)
	}
	return nil
}

// LiveEvents returns all currently mirrored live events. Expired keys have
// already been dropped by Redis.
func (c *Cache) LiveEvents(ctx context.Context) ([]models.NotificationEvent, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	var events []models.NotificationEvent
	iter := c.client.Scan(ctx, 0, "live:*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := c.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("cache: reading live event %s: %w", iter.Val(), err)
		}
		var event models.NotificationEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("cache: skipping undecodable live event %s: %v", iter.Val(), err)
			continue
		}
		events = append(events, event)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cache: scanning live events: %w", err)
	}
	return events, nil
}

// SetChecklist mirrors the most recent compliance checklist for a date.
func (c *Cache) SetChecklist(ctx context.Context, date string, items []models.ComplianceChecklistItem) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: marshaling checklist for %s: %w", date, err)
	}
	if err := c.client.Set(ctx, "checklist:"+date, payload, checklistTTL).Err(); err != nil {
		return fmt.Errorf("cache: storing checklist for %s: %w", date, err)
	}
	return nil
}

// GetChecklist returns the mirrored checklist for a date, or nil when none
// is cached.
func (c *Cache) GetChecklist(ctx context.Context, date string) ([]models.ComplianceChecklistItem, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	payload, err := c.client.Get(ctx, "checklist:"+date).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: reading checklist for %s: %w", date, err)
	}
	var items []models.ComplianceChecklistItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("cache: decoding checklist for %s: %w", date, err)
	}
	return items, nil
}
