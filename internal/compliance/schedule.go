// Package compliance expands the recurring provider-check table into daily
// checklists and matches it against the recorded maintenance windows.
//
// Providers run routine maintenance on fixed weekdays. The duty desk is
// expected to have an entry recorded for each of tomorrow's recurring checks
// by 09:00 local time; the scheduler produces the checklist the daily digest
// alert is built from. Matching is deliberately loose, case-insensitive
// substring in either direction with the first match winning, because operators type
// provider names free-form.
package compliance

import (
	"strings"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

// Recurrence defines how often a provider check repeats.
type Recurrence string

const (
	// RecurWeekly repeats every week on the rule's weekday.
	RecurWeekly Recurrence = "weekly"
	// RecurFirstMonday repeats only on the first Monday of each month.
	RecurFirstMonday Recurrence = "first_monday_of_month"
)

// Rule is one recurring provider maintenance check.
type Rule struct {
	Provider   string     `json:"provider"`
	Recurrence Recurrence `json:"recurrence"`
	Note       string     `json:"note,omitempty"`
	StatusLink string     `json:"status_link,omitempty"`
}

// DefaultRules is the provider maintenance calendar, keyed by weekday.
// First-Monday rules live under Monday and are filtered by day of month
// during expansion.
var DefaultRules = map[time.Weekday][]Rule{
	time.Monday: {
		{Provider: "SA Gaming", Recurrence: RecurWeekly, Note: "full platform window 07:00-12:00"},
		{Provider: "Kingmaker", Recurrence: RecurFirstMonday, Note: "monthly table rotation"},
	},
	time.Tuesday: {
		{Provider: "Evolution", Recurrence: RecurWeekly, StatusLink: "https://status.evolution.com"},
		{Provider: "WM Casino", Recurrence: RecurWeekly},
	},
	time.Wednesday: {
		{Provider: "AWC", Recurrence: RecurWeekly, Note: "covers Sexy Baccarat lobbies"},
		{Provider: "PG Soft", Recurrence: RecurWeekly},
	},
	time.Thursday: {
		{Provider: "Pragmatic Play", Recurrence: RecurWeekly},
	},
	time.Friday: {
		{Provider: "Dream Gaming", Recurrence: RecurWeekly},
		{Provider: "Playtech", Recurrence: RecurWeekly, StatusLink: "https://status.playtech.com"},
	},
}

// Scheduler expands the rule table for concrete dates and builds checklists
// against the current record set. All calendar math happens in the injected
// reference location.
type Scheduler struct {
	rules map[time.Weekday][]Rule
	loc   *time.Location
}

// NewScheduler creates a Scheduler over the given rule table. A nil table
// uses DefaultRules.
func NewScheduler(rules map[time.Weekday][]Rule, loc *time.Location) *Scheduler {
	if rules == nil {
		rules = DefaultRules
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{rules: rules, loc: loc}
}

// ExpandRules returns the checks that apply to the given date: every weekly
// rule for that weekday, plus first-Monday rules when the date is a Monday
// falling on the 1st through the 7th.
func (s *Scheduler) ExpandRules(date time.Time) []Rule {
	local := date.In(s.loc)
	candidates := s.rules[local.Weekday()]

	expanded := make([]Rule, 0, len(candidates))
	for _, rule := range candidates {
		switch rule.Recurrence {
		case RecurWeekly:
			expanded = append(expanded, rule)
		case RecurFirstMonday:
			if local.Weekday() == time.Monday && local.Day() <= 7 {
				expanded = append(expanded, rule)
			}
		}
	}
	return expanded
}

// BuildChecklist matches each expanded rule for the date against the record
// set. A record matches when its provider name substring-matches the rule's
// provider (either direction, case-insensitive) and its start time falls on
// the same calendar date in the reference location. First match found wins;
// ties between partially matching records are not reconciled.
func (s *Scheduler) BuildChecklist(date time.Time, records []*models.MaintenanceRecord) []models.ComplianceChecklistItem {
	local := date.In(s.loc)
	rules := s.ExpandRules(date)

	items := make([]models.ComplianceChecklistItem, 0, len(rules))
	for _, rule := range rules {
		item := models.ComplianceChecklistItem{
			Provider: rule.Provider,
			Status:   models.ComplianceMissing,
			Note:     rule.Note,
		}
		for _, rec := range records {
			if !providerMatches(rule.Provider, rec.Provider) {
				continue
			}
			if !sameLocalDate(rec.StartTime.In(s.loc), local) {
				continue
			}
			item.Status = models.ComplianceOK
			item.MatchedRecordID = rec.ID
			break
		}
		items = append(items, item)
	}
	return items
}

// MissingProviders returns the provider names of all checklist items still
// missing a recorded window.
func MissingProviders(items []models.ComplianceChecklistItem) []string {
	var missing []string
	for _, item := range items {
		if item.Status == models.ComplianceMissing {
			missing = append(missing, item.Provider)
		}
	}
	return missing
}

// providerMatches reports whether one name contains the other,
// case-insensitively. "AWC" matches a record named "AWC Gaming" and the
// other way around.
func providerMatches(ruleName, recordName string) bool {
	a := strings.ToLower(strings.TrimSpace(ruleName))
	b := strings.ToLower(strings.TrimSpace(recordName))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func sameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
