package compliance

import (
	"testing"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/models"
)

func shanghaiLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("loading reference timezone: %v", err)
	}
	return loc
}

func testRules() map[time.Weekday][]Rule {
	return map[time.Weekday][]Rule{
		time.Monday: {
			{Provider: "SA Gaming", Recurrence: RecurWeekly},
			{Provider: "Kingmaker", Recurrence: RecurFirstMonday},
		},
		time.Wednesday: {
			{Provider: "AWC", Recurrence: RecurWeekly},
		},
	}
}

func TestExpandRules_WeeklyOnly(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	// 2024-06-12 is a Wednesday.
	wed := time.Date(2024, 6, 12, 0, 0, 0, 0, loc)
	rules := s.ExpandRules(wed)

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Provider != "AWC" {
		t.Errorf("expected AWC, got %s", rules[0].Provider)
	}
}

func TestExpandRules_FirstMondayIncluded(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	// 2024-06-03 is the first Monday of June.
	mon := time.Date(2024, 6, 3, 0, 0, 0, 0, loc)
	rules := s.ExpandRules(mon)

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
}

func TestExpandRules_LaterMondayExcluded(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	// 2024-07-08 is a Monday on the 8th: past the first-Monday window.
	mon := time.Date(2024, 7, 8, 0, 0, 0, 0, loc)
	rules := s.ExpandRules(mon)

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Provider != "SA Gaming" {
		t.Errorf("expected SA Gaming only, got %s", rules[0].Provider)
	}
}

func TestBuildChecklist_MatchOnSameLocalDate(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	wed := time.Date(2024, 6, 12, 0, 0, 0, 0, loc)
	records := []*models.MaintenanceRecord{
		{
			ID:        "mw-awc",
			Provider:  "AWC Gaming",
			Kind:      models.KindScheduled,
			StartTime: time.Date(2024, 6, 12, 10, 0, 0, 0, loc),
			Status:    models.StatusUpcoming,
		},
	}

	items := s.BuildChecklist(wed, records)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Status != models.ComplianceOK {
		t.Errorf("expected ok, got %s", items[0].Status)
	}
	if items[0].MatchedRecordID != "mw-awc" {
		t.Errorf("expected matched record mw-awc, got %q", items[0].MatchedRecordID)
	}
}

func TestBuildChecklist_MissingWithoutRecord(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	wed := time.Date(2024, 6, 12, 0, 0, 0, 0, loc)
	items := s.BuildChecklist(wed, nil)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Status != models.ComplianceMissing {
		t.Errorf("expected missing, got %s", items[0].Status)
	}
	if items[0].MatchedRecordID != "" {
		t.Errorf("expected no matched record, got %q", items[0].MatchedRecordID)
	}
}

func TestBuildChecklist_DifferentDateDoesNotMatch(t *testing.T) {
	loc := shanghaiLoc(t)
	s := NewScheduler(testRules(), loc)

	wed := time.Date(2024, 6, 12, 0, 0, 0, 0, loc)
	records := []*models.MaintenanceRecord{
		{
			ID:        "mw-awc",
			Provider:  "AWC Gaming",
			Kind:      models.KindScheduled,
			StartTime: time.Date(2024, 6, 13, 10, 0, 0, 0, loc), // Thursday
			Status:    models.StatusUpcoming,
		},
	}

	items := s.BuildChecklist(wed, records)
	if items[0].Status != models.ComplianceMissing {
		t.Errorf("expected missing for off-date record, got %s", items[0].Status)
	}
}

func TestProviderMatches_BothDirectionsCaseInsensitive(t *testing.T) {
	if !providerMatches("AWC", "awc gaming") {
		t.Error("rule name contained in record name should match")
	}
	if !providerMatches("SA Gaming Platform", "sa gaming") {
		t.Error("record name contained in rule name should match")
	}
	if providerMatches("Evolution", "Pragmatic Play") {
		t.Error("unrelated names should not match")
	}
	if providerMatches("", "AWC") {
		t.Error("empty names should never match")
	}
}

func TestMissingProviders(t *testing.T) {
	items := []models.ComplianceChecklistItem{
		{Provider: "AWC", Status: models.ComplianceOK},
		{Provider: "PG Soft", Status: models.ComplianceMissing},
		{Provider: "Evolution", Status: models.ComplianceMissing},
	}

	missing := MissingProviders(items)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}
	if missing[0] != "PG Soft" || missing[1] != "Evolution" {
		t.Errorf("unexpected missing set: %v", missing)
	}
}
