package scheduler

import (
	"testing"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

// 2026-02-16 is a Monday.
const testDate = "2026-02-16"

func TestRoutineScheduleMatching(t *testing.T) {
	monday := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		schedule models.RoutineSchedule
		want     bool
	}{
		{"structured daily", models.RoutineSchedule{Frequency: "daily"}, true},
		{"structured weekly match", models.RoutineSchedule{Frequency: "weekly", Weekday: "Monday"}, true},
		{"structured weekly miss", models.RoutineSchedule{Frequency: "weekly", Weekday: "Friday"}, false},
		{"structured monthly match", models.RoutineSchedule{Frequency: "monthly", DayOfMonth: 16}, true},
		{"structured monthly miss", models.RoutineSchedule{Frequency: "monthly", DayOfMonth: 1}, false},
		{"rrule daily", models.RoutineSchedule{RRule: "FREQ=DAILY"}, true},
		{"rrule weekly byday match", models.RoutineSchedule{RRule: "FREQ=WEEKLY;BYDAY=MO,WE,FR"}, true},
		{"rrule weekly byday miss", models.RoutineSchedule{RRule: "FREQ=WEEKLY;BYDAY=TU,TH"}, false},
		{"rrule monthly bymonthday", models.RoutineSchedule{RRule: "FREQ=MONTHLY;BYMONTHDAY=16"}, true},
		{"rrule unknown freq never matches", models.RoutineSchedule{RRule: "FREQ=YEARLY;BYDAY=MO"}, false},
		{"rrule unknown parts ignored", models.RoutineSchedule{RRule: "FREQ=DAILY;COUNT=5;INTERVAL=2"}, true},
		{"rrule wins over structured", models.RoutineSchedule{Frequency: "weekly", Weekday: "Friday", RRule: "FREQ=DAILY"}, true},
		{"empty schedule never matches", models.RoutineSchedule{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := routineMatches(tc.schedule, monday); got != tc.want {
				t.Errorf("routineMatches(%+v) = %v, want %v", tc.schedule, got, tc.want)
			}
		})
	}
}

func TestRoutineOverridesMergeTemplateDefaults(t *testing.T) {
	policy := testPolicy()
	templates := []models.Template{{
		ID:              "morning",
		Name:            "Morning deep work",
		Start:           "09:00",
		DurationMinutes: 90,
		BlockType:       models.BlockDeep,
		Firmness:        models.FirmnessHard,
	}}
	routines := []models.Routine{{
		ID:         "standup-prep",
		Name:       "Standup prep",
		TemplateID: "morning",
		Schedule:   models.RoutineSchedule{Frequency: "daily"},
		Start:      "11:00",
		Firmness:   models.FirmnessSoft,
	}}

	plans, err := PlanCandidates(testDate, policy, templates, routines, time.UTC)
	if err != nil {
		t.Fatalf("PlanCandidates failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("got %d plans, want 2", len(plans))
	}

	rtn := plans[1]
	if rtn.InstanceKey != "rtn:standup-prep:"+testDate {
		t.Errorf("instance key = %q", rtn.InstanceKey)
	}
	if !rtn.StartAt.Equal(at(11, 0)) {
		t.Errorf("start = %v, want routine override 11:00", rtn.StartAt)
	}
	if got := rtn.EndAt.Sub(rtn.StartAt); got != 90*time.Minute {
		t.Errorf("duration = %v, want template default 90m", got)
	}
	if rtn.BlockType != models.BlockDeep {
		t.Errorf("block type = %q, want template default", rtn.BlockType)
	}
	if rtn.Firmness != models.FirmnessSoft {
		t.Errorf("firmness = %q, want routine override", rtn.Firmness)
	}
}

func TestCandidatesSortedAndDeduped(t *testing.T) {
	policy := testPolicy()
	templates := []models.Template{
		{ID: "late", Name: "Late", Start: "15:00", DurationMinutes: 60, BlockType: models.BlockShallow, Firmness: models.FirmnessDraft},
		{ID: "early", Name: "Early", Start: "09:00", DurationMinutes: 60, BlockType: models.BlockDeep, Firmness: models.FirmnessDraft},
		{ID: "early", Name: "Early duplicate", Start: "09:00", DurationMinutes: 60, BlockType: models.BlockDeep, Firmness: models.FirmnessDraft},
	}
	plans, err := PlanCandidates(testDate, policy, templates, nil, time.UTC)
	if err != nil {
		t.Fatalf("PlanCandidates failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("got %d plans, want duplicate instance collapsed", len(plans))
	}
	if !plans[0].StartAt.Before(plans[1].StartAt) {
		t.Errorf("plans not ordered by start: %v then %v", plans[0].StartAt, plans[1].StartAt)
	}
}

func TestTemplateDayFilter(t *testing.T) {
	policy := testPolicy()
	templates := []models.Template{{
		ID: "tuesdays", Name: "Tuesday only", Start: "09:00", DurationMinutes: 60,
		BlockType: models.BlockDeep, Firmness: models.FirmnessDraft,
		Days: []string{"tuesday"},
	}}
	plans, err := PlanCandidates(testDate, policy, templates, nil, time.UTC)
	if err != nil {
		t.Fatalf("PlanCandidates failed: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("Tuesday template should not apply on a Monday, got %v", plans)
	}
}

func TestDefaultPlannedCycles(t *testing.T) {
	cases := []struct {
		duration, breakMin, want int
	}{
		{50, 10, 1},
		{90, 10, 2},
		{120, 5, 4},
		{10, 10, 1},
	}
	for _, tc := range cases {
		if got := DefaultPlannedCycles(tc.duration, tc.breakMin); got != tc.want {
			t.Errorf("DefaultPlannedCycles(%d, %d) = %d, want %d", tc.duration, tc.breakMin, got, tc.want)
		}
	}
}
