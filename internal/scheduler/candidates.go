package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	"github.com/colinaird/pomblock/internal/models"
)

// CandidatePlan is one proposed block before placement.
type CandidatePlan struct {
	InstanceKey   string
	StartAt       time.Time
	EndAt         time.Time
	BlockType     models.BlockType
	Firmness      models.Firmness
	PlannedCycles int
	Source        models.BlockSource
	SourceID      string
}

// PlanCandidates builds the ordered candidate list for a date from the
// template and routine sets. Routines merge their overrides onto the
// linked template's defaults. The result is sorted by (start, instance
// key) and deduplicated by instance key.
func PlanCandidates(date string, policy models.Policy, templates []models.Template, routines []models.Routine, loc *time.Location) ([]CandidatePlan, error) {
	day, err := time.ParseInLocation(constants.DateFormat, date, loc)
	if err != nil {
		return nil, err
	}
	weekday := strings.ToLower(day.Weekday().String())

	byID := make(map[string]models.Template, len(templates))
	for _, tpl := range templates {
		byID[tpl.ID] = tpl
	}

	var plans []CandidatePlan
	for _, tpl := range templates {
		if !tpl.AppliesOn(weekday) {
			continue
		}
		plan, err := planFromTemplate(date, policy, tpl, loc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	for _, rtn := range routines {
		if rtn.Skips(date) || !routineMatches(rtn.Schedule, day) {
			continue
		}
		plan, err := planFromRoutine(date, policy, rtn, byID[rtn.TemplateID], loc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].StartAt.Equal(plans[j].StartAt) {
			return plans[i].StartAt.Before(plans[j].StartAt)
		}
		return plans[i].InstanceKey < plans[j].InstanceKey
	})

	seen := make(map[string]bool, len(plans))
	deduped := plans[:0]
	for _, plan := range plans {
		if seen[plan.InstanceKey] {
			continue
		}
		seen[plan.InstanceKey] = true
		deduped = append(deduped, plan)
	}
	return deduped, nil
}

func planFromTemplate(date string, policy models.Policy, tpl models.Template, loc *time.Location) (CandidatePlan, error) {
	start, err := ResolveLocalTime(date, tpl.Start, loc)
	if err != nil {
		return CandidatePlan{}, err
	}
	cycles := tpl.PlannedCycles
	if cycles <= 0 {
		cycles = DefaultPlannedCycles(tpl.DurationMinutes, policy.BreakDurationMinutes)
	}
	return CandidatePlan{
		InstanceKey:   fmt.Sprintf("tpl:%s:%s", tpl.ID, date),
		StartAt:       start,
		EndAt:         start.Add(time.Duration(tpl.DurationMinutes) * time.Minute),
		BlockType:     tpl.BlockType,
		Firmness:      tpl.Firmness,
		PlannedCycles: cycles,
		Source:        models.SourceTemplate,
		SourceID:      tpl.ID,
	}, nil
}

func planFromRoutine(date string, policy models.Policy, rtn models.Routine, tpl models.Template, loc *time.Location) (CandidatePlan, error) {
	startHHMM := rtn.Start
	if startHHMM == "" {
		startHHMM = tpl.Start
	}
	duration := rtn.DurationMinutes
	if duration <= 0 {
		duration = tpl.DurationMinutes
	}
	blockType := rtn.BlockType
	if blockType == "" {
		blockType = tpl.BlockType
	}
	firmness := rtn.Firmness
	if firmness == "" {
		firmness = tpl.Firmness
	}
	cycles := tpl.PlannedCycles
	if cycles <= 0 {
		cycles = DefaultPlannedCycles(duration, policy.BreakDurationMinutes)
	}

	start, err := ResolveLocalTime(date, startHHMM, loc)
	if err != nil {
		return CandidatePlan{}, err
	}
	return CandidatePlan{
		InstanceKey:   fmt.Sprintf("rtn:%s:%s", rtn.ID, date),
		StartAt:       start,
		EndAt:         start.Add(time.Duration(duration) * time.Minute),
		BlockType:     blockType,
		Firmness:      firmness,
		PlannedCycles: cycles,
		Source:        models.SourceRoutine,
		SourceID:      rtn.ID,
	}, nil
}

// DefaultPlannedCycles derives the pomodoro count for a block that does
// not carry one: how many focus+break pairs fit, floored, at least one.
func DefaultPlannedCycles(durationMinutes, breakMinutes int) int {
	cycle := 25 + breakMinutes
	if cycle <= 0 {
		return 1
	}
	cycles := durationMinutes / cycle
	if cycles < 1 {
		return 1
	}
	return cycles
}

// routineMatches evaluates the schedule against a concrete day. A
// recurrence rule string takes precedence over the structured form.
func routineMatches(schedule models.RoutineSchedule, day time.Time) bool {
	if schedule.RRule != "" {
		return rruleMatches(schedule.RRule, day)
	}
	switch strings.ToLower(schedule.Frequency) {
	case "daily":
		return true
	case "weekly":
		return strings.EqualFold(schedule.Weekday, day.Weekday().String())
	case "monthly":
		return schedule.DayOfMonth == day.Day()
	default:
		return false
	}
}

var weekdayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// rruleMatches evaluates a minimal recurrence rule (FREQ, optional
// BYDAY, optional BYMONTHDAY) against a day. Unknown FREQ values never
// match; unrecognized rule parts are ignored.
func rruleMatches(rule string, day time.Time) bool {
	freq := ""
	byDay := ""
	byMonthDay := ""
	for _, part := range strings.Split(rule, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			freq = strings.ToUpper(value)
		case "BYDAY":
			byDay = strings.ToUpper(value)
		case "BYMONTHDAY":
			byMonthDay = value
		}
	}

	switch freq {
	case "DAILY", "WEEKLY", "MONTHLY":
	default:
		return false
	}
	if byDay != "" {
		code := weekdayCodes[day.Weekday()]
		matched := false
		for _, want := range strings.Split(byDay, ",") {
			if strings.TrimSpace(want) == code {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if byMonthDay != "" {
		want, err := strconv.Atoi(strings.TrimSpace(byMonthDay))
		if err != nil || want != day.Day() {
			return false
		}
	}
	return true
}
