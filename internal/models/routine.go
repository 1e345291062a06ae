package models

// Template describes a reusable block shape anchored at a daily start time.
type Template struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Start           string    `json:"start"` // HH:MM
	DurationMinutes int       `json:"duration_minutes"`
	BlockType       BlockType `json:"block_type"`
	Firmness        Firmness  `json:"firmness"`
	PlannedCycles   int       `json:"planned_cycles"`
	Days            []string  `json:"days,omitempty"`
}

func (t Template) Validate() error {
	if err := requireNonEmpty(t.ID, "template.id"); err != nil {
		return err
	}
	if err := requireNonEmpty(t.Name, "template.name"); err != nil {
		return err
	}
	if err := requireHHMM(t.Start, "template.start"); err != nil {
		return err
	}
	if t.DurationMinutes <= 0 {
		return validationError("template.duration_minutes must be > 0")
	}
	return nil
}

// AppliesOn reports whether the template is eligible on the given weekday
// name (e.g. "monday"). An empty day list means every day.
func (t Template) AppliesOn(weekday string) bool {
	if len(t.Days) == 0 {
		return true
	}
	want := normalize(weekday)
	for _, d := range t.Days {
		if normalize(d) == want {
			return true
		}
	}
	return false
}

// RoutineSchedule is the structured recurrence form. Exactly one of the
// structured fields applies per frequency; RRule, when set, wins over the
// structured form.
type RoutineSchedule struct {
	Frequency  string `json:"frequency,omitempty"` // daily | weekly | monthly
	Weekday    string `json:"weekday,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	RRule      string `json:"rrule,omitempty"`
}

// Routine binds a template to a recurrence schedule with optional
// per-routine overrides and skip dates.
type Routine struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TemplateID      string          `json:"template_id"`
	Schedule        RoutineSchedule `json:"schedule"`
	Start           string          `json:"start,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	BlockType       BlockType       `json:"block_type,omitempty"`
	Firmness        Firmness        `json:"firmness,omitempty"`
	SkipDates       []string        `json:"skip_dates,omitempty"`
	Carryover       bool            `json:"carryover"`
}

func (r Routine) Validate() error {
	if err := requireNonEmpty(r.ID, "routine.id"); err != nil {
		return err
	}
	if err := requireNonEmpty(r.TemplateID, "routine.template_id"); err != nil {
		return err
	}
	if r.Start != "" {
		if err := requireHHMM(r.Start, "routine.start"); err != nil {
			return err
		}
	}
	for _, d := range r.SkipDates {
		if err := requireDate(d, "routine.skip_dates[]"); err != nil {
			return err
		}
	}
	return nil
}

// Skips reports whether the routine explicitly skips the given date.
func (r Routine) Skips(date string) bool {
	for _, d := range r.SkipDates {
		if d == date {
			return true
		}
	}
	return false
}
