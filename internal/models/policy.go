package models

// WorkHours is the daily work window plus the weekdays it applies to.
type WorkHours struct {
	Start string   `json:"start"` // HH:MM
	End   string   `json:"end"`   // HH:MM
	Days  []string `json:"days"`
}

func (w WorkHours) Validate() error {
	if err := requireHHMM(w.Start, "policy.work_hours.start"); err != nil {
		return err
	}
	if err := requireHHMM(w.End, "policy.work_hours.end"); err != nil {
		return err
	}
	if len(w.Days) == 0 {
		return validationError("policy.work_hours.days must not be empty")
	}
	for _, day := range w.Days {
		if err := requireNonEmpty(day, "policy.work_hours.days[]"); err != nil {
			return err
		}
	}
	return nil
}

// GenerationPolicy controls automatic block generation behavior.
type GenerationPolicy struct {
	AutoEnabled        bool   `json:"auto_enabled"`
	AutoTime           string `json:"auto_time"`
	CatchUpOnAppStart  bool   `json:"catch_up_on_app_start"`
	RespectSuppression bool   `json:"respect_suppression"`
}

// Policy is the immutable per-run configuration for the generation,
// relocation, and sync engines.
type Policy struct {
	WorkHours             WorkHours        `json:"work_hours"`
	Timezone              string           `json:"timezone"`
	Generation            GenerationPolicy `json:"generation"`
	BlockDurationMinutes  int              `json:"block_duration_minutes"`
	BreakDurationMinutes  int              `json:"break_duration_minutes"`
	MinBlockGapMinutes    int              `json:"min_block_gap_minutes"`
	MaxAutoBlocksPerDay   int              `json:"max_auto_blocks_per_day"`
	MaxRelocationsPerSync int              `json:"max_relocations_per_sync"`
}

func (p Policy) Validate() error {
	if err := p.WorkHours.Validate(); err != nil {
		return err
	}
	if p.Generation.AutoTime != "" {
		if err := requireHHMM(p.Generation.AutoTime, "policy.generation.auto_time"); err != nil {
			return err
		}
	}
	if p.BlockDurationMinutes <= 0 {
		return validationError("policy.block_duration_minutes must be > 0")
	}
	if p.BreakDurationMinutes <= 0 {
		return validationError("policy.break_duration_minutes must be > 0")
	}
	if p.MinBlockGapMinutes < 0 {
		return validationError("policy.min_block_gap_minutes must be >= 0")
	}
	return nil
}

// PolicyOverride holds day-level overrides; nil fields inherit the base.
type PolicyOverride struct {
	WorkHours            *WorkHours `json:"work_hours,omitempty"`
	BlockDurationMinutes *int       `json:"block_duration_minutes,omitempty"`
	BreakDurationMinutes *int       `json:"break_duration_minutes,omitempty"`
	MinBlockGapMinutes   *int       `json:"min_block_gap_minutes,omitempty"`
}

// Apply returns a copy of the base policy with override values applied.
// Override values always take precedence over the base.
func (p Policy) Apply(o *PolicyOverride) Policy {
	if o == nil {
		return p
	}
	out := p
	if o.WorkHours != nil {
		out.WorkHours = *o.WorkHours
	}
	if o.BlockDurationMinutes != nil {
		out.BlockDurationMinutes = *o.BlockDurationMinutes
	}
	if o.BreakDurationMinutes != nil {
		out.BreakDurationMinutes = *o.BreakDurationMinutes
	}
	if o.MinBlockGapMinutes != nil {
		out.MinBlockGapMinutes = *o.MinBlockGapMinutes
	}
	return out
}
