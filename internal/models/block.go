package models

import "time"

type BlockType string

const (
	BlockDeep     BlockType = "deep"
	BlockShallow  BlockType = "shallow"
	BlockAdmin    BlockType = "admin"
	BlockLearning BlockType = "learning"
)

type Firmness string

const (
	FirmnessDraft Firmness = "draft"
	FirmnessSoft  Firmness = "soft"
	FirmnessHard  Firmness = "hard"
)

type BlockSource string

const (
	SourceTemplate BlockSource = "template"
	SourceRoutine  BlockSource = "routine"
	SourceCalendar BlockSource = "calendar"
)

// Block is a planned work interval on a specific date. InstanceKey is the
// identity that survives regeneration; ID is the stable local key.
type Block struct {
	ID              string      `json:"id"`
	InstanceKey     string      `json:"instance"`
	Date            string      `json:"date"` // YYYY-MM-DD in the user zone
	StartAt         time.Time   `json:"start_at"`
	EndAt           time.Time   `json:"end_at"`
	BlockType       BlockType   `json:"block_type"`
	Firmness        Firmness    `json:"firmness"`
	PlannedCycles   int         `json:"planned_cycles"`
	Source          BlockSource `json:"source"`
	SourceID        string      `json:"source_id,omitempty"`
	CalendarEventID string      `json:"calendar_event_id,omitempty"`
	AccountID       string      `json:"calendar_account_id,omitempty"`
	TaskID          string      `json:"task_id,omitempty"`
}

func (b Block) Validate() error {
	if err := requireNonEmpty(b.ID, "block.id"); err != nil {
		return err
	}
	if err := requireNonEmpty(b.InstanceKey, "block.instance"); err != nil {
		return err
	}
	if err := requireNonEmpty(string(b.Source), "block.source"); err != nil {
		return err
	}
	if err := requireDate(b.Date, "block.date"); err != nil {
		return err
	}
	if !b.EndAt.After(b.StartAt) {
		return validationError("block.end_at must be after block.start_at")
	}
	if b.PlannedCycles < 1 {
		return validationError("block.planned_cycles must be >= 1")
	}
	return nil
}

// Duration returns the block length
func (b Block) Duration() time.Duration {
	return b.EndAt.Sub(b.StartAt)
}

// Overlaps reports whether the block's interval intersects [start, end)
func (b Block) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}
