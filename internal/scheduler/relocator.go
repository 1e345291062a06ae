package scheduler

import (
	"sort"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

// Move is one planned relocation. The caller mutates the local block and
// updates the remote twin.
type Move struct {
	BlockID string
	Start   time.Time
	End     time.Time
}

// RelocatePlan is the outcome of a relocation pass. Manual lists blocks
// that collide with remote events but have no free slot to move into.
type RelocatePlan struct {
	Moves  []Move
	Manual []string
}

// RelocateInput feeds one relocation pass after a sync.
type RelocateInput struct {
	Policy  models.Policy
	Blocks  []models.Block       // blocks owned by the synced account
	Events  []models.RemoteEvent // the account's events after the sync
	Changed []Interval           // intervals touched by the sync, already clipped
}

// PlanRelocations finds blocks displaced by calendar changes and plans a
// new home for each, up to the per-sync cap. A block only moves when its
// current interval collides with a confirmed remote event other than its
// own twin; the first free slot wide enough hosts it at the slot start.
func PlanRelocations(in RelocateInput) (RelocatePlan, error) {
	var plan RelocatePlan
	if len(in.Changed) == 0 || len(in.Blocks) == 0 {
		return plan, nil
	}
	loc, err := time.LoadLocation(in.Policy.Timezone)
	if err != nil {
		return plan, apperrors.Wrap(apperrors.KindInvalidConfig,
			err, "unknown timezone %q", in.Policy.Timezone)
	}

	blocks := make([]models.Block, len(in.Blocks))
	copy(blocks, in.Blocks)
	sort.Slice(blocks, func(i, j int) bool {
		if !blocks[i].StartAt.Equal(blocks[j].StartAt) {
			return blocks[i].StartAt.Before(blocks[j].StartAt)
		}
		return blocks[i].ID < blocks[j].ID
	})

	// Planned moves shift the busy picture for later blocks.
	current := make(map[string]Interval, len(blocks))
	for _, block := range blocks {
		current[block.ID] = Interval{Start: block.StartAt, End: block.EndAt}
	}

	maxMoves := in.Policy.MaxRelocationsPerSync
	relocated := 0
	for _, block := range blocks {
		if maxMoves > 0 && relocated >= maxMoves {
			break
		}
		iv := current[block.ID]
		if !intersectsAny(iv, in.Changed) {
			continue
		}

		windowStart, err := ResolveLocalTime(block.Date, in.Policy.WorkHours.Start, loc)
		if err != nil {
			return plan, err
		}
		windowEnd, err := ResolveLocalTime(block.Date, in.Policy.WorkHours.End, loc)
		if err != nil {
			return plan, err
		}

		eventBusy, collides := remoteBusy(in.Events, block, iv, windowStart, windowEnd)
		if !collides {
			continue
		}
		busy := eventBusy
		for _, other := range blocks {
			if other.ID == block.ID || other.Date != block.Date {
				continue
			}
			busy = append(busy, current[other.ID])
		}
		busy = MergeIntervals(busy)

		duration := iv.Duration()
		moved := false
		for _, slot := range FreeSlots(windowStart, windowEnd, busy) {
			if slot.Duration() < duration {
				continue
			}
			next := Interval{Start: slot.Start, End: slot.Start.Add(duration)}
			plan.Moves = append(plan.Moves, Move{BlockID: block.ID, Start: next.Start, End: next.End})
			current[block.ID] = next
			relocated++
			moved = true
			break
		}
		if !moved {
			plan.Manual = append(plan.Manual, block.ID)
		}
	}
	return plan, nil
}

// remoteBusy collects confirmed remote-event intervals inside the window,
// skipping the block's own twin, and reports whether any collide with the
// block's current interval.
func remoteBusy(events []models.RemoteEvent, block models.Block, iv Interval, windowStart, windowEnd time.Time) ([]Interval, bool) {
	var busy []Interval
	collides := false
	for _, event := range events {
		if !event.IsConfirmed() {
			continue
		}
		if block.CalendarEventID != "" && event.NormalizedID() == block.CalendarEventID {
			continue
		}
		raw, ok := EventInterval(event)
		if !ok {
			continue
		}
		if raw.Intersects(iv) {
			collides = true
		}
		if clipped, ok := ClipInterval(raw, windowStart, windowEnd); ok {
			busy = append(busy, clipped)
		}
	}
	return busy, collides
}

// ChangedIntervals derives the displaced-interval set from a sync result:
// added and updated events contribute their new intervals, deletions the
// interval the cache held before the sync.
func ChangedIntervals(added, updated []models.RemoteEvent, deleted []models.RemoteEvent, windowStart, windowEnd time.Time) []Interval {
	var changed []Interval
	collect := func(events []models.RemoteEvent) {
		for _, event := range events {
			iv, ok := EventInterval(event)
			if !ok {
				continue
			}
			if clipped, ok := ClipInterval(iv, windowStart, windowEnd); ok {
				changed = append(changed, clipped)
			}
		}
	}
	collect(added)
	collect(updated)
	collect(deleted)
	return MergeIntervals(changed)
}
