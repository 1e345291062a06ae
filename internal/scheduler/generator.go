package scheduler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

// Mode selects how placement fills the day.
type Mode int

const (
	// ModeBulk fills every free slot without overlapping busy time.
	ModeBulk Mode = iota
	// ModeSingle produces at most one block and may overlap busy time.
	ModeSingle
)

// GenerateInput carries everything the generator needs. The generator is
// pure: it never touches storage or the network.
type GenerateInput struct {
	Date         string
	Policy       models.Policy
	Templates    []models.Template
	Routines     []models.Routine
	Suppressions []models.Suppression
	Events       []models.RemoteEvent
	Existing     []models.Block
	Mode         Mode
	AccountID    string
	NewID        func() string
}

// GenerateResult is the placement outcome. PurgedSuppressions lists the
// user-deleted suppression keys the caller must remove from durable
// storage before persisting the new blocks.
type GenerateResult struct {
	Blocks             []models.Block
	PurgedSuppressions []string
	WindowStart        time.Time
	WindowEnd          time.Time
}

// Generate plans the block set for a date. Non-work days and inverted
// work windows yield an empty result.
func Generate(in GenerateInput) (GenerateResult, error) {
	loc, err := time.LoadLocation(in.Policy.Timezone)
	if err != nil {
		return GenerateResult{}, apperrors.Wrap(apperrors.KindInvalidConfig,
			err, "unknown timezone %q", in.Policy.Timezone)
	}
	day, err := time.ParseInLocation(constants.DateFormat, in.Date, loc)
	if err != nil {
		return GenerateResult{}, apperrors.New(apperrors.KindInvalidConfig,
			"date must be YYYY-MM-DD, got %q", in.Date)
	}
	if !workDay(in.Policy.WorkHours, day.Weekday()) {
		return GenerateResult{}, nil
	}

	windowStart, err := ResolveLocalTime(in.Date, in.Policy.WorkHours.Start, loc)
	if err != nil {
		return GenerateResult{}, err
	}
	windowEnd, err := ResolveLocalTime(in.Date, in.Policy.WorkHours.End, loc)
	if err != nil {
		return GenerateResult{}, err
	}
	if !windowEnd.After(windowStart) {
		return GenerateResult{}, nil
	}

	result := GenerateResult{WindowStart: windowStart, WindowEnd: windowEnd}

	// A cleared day forgives its own user deletions so "start over"
	// regenerates everything.
	suppressed := make(map[string]bool, len(in.Suppressions))
	forgive := len(in.Existing) == 0 && in.Policy.Generation.RespectSuppression
	for _, s := range in.Suppressions {
		if forgive && s.Reason == constants.ReasonUserDeleted && keyEncodesDate(s.InstanceKey, in.Date) {
			result.PurgedSuppressions = append(result.PurgedSuppressions, s.InstanceKey)
			continue
		}
		suppressed[s.InstanceKey] = true
	}

	candidates, err := PlanCandidates(in.Date, in.Policy, in.Templates, in.Routines, loc)
	if err != nil {
		return GenerateResult{}, err
	}

	var occupied []Interval
	for _, event := range in.Events {
		if event.IsCancelled() {
			continue
		}
		iv, ok := EventInterval(event)
		if !ok {
			continue
		}
		if clipped, ok := ClipInterval(iv, windowStart, windowEnd); ok {
			occupied = append(occupied, clipped)
		}
	}
	usedKeys := make(map[string]bool, len(in.Existing))
	usedRanges := make(map[[2]int64]bool, len(in.Existing))
	for _, block := range in.Existing {
		occupied = append(occupied, Interval{Start: block.StartAt, End: block.EndAt})
		usedKeys[block.InstanceKey] = true
		usedRanges[rangeKey(block.StartAt, block.EndAt)] = true
	}
	occupied = MergeIntervals(occupied)

	limit := math.MaxInt
	allowOverlap := false
	if in.Mode == ModeSingle {
		limit = 1
		allowOverlap = true
	}

	respect := in.Policy.Generation.RespectSuppression
	for _, plan := range candidates {
		if len(result.Blocks) >= limit {
			break
		}
		iv := Interval{Start: plan.StartAt, End: plan.EndAt}
		if iv.Start.Before(windowStart) || iv.End.After(windowEnd) {
			continue
		}
		if !allowOverlap && intersectsAny(iv, occupied) {
			continue
		}
		if respect && suppressed[plan.InstanceKey] {
			continue
		}
		rk := rangeKey(iv.Start, iv.End)
		if usedKeys[plan.InstanceKey] || usedRanges[rk] {
			continue
		}
		usedKeys[plan.InstanceKey] = true
		usedRanges[rk] = true
		occupied = MergeIntervals(append(occupied, iv))
		result.Blocks = append(result.Blocks, blockFromPlan(in, plan))
	}

	autoFill(in, &result, windowStart, windowEnd, occupied, usedKeys, usedRanges, suppressed, limit, allowOverlap)
	return result, nil
}

// autoFill walks the free gaps of the window and emits auto blocks until
// the day's auto budget or the mode limit is exhausted.
func autoFill(in GenerateInput, result *GenerateResult, windowStart, windowEnd time.Time, occupied []Interval, usedKeys map[string]bool, usedRanges map[[2]int64]bool, suppressed map[string]bool, limit int, allowOverlap bool) {
	duration := time.Duration(in.Policy.BlockDurationMinutes) * time.Minute
	gap := time.Duration(in.Policy.MinBlockGapMinutes) * time.Minute
	if duration <= 0 {
		return
	}

	var slots []Interval
	if allowOverlap {
		slots = []Interval{{Start: windowStart, End: windowEnd}}
	} else {
		slots = FreeSlots(windowStart, windowEnd, occupied)
	}

	index := nextAutoIndex(in.Existing, in.Date)
	dayCount := len(in.Existing) + len(result.Blocks)
	respect := in.Policy.Generation.RespectSuppression
	cycles := DefaultPlannedCycles(in.Policy.BlockDurationMinutes, in.Policy.BreakDurationMinutes)

	for _, slot := range slots {
		cursor := slot.Start
		for !cursor.Add(duration).After(slot.End) {
			if len(result.Blocks) >= limit || dayCount >= in.Policy.MaxAutoBlocksPerDay {
				return
			}
			end := cursor.Add(duration)
			key := fmt.Sprintf("rtn:auto:%s:%d", in.Date, index)
			rk := rangeKey(cursor, end)

			ok := !usedKeys[key] && !usedRanges[rk] && !(respect && suppressed[key])
			if ok {
				usedKeys[key] = true
				usedRanges[rk] = true
				result.Blocks = append(result.Blocks, models.Block{
					ID:            in.NewID(),
					InstanceKey:   key,
					Date:          in.Date,
					StartAt:       cursor,
					EndAt:         end,
					BlockType:     models.BlockDeep,
					Firmness:      models.FirmnessDraft,
					PlannedCycles: cycles,
					Source:        models.SourceRoutine,
					SourceID:      "auto",
					AccountID:     in.AccountID,
				})
				dayCount++
			}
			index++
			cursor = end.Add(gap)
		}
	}
}

func blockFromPlan(in GenerateInput, plan CandidatePlan) models.Block {
	return models.Block{
		ID:            in.NewID(),
		InstanceKey:   plan.InstanceKey,
		Date:          in.Date,
		StartAt:       plan.StartAt,
		EndAt:         plan.EndAt,
		BlockType:     plan.BlockType,
		Firmness:      plan.Firmness,
		PlannedCycles: plan.PlannedCycles,
		Source:        plan.Source,
		SourceID:      plan.SourceID,
		AccountID:     in.AccountID,
	}
}

func workDay(hours models.WorkHours, weekday time.Weekday) bool {
	name := strings.ToLower(weekday.String())
	for _, d := range hours.Days {
		if strings.ToLower(strings.TrimSpace(d)) == name {
			return true
		}
	}
	return false
}

func intersectsAny(iv Interval, intervals []Interval) bool {
	for _, other := range intervals {
		if iv.Intersects(other) {
			return true
		}
	}
	return false
}

func rangeKey(start, end time.Time) [2]int64 {
	return [2]int64{start.UnixMilli(), end.UnixMilli()}
}

// keyEncodesDate reports whether an instance key references the date,
// e.g. tpl:morning:2026-02-16 or rtn:auto:2026-02-16:3.
func keyEncodesDate(key, date string) bool {
	for _, part := range strings.Split(key, ":") {
		if part == date {
			return true
		}
	}
	return false
}

// nextAutoIndex returns one past the highest auto-fill index already
// present among the day's blocks.
func nextAutoIndex(existing []models.Block, date string) int {
	prefix := "rtn:auto:" + date + ":"
	next := 0
	for _, block := range existing {
		rest, found := strings.CutPrefix(block.InstanceKey, prefix)
		if !found {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if i+1 > next {
			next = i + 1
		}
	}
	return next
}
