// Package scheduler plans time blocks inside the configured work window.
// It covers candidate planning from templates and routines, busy-map
// computation from synced events, auto-fill placement, and relocation of
// blocks displaced by calendar changes.
package scheduler

import (
	"sort"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Intersects reports whether two half-open intervals overlap.
func (iv Interval) Intersects(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// EventInterval extracts the busy interval of a remote event. Events
// without parseable times, or with an inverted range, contribute nothing.
func EventInterval(event models.RemoteEvent) (Interval, bool) {
	start, end, ok := event.Interval()
	if !ok {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// ClipInterval restricts an interval to the window, dropping it entirely
// when nothing remains.
func ClipInterval(iv Interval, windowStart, windowEnd time.Time) (Interval, bool) {
	if !iv.End.After(windowStart) || !iv.Start.Before(windowEnd) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(windowStart) {
		out.Start = windowStart
	}
	if out.End.After(windowEnd) {
		out.End = windowEnd
	}
	if !out.End.After(out.Start) {
		return Interval{}, false
	}
	return out, true
}

// MergeIntervals collapses overlapping and adjacent intervals into a
// sorted canonical list.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeSlots returns the gaps of the window not covered by the busy list.
// The busy list must already be merged and sorted; busy time outside the
// window never widens a slot past the window edges.
func FreeSlots(windowStart, windowEnd time.Time, busy []Interval) []Interval {
	if !windowEnd.After(windowStart) {
		return nil
	}
	var slots []Interval
	cursor := windowStart
	for _, iv := range busy {
		if !cursor.Before(windowEnd) {
			break
		}
		gapEnd := iv.Start
		if gapEnd.After(windowEnd) {
			gapEnd = windowEnd
		}
		if gapEnd.After(cursor) {
			slots = append(slots, Interval{Start: cursor, End: gapEnd})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if cursor.Before(windowEnd) {
		slots = append(slots, Interval{Start: cursor, End: windowEnd})
	}
	return slots
}
