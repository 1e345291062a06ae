package scheduler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

func testPolicy() models.Policy {
	return models.Policy{
		WorkHours: models.WorkHours{
			Start: "09:00",
			End:   "18:00",
			Days:  []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Timezone:              "UTC",
		Generation:            models.GenerationPolicy{RespectSuppression: true},
		BlockDurationMinutes:  50,
		BreakDurationMinutes:  10,
		MinBlockGapMinutes:    5,
		MaxAutoBlocksPerDay:   12,
		MaxRelocationsPerSync: 50,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("blk-%d", n)
	}
}

func busyEvent(id string, start, end time.Time) models.RemoteEvent {
	return models.RemoteEvent{
		ID:     id,
		Status: "confirmed",
		Start:  models.EventTime{DateTime: start.Format(time.RFC3339)},
		End:    models.EventTime{DateTime: end.Format(time.RFC3339)},
	}
}

func TestGenerateAutoFillsEmptyDay(t *testing.T) {
	res, err := Generate(GenerateInput{
		Date:   testDate,
		Policy: testPolicy(),
		NewID:  sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// 50-minute blocks on a 55-minute pitch fit nine times in nine hours.
	if len(res.Blocks) != 9 {
		t.Fatalf("got %d blocks, want 9", len(res.Blocks))
	}
	first := res.Blocks[0]
	if first.InstanceKey != "rtn:auto:"+testDate+":0" {
		t.Errorf("first instance = %q", first.InstanceKey)
	}
	if !first.StartAt.Equal(at(9, 0)) || !first.EndAt.Equal(at(9, 50)) {
		t.Errorf("first block = %v..%v", first.StartAt, first.EndAt)
	}
	second := res.Blocks[1]
	if !second.StartAt.Equal(at(9, 55)) {
		t.Errorf("second block starts %v, want gap-separated 09:55", second.StartAt)
	}
	for _, block := range res.Blocks {
		if block.Firmness != models.FirmnessDraft {
			t.Errorf("block %s firmness = %q, want draft", block.ID, block.Firmness)
		}
		if block.PlannedCycles != 1 {
			t.Errorf("block %s planned cycles = %d, want 1", block.ID, block.PlannedCycles)
		}
	}
}

func TestGeneratePlacesTemplateAndFillsAround(t *testing.T) {
	templates := []models.Template{{
		ID: "morning", Name: "Morning focus", Start: "09:00", DurationMinutes: 120,
		BlockType: models.BlockDeep, Firmness: models.FirmnessHard, PlannedCycles: 3,
	}}
	res, err := Generate(GenerateInput{
		Date:      testDate,
		Policy:    testPolicy(),
		Templates: templates,
		NewID:     sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) == 0 {
		t.Fatal("expected blocks")
	}
	tplBlock := res.Blocks[0]
	if tplBlock.InstanceKey != "tpl:morning:"+testDate {
		t.Fatalf("first block = %q, want the template placement", tplBlock.InstanceKey)
	}
	if tplBlock.PlannedCycles != 3 || tplBlock.Firmness != models.FirmnessHard {
		t.Errorf("template fields not carried: %+v", tplBlock)
	}
	for _, block := range res.Blocks[1:] {
		if block.StartAt.Before(tplBlock.EndAt) {
			t.Errorf("auto block %s overlaps the template placement", block.InstanceKey)
		}
	}
}

func TestGenerateSkipsBusyIntervals(t *testing.T) {
	events := []models.RemoteEvent{
		busyEvent("ev-meeting", at(9, 0), at(12, 0)),
		busyEvent("ev-cancelled", at(13, 0), at(18, 0)),
	}
	events[1].Status = "cancelled"

	res, err := Generate(GenerateInput{
		Date:   testDate,
		Policy: testPolicy(),
		Events: events,
		NewID:  sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) == 0 {
		t.Fatal("expected blocks after the meeting")
	}
	if !res.Blocks[0].StartAt.Equal(at(12, 0)) {
		t.Errorf("first block starts %v, want 12:00 after the busy morning", res.Blocks[0].StartAt)
	}
}

func TestGenerateSingleModeOverlapsBusyTime(t *testing.T) {
	events := []models.RemoteEvent{busyEvent("ev-allday", at(9, 0), at(18, 0))}
	res, err := Generate(GenerateInput{
		Date:   testDate,
		Policy: testPolicy(),
		Events: events,
		Mode:   ModeSingle,
		NewID:  sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) != 1 {
		t.Fatalf("got %d blocks, want exactly 1 in single mode", len(res.Blocks))
	}
	if !res.Blocks[0].StartAt.Equal(at(9, 0)) {
		t.Errorf("single block starts %v, want window start", res.Blocks[0].StartAt)
	}
}

func TestGenerateRespectsSuppression(t *testing.T) {
	templates := []models.Template{{
		ID: "morning", Name: "Morning focus", Start: "09:00", DurationMinutes: 60,
		BlockType: models.BlockDeep, Firmness: models.FirmnessDraft,
	}}
	existing := []models.Block{{
		ID: "blk-kept", InstanceKey: "tpl:other:" + testDate, Date: testDate,
		StartAt: at(16, 0), EndAt: at(17, 0),
		BlockType: models.BlockDeep, Firmness: models.FirmnessDraft,
		PlannedCycles: 1, Source: models.SourceTemplate,
	}}
	res, err := Generate(GenerateInput{
		Date:      testDate,
		Policy:    testPolicy(),
		Templates: templates,
		Suppressions: []models.Suppression{
			{InstanceKey: "tpl:morning:" + testDate, Reason: constants.ReasonUserDeleted},
		},
		Existing: existing,
		NewID:    sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, block := range res.Blocks {
		if block.InstanceKey == "tpl:morning:"+testDate {
			t.Error("suppressed template instance was regenerated")
		}
	}
	if len(res.PurgedSuppressions) != 0 {
		t.Errorf("non-empty day must not forgive suppressions, purged %v", res.PurgedSuppressions)
	}
}

func TestGenerateForgivesUserDeletionsOnClearedDay(t *testing.T) {
	templates := []models.Template{{
		ID: "morning", Name: "Morning focus", Start: "09:00", DurationMinutes: 60,
		BlockType: models.BlockDeep, Firmness: models.FirmnessDraft,
	}}
	res, err := Generate(GenerateInput{
		Date:      testDate,
		Policy:    testPolicy(),
		Templates: templates,
		Suppressions: []models.Suppression{
			{InstanceKey: "tpl:morning:" + testDate, Reason: constants.ReasonUserDeleted},
			{InstanceKey: "tpl:morning:2026-02-17", Reason: constants.ReasonUserDeleted},
			{InstanceKey: "ev:gone:" + testDate, Reason: constants.ReasonCalendarCancelled},
		},
		NewID: sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(res.PurgedSuppressions) != 1 || res.PurgedSuppressions[0] != "tpl:morning:"+testDate {
		t.Fatalf("purged = %v, want only the day's user deletion", res.PurgedSuppressions)
	}
	found := false
	for _, block := range res.Blocks {
		if block.InstanceKey == "tpl:morning:"+testDate {
			found = true
		}
	}
	if !found {
		t.Error("forgiven template instance was not regenerated")
	}
}

func TestGenerateAutoIndexContinuesPastExisting(t *testing.T) {
	existing := []models.Block{{
		ID: "blk-old", InstanceKey: "rtn:auto:" + testDate + ":4", Date: testDate,
		StartAt: at(9, 0), EndAt: at(9, 50),
		BlockType: models.BlockDeep, Firmness: models.FirmnessDraft,
		PlannedCycles: 1, Source: models.SourceRoutine, SourceID: "auto",
	}}
	res, err := Generate(GenerateInput{
		Date:     testDate,
		Policy:   testPolicy(),
		Existing: existing,
		NewID:    sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) == 0 {
		t.Fatal("expected auto blocks")
	}
	if res.Blocks[0].InstanceKey != "rtn:auto:"+testDate+":5" {
		t.Errorf("first auto instance = %q, want index one past the existing max", res.Blocks[0].InstanceKey)
	}
}

func TestGenerateHonorsAutoBlockCap(t *testing.T) {
	policy := testPolicy()
	policy.MaxAutoBlocksPerDay = 3
	res, err := Generate(GenerateInput{
		Date:   testDate,
		Policy: policy,
		NewID:  sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) != 3 {
		t.Errorf("got %d blocks, want the cap of 3", len(res.Blocks))
	}
}

func TestGenerateNonWorkDayIsEmpty(t *testing.T) {
	res, err := Generate(GenerateInput{
		Date:   "2026-02-15", // Sunday
		Policy: testPolicy(),
		NewID:  sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) != 0 {
		t.Errorf("expected no blocks on a non-work day, got %d", len(res.Blocks))
	}
}

func TestGenerateNonexistentLocalTimeFails(t *testing.T) {
	policy := testPolicy()
	policy.Timezone = "America/New_York"
	policy.WorkHours.Start = "02:30"
	policy.WorkHours.Days = append(policy.WorkHours.Days, "sunday")

	// 2026-03-08 02:30 falls inside the spring-forward gap.
	_, err := Generate(GenerateInput{
		Date:   "2026-03-08",
		Policy: policy,
		NewID:  sequentialIDs(),
	})
	if err == nil {
		t.Fatal("expected an error for a nonexistent local time")
	}
	if apperrors.KindOf(err) != apperrors.KindInvalidConfig {
		t.Errorf("error kind = %v, want invalid config", apperrors.KindOf(err))
	}
}

func TestGenerateAmbiguousLocalTimeUsesEarlierInstant(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 2026-11-01 01:30 occurs twice; the EDT occurrence comes first.
	resolved, err := ResolveLocalTime("2026-11-01", "01:30", loc)
	if err != nil {
		t.Fatalf("ResolveLocalTime failed: %v", err)
	}
	want := time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC)
	if !resolved.Equal(want) {
		t.Errorf("resolved %v, want the earlier instant %v", resolved.UTC(), want)
	}
}

func TestGenerateUnknownTimezoneFails(t *testing.T) {
	policy := testPolicy()
	policy.Timezone = "Mars/Olympus_Mons"

	_, err := Generate(GenerateInput{
		Date:   testDate,
		Policy: policy,
		NewID:  sequentialIDs(),
	})
	if err == nil {
		t.Fatal("expected an error for an unknown timezone")
	}
	if apperrors.KindOf(err) != apperrors.KindInvalidConfig {
		t.Errorf("error kind = %v, want invalid config", apperrors.KindOf(err))
	}
	if !strings.Contains(err.Error(), `"Mars/Olympus_Mons"`) {
		t.Errorf("error %q does not name the timezone", err)
	}
}

func TestGenerateAutoFillStaysInsideWindow(t *testing.T) {
	policy := testPolicy()
	policy.WorkHours.End = "11:00"

	// A leftover block past the window end must not widen the free slots.
	existing := []models.Block{{
		ID: "blk-late", InstanceKey: "tpl:late:" + testDate, Date: testDate,
		StartAt: at(12, 0), EndAt: at(13, 0),
		BlockType: models.BlockDeep, Firmness: models.FirmnessSoft,
		PlannedCycles: 1, Source: models.SourceTemplate,
	}}

	res, err := Generate(GenerateInput{
		Date:     testDate,
		Policy:   policy,
		Existing: existing,
		NewID:    sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 inside the 09:00..11:00 window", len(res.Blocks))
	}
	for _, block := range res.Blocks {
		if block.EndAt.After(res.WindowEnd) {
			t.Errorf("block %s ends %v, past window end %v", block.InstanceKey, block.EndAt, res.WindowEnd)
		}
		if block.StartAt.Before(res.WindowStart) {
			t.Errorf("block %s starts %v, before window start %v", block.InstanceKey, block.StartAt, res.WindowStart)
		}
	}
}
