package app

import (
	"context"
	"testing"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

func TestCreateUpdateDeleteTaskFlow(t *testing.T) {
	h := newHarness(t, false)

	task, err := h.app.CreateTask("Write report", "  quarterly numbers  ", 4)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Status != models.TaskPending || task.Description != "quarterly numbers" {
		t.Errorf("task = %+v", task)
	}

	if _, err := h.app.CreateTask("  ", "", 0); err == nil {
		t.Error("expected empty title to be rejected")
	}

	status := "completed"
	updated, err := h.app.UpdateTask(task.ID, TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != models.TaskCompleted {
		t.Errorf("status = %q", updated.Status)
	}

	bad := "nonsense"
	if _, err := h.app.UpdateTask(task.ID, TaskUpdate{Status: &bad}); err == nil {
		t.Error("expected invalid status to be rejected")
	}

	removed, err := h.app.DeleteTask(task.ID)
	if err != nil || !removed {
		t.Fatalf("DeleteTask = %v, %v", removed, err)
	}
	if removed, _ := h.app.DeleteTask(task.ID); removed {
		t.Error("second delete should report false")
	}
	if tasks := h.app.ListTasks(); len(tasks) != 0 {
		t.Errorf("ListTasks = %v, want empty", tasks)
	}
}

func TestSplitTaskDividesEstimatedCycles(t *testing.T) {
	h := newHarness(t, false)
	task, err := h.app.CreateTask("Big refactor", "", 7)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	parts, err := h.app.SplitTask(task.ID, 3)
	if err != nil {
		t.Fatalf("SplitTask failed: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	cycles := []int{parts[0].EstimatedCycles, parts[1].EstimatedCycles, parts[2].EstimatedCycles}
	if cycles[0] != 3 || cycles[1] != 2 || cycles[2] != 2 {
		t.Errorf("cycles = %v, want remainder on the first parts", cycles)
	}

	if tasks := h.app.ListTasks(); len(tasks) != 3 {
		t.Errorf("original task should be gone, have %d tasks", len(tasks))
	}
	if _, err := h.app.SplitTask(parts[0].ID, 1); err == nil {
		t.Error("expected parts < 2 to be rejected")
	}
}

func TestCarryOverTaskPrefersCandidates(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	if len(blocks) < 3 {
		t.Fatalf("need at least 3 blocks, have %d", len(blocks))
	}
	task, err := h.app.CreateTask("Carry me", "", 2)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := h.app.StartPomodoro(blocks[0].ID, task.ID); err != nil {
		t.Fatalf("StartPomodoro failed: %v", err)
	}
	if _, err := h.app.CompletePomodoro(); err != nil {
		t.Fatalf("CompletePomodoro failed: %v", err)
	}

	target, err := h.app.CarryOverTask(task.ID, blocks[0].ID, []string{blocks[2].ID})
	if err != nil {
		t.Fatalf("CarryOverTask failed: %v", err)
	}
	if target.ID != blocks[2].ID {
		t.Errorf("carried to %s, want the candidate %s", target.ID, blocks[2].ID)
	}

	listed := h.app.ListBlocks(testDate)
	for _, block := range listed {
		switch block.ID {
		case blocks[0].ID:
			if block.TaskID != "" {
				t.Errorf("source block still assigned: %q", block.TaskID)
			}
		case blocks[2].ID:
			if block.TaskID != task.ID {
				t.Errorf("target block assignment = %q", block.TaskID)
			}
		}
	}
}

func TestCarryOverTaskFallsBackToNextFreeBlock(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	task, err := h.app.CreateTask("Carry me", "", 0)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	target, err := h.app.CarryOverTask(task.ID, blocks[0].ID, nil)
	if err != nil {
		t.Fatalf("CarryOverTask failed: %v", err)
	}
	if target.ID != blocks[1].ID {
		t.Errorf("carried to %s, want the next block %s", target.ID, blocks[1].ID)
	}
}

func TestStartPomodoroAssignsTaskToBlock(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	task, err := h.app.CreateTask("Focus target", "", 2)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	session, err := h.app.StartPomodoro(blocks[0].ID, task.ID)
	if err != nil {
		t.Fatalf("StartPomodoro failed: %v", err)
	}
	if session.Phase != models.PhaseFocus || session.BlockID != blocks[0].ID {
		t.Errorf("session = %+v", session)
	}

	tasks := h.app.ListTasks()
	if tasks[0].Status != models.TaskInProgress {
		t.Errorf("task status = %q, want in_progress", tasks[0].Status)
	}
	listed := h.app.ListBlocks(testDate)
	if listed[0].TaskID != task.ID {
		t.Errorf("block assignment = %q", listed[0].TaskID)
	}

	if _, err := h.app.StartPomodoro(blocks[1].ID, ""); err == nil {
		t.Error("expected start to fail while a session runs")
	}
}

func TestStartPomodoroRejectsUnknownBlockAndTask(t *testing.T) {
	h := newHarness(t, false)
	if _, err := h.app.StartPomodoro("missing", ""); err == nil {
		t.Error("expected unknown block to be rejected")
	}

	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	if _, err := h.app.StartPomodoro(blocks[0].ID, "missing"); err == nil {
		t.Error("expected unknown task to be rejected")
	}
}

func TestPomodoroLifecycleThroughCommands(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	if _, err := h.app.StartPomodoro(blocks[0].ID, ""); err != nil {
		t.Fatalf("StartPomodoro failed: %v", err)
	}

	session, err := h.app.AdvancePomodoro()
	if err != nil {
		t.Fatalf("AdvancePomodoro failed: %v", err)
	}
	if session.Phase != models.PhaseBreak {
		t.Errorf("phase = %q, want break", session.Phase)
	}

	if _, err := h.app.PausePomodoro("phone"); err != nil {
		t.Fatalf("PausePomodoro failed: %v", err)
	}
	session, err = h.app.ResumePomodoro()
	if err != nil {
		t.Fatalf("ResumePomodoro failed: %v", err)
	}
	if session.Phase != models.PhaseBreak {
		t.Errorf("resumed phase = %q, want break", session.Phase)
	}

	if _, err := h.app.CompletePomodoro(); err != nil {
		t.Fatalf("CompletePomodoro failed: %v", err)
	}
	if state := h.app.GetPomodoroState(); state.Phase != models.PhaseIdle {
		t.Errorf("state = %q, want idle", state.Phase)
	}
}

func TestCompletePomodoroCreditsTaskCycles(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	task, err := h.app.CreateTask("Credit me", "", 3)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := h.app.StartPomodoro(blocks[0].ID, task.ID); err != nil {
		t.Fatalf("StartPomodoro failed: %v", err)
	}
	if _, err := h.app.AdvancePomodoro(); err != nil { // close one focus cycle
		t.Fatalf("AdvancePomodoro failed: %v", err)
	}
	if _, err := h.app.CompletePomodoro(); err != nil {
		t.Fatalf("CompletePomodoro failed: %v", err)
	}

	tasks := h.app.ListTasks()
	if tasks[0].CompletedCycles != 1 {
		t.Errorf("completed cycles = %d, want 1", tasks[0].CompletedCycles)
	}
}

func TestGetReflectionSummaryDefaultsToToday(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	if _, err := h.app.StartPomodoro(blocks[0].ID, ""); err != nil {
		t.Fatalf("StartPomodoro failed: %v", err)
	}
	if _, err := h.app.AdvancePomodoro(); err != nil {
		t.Fatalf("AdvancePomodoro failed: %v", err)
	}
	if _, err := h.app.CompletePomodoro(); err != nil {
		t.Fatalf("CompletePomodoro failed: %v", err)
	}

	summary := h.app.GetReflectionSummary(nil, nil)
	if summary.CompletedCount != 1 {
		t.Errorf("completed = %d, want 1", summary.CompletedCount)
	}
	if len(summary.Logs) == 0 {
		t.Error("expected logs in the summary")
	}

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := past.Add(24 * time.Hour)
	if empty := h.app.GetReflectionSummary(&past, &end); empty.CompletedCount != 0 {
		t.Errorf("out-of-window summary = %+v", empty)
	}
}

func TestCompletePomodoroCapsCreditAtEstimate(t *testing.T) {
	h := newHarness(t, false)
	blocks, err := h.app.GenerateBlocks(context.Background(), testDate, "")
	if err != nil {
		t.Fatalf("GenerateBlocks failed: %v", err)
	}
	task, err := h.app.CreateTask("Small task", "", 1)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	// Two full rounds; the second must not push the credit past the estimate.
	for round, blockID := range []string{blocks[0].ID, blocks[1].ID} {
		if _, err := h.app.StartPomodoro(blockID, task.ID); err != nil {
			t.Fatalf("round %d: StartPomodoro failed: %v", round, err)
		}
		if _, err := h.app.AdvancePomodoro(); err != nil {
			t.Fatalf("round %d: AdvancePomodoro failed: %v", round, err)
		}
		if _, err := h.app.CompletePomodoro(); err != nil {
			t.Fatalf("round %d: CompletePomodoro failed: %v", round, err)
		}
	}

	tasks := h.app.ListTasks()
	if tasks[0].CompletedCycles != 1 {
		t.Errorf("completed cycles = %d, want capped at the estimate 1", tasks[0].CompletedCycles)
	}
	if err := tasks[0].Validate(); err != nil {
		t.Errorf("task no longer validates: %v", err)
	}
}
