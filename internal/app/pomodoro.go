package app

import (
	"fmt"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
)

// StartPomodoro begins a focus session on a block. A task, when given,
// is assigned to the block and moved to in-progress.
func (a *App) StartPomodoro(blockID, taskID string) (models.PomodoroSession, error) {
	blockID, err := requireID(blockID, "block_id")
	if err != nil {
		return models.PomodoroSession{}, err
	}

	policies, err := a.cfg.LoadPolicies()
	if err != nil {
		logger.CommandError("start_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	block, exists := a.state.blocks[blockID]
	if !exists {
		return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
			"block not found: %s", blockID)
	}
	if taskID != "" {
		task, exists := a.state.tasks[taskID]
		if !exists {
			return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
				"task not found: %s", taskID)
		}
		// One block per task: detach it from wherever it was.
		for id, other := range a.state.blocks {
			if other.TaskID == taskID && id != blockID {
				other.TaskID = ""
				a.state.blocks[id] = other
			}
		}
		block.TaskID = taskID
		a.state.blocks[blockID] = block
		if task.Status != models.TaskCompleted {
			task.Status = models.TaskInProgress
			a.state.tasks[taskID] = task
		}
	}

	session, err := a.state.pomodoro.Start(block, taskID, policies.Policy.BreakDurationMinutes)
	if err != nil {
		logger.CommandError("start_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}
	logger.CommandInfo("start_pomodoro",
		fmt.Sprintf("started block_id=%s cycles=%d", blockID, session.TotalCycles))
	return session, nil
}

// AdvancePomodoro steps the state machine to its next phase.
func (a *App) AdvancePomodoro() (models.PomodoroSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.state.pomodoro.Advance()
	if err != nil {
		logger.CommandError("advance_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}
	logger.CommandInfo("advance_pomodoro", "phase="+string(session.Phase))
	return session, nil
}

// PausePomodoro interrupts the running phase.
func (a *App) PausePomodoro(reason string) (models.PomodoroSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.state.pomodoro.Pause(reason)
	if err != nil {
		logger.CommandError("pause_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}
	logger.CommandInfo("pause_pomodoro", "paused_phase="+string(session.PausedPhase))
	return session, nil
}

// ResumePomodoro restores the paused phase.
func (a *App) ResumePomodoro() (models.PomodoroSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.state.pomodoro.Resume()
	if err != nil {
		logger.CommandError("resume_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}
	logger.CommandInfo("resume_pomodoro", "phase="+string(session.Phase))
	return session, nil
}

// CompletePomodoro ends the session, crediting the focus work to the
// session's task.
func (a *App) CompletePomodoro() (models.PomodoroSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	before := a.state.pomodoro.State()
	session, err := a.state.pomodoro.Complete()
	if err != nil {
		logger.CommandError("complete_pomodoro", err.Error())
		return models.PomodoroSession{}, err
	}
	if before.TaskID != "" {
		if task, ok := a.state.tasks[before.TaskID]; ok {
			task.CompletedCycles += before.CompletedCycles
			// The estimate is a ceiling on credited cycles when set.
			if task.EstimatedCycles > 0 && task.CompletedCycles > task.EstimatedCycles {
				task.CompletedCycles = task.EstimatedCycles
			}
			a.state.tasks[before.TaskID] = task
		}
	}
	logger.CommandInfo("complete_pomodoro",
		fmt.Sprintf("completed block_id=%s cycles=%d", before.BlockID, before.CompletedCycles))
	return session, nil
}

// GetPomodoroState returns the current session snapshot.
func (a *App) GetPomodoroState() models.PomodoroSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.pomodoro.State()
}

// GetReflectionSummary aggregates pomodoro logs for a window, defaulting
// to the UTC day that contains now.
func (a *App) GetReflectionSummary(start, end *time.Time) models.ReflectionSummary {
	var from, to time.Time
	if start != nil {
		from = *start
	} else {
		now := a.now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if end != nil {
		to = *end
	} else {
		to = from.Add(24 * time.Hour)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.pomodoro.Reflect(from, to)
}
