// Package pomodoro runs the in-process focus timer state machine and
// keeps its append-only phase log.
package pomodoro

import (
	"time"

	"github.com/google/uuid"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

const manualCompleteReason = "manual_complete"

// Engine is the single pomodoro state machine. It is not safe for
// concurrent use; callers serialize access under their runtime lock.
type Engine struct {
	session *models.PomodoroSession
	logs    []models.PomodoroLog

	focusSeconds int
	now          func() time.Time
	newID        func() string
}

func NewEngine() *Engine {
	return &Engine{
		focusSeconds: constants.PomodoroFocusSeconds,
		now:          time.Now,
		newID:        func() string { return "pom-" + uuid.NewString() },
	}
}

// WithNow overrides the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Start enters focus for a block. The session plan caps the cycle count
// at what actually fits inside the block given the policy's break length.
func (e *Engine) Start(block models.Block, taskID string, breakMinutes int) (models.PomodoroSession, error) {
	if e.session != nil {
		return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
			"a pomodoro session is already running in phase %s", e.session.Phase)
	}

	breakSeconds := breakMinutes * 60
	if breakSeconds < constants.PomodoroMinBreakSeconds {
		breakSeconds = constants.PomodoroMinBreakSeconds
	}
	blockSeconds := int(block.Duration().Seconds())
	fitting := blockSeconds / (e.focusSeconds + breakSeconds)
	total := block.PlannedCycles
	if fitting < total {
		total = fitting
	}
	if total < 1 {
		total = 1
	}

	now := e.now()
	e.session = &models.PomodoroSession{
		BlockID:      block.ID,
		TaskID:       taskID,
		Phase:        models.PhaseFocus,
		CurrentCycle: 1,
		TotalCycles:  total,
		PhaseStarted: now,
	}
	e.openLog(models.PhaseFocus, now)
	return *e.session, nil
}

// Advance moves focus to break, and break to the next focus or back to
// idle once every planned cycle has run.
func (e *Engine) Advance() (models.PomodoroSession, error) {
	if e.session == nil {
		return models.PomodoroSession{}, notRunning("advance")
	}
	now := e.now()
	switch e.session.Phase {
	case models.PhaseFocus:
		e.closeLog(now, "")
		if e.session.CompletedCycles < e.session.TotalCycles {
			e.session.CompletedCycles++
		}
		e.session.Phase = models.PhaseBreak
		e.session.PhaseStarted = now
		e.openLog(models.PhaseBreak, now)
	case models.PhaseBreak:
		e.closeLog(now, "")
		if e.session.CompletedCycles < e.session.TotalCycles {
			e.session.CurrentCycle++
			e.session.Phase = models.PhaseFocus
			e.session.PhaseStarted = now
			e.openLog(models.PhaseFocus, now)
		} else {
			e.session = nil
			return models.PomodoroSession{Phase: models.PhaseIdle}, nil
		}
	default:
		return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
			"cannot advance from phase %s", e.session.Phase)
	}
	return *e.session, nil
}

// Pause interrupts the running phase. The phase is remembered so Resume
// can restore it.
func (e *Engine) Pause(reason string) (models.PomodoroSession, error) {
	if e.session == nil {
		return models.PomodoroSession{}, notRunning("pause")
	}
	if e.session.Phase != models.PhaseFocus && e.session.Phase != models.PhaseBreak {
		return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
			"cannot pause from phase %s", e.session.Phase)
	}
	if reason == "" {
		reason = "paused"
	}
	now := e.now()
	e.closeLog(now, reason)
	e.session.PausedPhase = e.session.Phase
	e.session.Phase = models.PhasePaused
	e.session.PhaseStarted = now
	return *e.session, nil
}

// Resume restores the phase that was paused and opens a fresh log.
func (e *Engine) Resume() (models.PomodoroSession, error) {
	if e.session == nil {
		return models.PomodoroSession{}, notRunning("resume")
	}
	if e.session.Phase != models.PhasePaused {
		return models.PomodoroSession{}, apperrors.New(apperrors.KindInvalidConfig,
			"cannot resume from phase %s", e.session.Phase)
	}
	now := e.now()
	e.session.Phase = e.session.PausedPhase
	e.session.PausedPhase = ""
	e.session.PhaseStarted = now
	e.openLog(e.session.Phase, now)
	return *e.session, nil
}

// Complete ends the session from any running phase.
func (e *Engine) Complete() (models.PomodoroSession, error) {
	if e.session == nil {
		return models.PomodoroSession{}, notRunning("complete")
	}
	now := e.now()
	if e.session.Phase == models.PhaseFocus || e.session.Phase == models.PhaseBreak {
		e.closeLog(now, manualCompleteReason)
	}
	e.session = nil
	return models.PomodoroSession{Phase: models.PhaseIdle}, nil
}

// State returns the current session, or an idle snapshot when none runs.
func (e *Engine) State() models.PomodoroSession {
	if e.session == nil {
		return models.PomodoroSession{Phase: models.PhaseIdle}
	}
	return *e.session
}

// Logs returns a copy of every recorded phase log.
func (e *Engine) Logs() []models.PomodoroLog {
	out := make([]models.PomodoroLog, len(e.logs))
	copy(out, e.logs)
	return out
}

// Reflect aggregates closed logs whose start falls inside [start, end].
func (e *Engine) Reflect(start, end time.Time) models.ReflectionSummary {
	summary := models.ReflectionSummary{
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
	}
	for _, entry := range e.logs {
		if entry.EndTime == nil || entry.StartTime.Before(start) || entry.StartTime.After(end) {
			continue
		}
		summary.Logs = append(summary.Logs, entry)
		if entry.InterruptionReason != "" {
			summary.InterruptedCount++
		} else if entry.Phase == models.PhaseFocus {
			summary.CompletedCount++
		}
		if entry.Phase == models.PhaseFocus {
			minutes := int(entry.EndTime.Sub(entry.StartTime).Minutes())
			if minutes > 0 {
				summary.TotalFocusMinutes += minutes
			}
		}
	}
	return summary
}

func (e *Engine) openLog(phase models.PomodoroPhase, start time.Time) {
	e.logs = append(e.logs, models.PomodoroLog{
		ID:        e.newID(),
		BlockID:   e.session.BlockID,
		TaskID:    e.session.TaskID,
		Phase:     phase,
		StartTime: start,
	})
}

func (e *Engine) closeLog(end time.Time, reason string) {
	if len(e.logs) == 0 {
		return
	}
	last := &e.logs[len(e.logs)-1]
	if last.EndTime != nil {
		return
	}
	endCopy := end
	last.EndTime = &endCopy
	last.InterruptionReason = reason
}

func notRunning(op string) error {
	return apperrors.New(apperrors.KindInvalidConfig,
		"cannot %s: no pomodoro session is running", op)
}
