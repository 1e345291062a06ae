package models

import "time"

// PomodoroPhase is the active phase of a running session.
type PomodoroPhase string

const (
	PhaseIdle   PomodoroPhase = "idle"
	PhaseFocus  PomodoroPhase = "focus"
	PhaseBreak  PomodoroPhase = "break"
	PhasePaused PomodoroPhase = "paused"
)

// PomodoroSession is the single in-memory session; at most one exists.
type PomodoroSession struct {
	BlockID         string        `json:"block_id"`
	TaskID          string        `json:"task_id,omitempty"`
	Phase           PomodoroPhase `json:"phase"`
	PausedPhase     PomodoroPhase `json:"paused_phase,omitempty"`
	CurrentCycle    int           `json:"current_cycle"`
	CompletedCycles int           `json:"completed_cycles"`
	TotalCycles     int           `json:"total_cycles"`
	PhaseStarted    time.Time     `json:"phase_started"`
}

// PomodoroLog is one append-only record of a completed or interrupted phase.
type PomodoroLog struct {
	ID                 string        `json:"id"`
	BlockID            string        `json:"block_id"`
	TaskID             string        `json:"task_id,omitempty"`
	Phase              PomodoroPhase `json:"phase"`
	StartTime          time.Time     `json:"start_time"`
	EndTime            *time.Time    `json:"end_time,omitempty"`
	InterruptionReason string        `json:"interruption_reason,omitempty"`
}

// ReflectionSummary aggregates the pomodoro logs of a time window.
type ReflectionSummary struct {
	Start             string        `json:"start"`
	End               string        `json:"end"`
	CompletedCount    int           `json:"completed_count"`
	InterruptedCount  int           `json:"interrupted_count"`
	TotalFocusMinutes int           `json:"total_focus_minutes"`
	Logs              []PomodoroLog `json:"logs"`
}
