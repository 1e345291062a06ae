package models

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskDeferred   TaskStatus = "deferred"
)

// Task is an optional label attachable to at most one block at a time.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	EstimatedCycles int        `json:"estimated_cycles,omitempty"` // 0 means unset
	CompletedCycles int        `json:"completed_cycles"`
	Status          TaskStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t Task) Validate() error {
	if err := requireNonEmpty(t.ID, "task.id"); err != nil {
		return err
	}
	if err := requireNonEmpty(t.Title, "task.title"); err != nil {
		return err
	}
	if t.EstimatedCycles > 0 && t.CompletedCycles > t.EstimatedCycles {
		return validationError("task.completed_cycles must be <= task.estimated_cycles")
	}
	return nil
}

// ParseTaskStatus maps a user-supplied status string to a TaskStatus
func ParseTaskStatus(value string) (TaskStatus, bool) {
	switch normalize(value) {
	case "pending":
		return TaskPending, true
	case "in_progress", "in-progress":
		return TaskInProgress, true
	case "completed":
		return TaskCompleted, true
	case "deferred":
		return TaskDeferred, true
	default:
		return "", false
	}
}
