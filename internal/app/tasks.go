package app

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
)

// CreateTask adds a pending task.
func (a *App) CreateTask(title, description string, estimatedCycles int) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, apperrors.New(apperrors.KindInvalidConfig,
			"title must not be empty")
	}

	task := models.Task{
		ID:              a.newID("tsk"),
		Title:           title,
		Description:     strings.TrimSpace(description),
		EstimatedCycles: estimatedCycles,
		Status:          models.TaskPending,
		CreatedAt:       a.now(),
	}

	a.mu.Lock()
	a.state.tasks[task.ID] = task
	a.state.taskOrder = append(a.state.taskOrder, task.ID)
	a.mu.Unlock()

	logger.CommandInfo("create_task", "created task_id="+task.ID)
	return task, nil
}

// TaskUpdate carries optional field changes; nil fields keep the current
// value.
type TaskUpdate struct {
	Title           *string
	Description     *string
	EstimatedCycles *int
	Status          *string
}

// UpdateTask applies a partial update to a task.
func (a *App) UpdateTask(taskID string, update TaskUpdate) (models.Task, error) {
	taskID, err := requireID(taskID, "task_id")
	if err != nil {
		return models.Task{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	task, exists := a.state.tasks[taskID]
	if !exists {
		return models.Task{}, apperrors.New(apperrors.KindInvalidConfig,
			"task not found: %s", taskID)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Task{}, apperrors.New(apperrors.KindInvalidConfig,
				"title must not be empty")
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if update.EstimatedCycles != nil {
		task.EstimatedCycles = *update.EstimatedCycles
	}
	if update.Status != nil {
		status, ok := models.ParseTaskStatus(*update.Status)
		if !ok {
			return models.Task{}, apperrors.New(apperrors.KindInvalidConfig,
				"invalid task status: %s", *update.Status)
		}
		task.Status = status
	}

	a.state.tasks[taskID] = task
	logger.CommandInfo("update_task", "updated task_id="+taskID)
	return task, nil
}

// DeleteTask removes a task and detaches it from any block.
func (a *App) DeleteTask(taskID string) (bool, error) {
	taskID, err := requireID(taskID, "task_id")
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.state.tasks[taskID]; !exists {
		return false, nil
	}
	delete(a.state.tasks, taskID)
	order := a.state.taskOrder[:0]
	for _, id := range a.state.taskOrder {
		if id != taskID {
			order = append(order, id)
		}
	}
	a.state.taskOrder = order
	for id, block := range a.state.blocks {
		if block.TaskID == taskID {
			block.TaskID = ""
			a.state.blocks[id] = block
		}
	}

	logger.CommandInfo("delete_task", "deleted task_id="+taskID)
	return true, nil
}

// SplitTask divides a task into parts, spreading the estimated cycles so
// earlier parts absorb the remainder. The original task is removed.
func (a *App) SplitTask(taskID string, parts int) ([]models.Task, error) {
	taskID, err := requireID(taskID, "task_id")
	if err != nil {
		return nil, err
	}
	if parts < 2 {
		return nil, apperrors.New(apperrors.KindInvalidConfig,
			"parts must be at least 2")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	task, exists := a.state.tasks[taskID]
	if !exists {
		return nil, apperrors.New(apperrors.KindInvalidConfig,
			"task not found: %s", taskID)
	}

	base := task.EstimatedCycles / parts
	remainder := task.EstimatedCycles % parts
	var created []models.Task
	for i := 0; i < parts; i++ {
		cycles := base
		if i < remainder {
			cycles++
		}
		part := models.Task{
			ID:              a.newID("tsk"),
			Title:           fmt.Sprintf("%s (%d/%d)", task.Title, i+1, parts),
			Description:     task.Description,
			EstimatedCycles: cycles,
			Status:          models.TaskPending,
			CreatedAt:       a.now(),
		}
		a.state.tasks[part.ID] = part
		a.state.taskOrder = append(a.state.taskOrder, part.ID)
		created = append(created, part)
	}

	delete(a.state.tasks, taskID)
	order := a.state.taskOrder[:0]
	for _, id := range a.state.taskOrder {
		if id != taskID {
			order = append(order, id)
		}
	}
	a.state.taskOrder = order
	for id, block := range a.state.blocks {
		if block.TaskID == taskID {
			block.TaskID = created[0].ID
			a.state.blocks[id] = block
		}
	}

	logger.CommandInfo("split_task", fmt.Sprintf("split task_id=%s into %d parts", taskID, parts))
	return created, nil
}

// CarryOverTask moves a task off a block onto the next unassigned block
// on the same or a later date. Candidate block IDs, when given, are
// preferred in order.
func (a *App) CarryOverTask(taskID, fromBlockID string, candidateIDs []string) (models.Block, error) {
	taskID, err := requireID(taskID, "task_id")
	if err != nil {
		return models.Block{}, err
	}
	fromBlockID, err = requireID(fromBlockID, "from_block_id")
	if err != nil {
		return models.Block{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.state.tasks[taskID]; !exists {
		return models.Block{}, apperrors.New(apperrors.KindInvalidConfig,
			"task not found: %s", taskID)
	}
	from, exists := a.state.blocks[fromBlockID]
	if !exists {
		return models.Block{}, apperrors.New(apperrors.KindInvalidConfig,
			"block not found: %s", fromBlockID)
	}

	target, found := a.pickCarryTarget(from, candidateIDs)
	if !found {
		return models.Block{}, apperrors.New(apperrors.KindInvalidConfig,
			"no block available to carry task %s over to", taskID)
	}

	if from.TaskID == taskID {
		from.TaskID = ""
		a.state.blocks[from.ID] = from
	}
	target.TaskID = taskID
	a.state.blocks[target.ID] = target

	logger.CommandInfo("carry_over_task",
		fmt.Sprintf("task_id=%s moved from block_id=%s to block_id=%s", taskID, fromBlockID, target.ID))
	return target, nil
}

// pickCarryTarget selects the destination block: explicit candidates in
// their given order, then the earliest unassigned block starting after
// the source. Callers hold the lock.
func (a *App) pickCarryTarget(from models.Block, candidateIDs []string) (models.Block, bool) {
	for _, id := range candidateIDs {
		if block, ok := a.state.blocks[id]; ok && block.TaskID == "" && block.ID != from.ID {
			return block, true
		}
	}

	var fallback []models.Block
	for _, block := range a.state.blocks {
		if block.ID == from.ID || block.TaskID != "" {
			continue
		}
		if block.StartAt.Before(from.StartAt) {
			continue
		}
		fallback = append(fallback, block)
	}
	if len(fallback) == 0 {
		return models.Block{}, false
	}
	sortBlocks(fallback)
	return fallback[0], true
}

// ListTasks returns tasks in creation order.
func (a *App) ListTasks() []models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Task
	for _, id := range a.state.taskOrder {
		if task, ok := a.state.tasks[id]; ok {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
