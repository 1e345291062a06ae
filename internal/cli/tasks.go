package cli

import (
	"fmt"

	"github.com/colinaird/pomblock/internal/app"
	"github.com/colinaird/pomblock/internal/models"
)

type TaskAddCmd struct {
	Title       string `arg:"" help:"Task title."`
	Description string `help:"Longer description."`
	Cycles      int    `help:"Estimated pomodoro cycles (0 = unset)."`
}

func (c *TaskAddCmd) Validate() error {
	if c.Cycles < 0 {
		return fmt.Errorf("cycles must not be negative, got %d", c.Cycles)
	}
	return nil
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	task, err := ctx.App.CreateTask(c.Title, c.Description, c.Cycles)
	if err != nil {
		return err
	}
	fmt.Printf("Added task %s: %s\n", task.ID, task.Title)
	return nil
}

type TaskEditCmd struct {
	Task        string  `arg:"" help:"Task to edit."`
	Title       *string `help:"New title."`
	Description *string `help:"New description."`
	Cycles      *int    `help:"New estimated cycle count."`
	Status      *string `help:"New status (pending, in_progress, completed)."`
}

func (c *TaskEditCmd) Run(ctx *Context) error {
	task, err := ctx.App.UpdateTask(c.Task, app.TaskUpdate{
		Title:           c.Title,
		Description:     c.Description,
		EstimatedCycles: c.Cycles,
		Status:          c.Status,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Updated task %s\n", task.ID)
	printTask(task)
	return nil
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task to delete."`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	removed, err := ctx.App.DeleteTask(c.Task)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No task %s\n", c.Task)
		return nil
	}
	fmt.Printf("Deleted %s\n", c.Task)
	return nil
}

type TaskSplitCmd struct {
	Task  string `arg:"" help:"Task to split."`
	Parts int    `arg:"" help:"Number of parts (at least 2)."`
}

func (c *TaskSplitCmd) Validate() error {
	if c.Parts < 2 {
		return fmt.Errorf("parts must be at least 2, got %d", c.Parts)
	}
	return nil
}

func (c *TaskSplitCmd) Run(ctx *Context) error {
	parts, err := ctx.App.SplitTask(c.Task, c.Parts)
	if err != nil {
		return err
	}
	fmt.Printf("Split into %d tasks:\n", len(parts))
	for _, part := range parts {
		printTask(part)
	}
	return nil
}

type TaskCarryCmd struct {
	Task       string   `arg:"" help:"Task to carry over."`
	FromBlock  string   `arg:"" help:"Block the task did not finish in."`
	Candidates []string `help:"Preferred target block ids, in order."`
}

func (c *TaskCarryCmd) Run(ctx *Context) error {
	target, err := ctx.App.CarryOverTask(c.Task, c.FromBlock, c.Candidates)
	if err != nil {
		return err
	}
	fmt.Printf("Carried %s to block %s (%s–%s)\n", c.Task, target.ID,
		target.StartAt.Format("15:04"), target.EndAt.Format("15:04"))
	return nil
}

type TaskListCmd struct {
	Status string `help:"Show only tasks with this status."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	tasks := ctx.App.ListTasks()
	if len(tasks) == 0 {
		fmt.Println("No tasks")
		return nil
	}
	fmt.Println("Tasks:")
	for _, task := range tasks {
		if c.Status != "" && string(task.Status) != c.Status {
			continue
		}
		printTask(task)
	}
	return nil
}

func printTask(t models.Task) {
	cycles := ""
	if t.EstimatedCycles > 0 {
		cycles = fmt.Sprintf(", %d/%d cycles", t.CompletedCycles, t.EstimatedCycles)
	} else if t.CompletedCycles > 0 {
		cycles = fmt.Sprintf(", %d cycles done", t.CompletedCycles)
	}
	fmt.Printf("  [%s] %s - %s%s\n", t.Status, t.ID, t.Title, cycles)
	if t.Description != "" {
		fmt.Printf("      %s\n", t.Description)
	}
}
