package cli

import (
	"fmt"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

type PomStartCmd struct {
	Block string `arg:"" help:"Block to run the session in."`
	Task  string `help:"Task to work on during the session."`
}

func (c *PomStartCmd) Run(ctx *Context) error {
	session, err := ctx.App.StartPomodoro(c.Block, c.Task)
	if err != nil {
		return err
	}
	fmt.Printf("Focus! Cycle 1 of %d\n", session.TotalCycles)
	return nil
}

type PomAdvanceCmd struct{}

func (c *PomAdvanceCmd) Run(ctx *Context) error {
	session, err := ctx.App.AdvancePomodoro()
	if err != nil {
		return err
	}
	switch session.Phase {
	case models.PhaseBreak:
		fmt.Printf("Break time. %d of %d cycles done\n", session.CompletedCycles, session.TotalCycles)
	case models.PhaseFocus:
		fmt.Printf("Back to focus. Cycle %d of %d\n", session.CurrentCycle, session.TotalCycles)
	case models.PhaseIdle:
		fmt.Println("Session complete, nice work")
	}
	return nil
}

type PomPauseCmd struct {
	Reason string `arg:"" help:"Why the session is interrupted." optional:""`
}

func (c *PomPauseCmd) Run(ctx *Context) error {
	session, err := ctx.App.PausePomodoro(c.Reason)
	if err != nil {
		return err
	}
	fmt.Printf("Paused (%s phase)\n", session.PausedPhase)
	return nil
}

type PomResumeCmd struct{}

func (c *PomResumeCmd) Run(ctx *Context) error {
	session, err := ctx.App.ResumePomodoro()
	if err != nil {
		return err
	}
	fmt.Printf("Resumed %s, cycle %d of %d\n", session.Phase, session.CurrentCycle, session.TotalCycles)
	return nil
}

type PomCompleteCmd struct{}

func (c *PomCompleteCmd) Run(ctx *Context) error {
	if _, err := ctx.App.CompletePomodoro(); err != nil {
		return err
	}
	fmt.Println("Session ended")
	return nil
}

type PomStatusCmd struct{}

func (c *PomStatusCmd) Run(ctx *Context) error {
	printSession(ctx.App.GetPomodoroState())
	return nil
}

type ReflectCmd struct {
	From string `help:"Window start (RFC 3339). Defaults to today."`
	To   string `help:"Window end (RFC 3339). Defaults to 24h after start."`
	Logs bool   `help:"Also print each session log."`
}

func (c *ReflectCmd) Run(ctx *Context) error {
	start, err := parseOptionalTimestamp(c.From)
	if err != nil {
		return err
	}
	end, err := parseOptionalTimestamp(c.To)
	if err != nil {
		return err
	}

	summary := ctx.App.GetReflectionSummary(start, end)
	fmt.Printf("Reflection %s to %s\n", summary.Start, summary.End)
	fmt.Printf("  Completed pomodoros:   %d\n", summary.CompletedCount)
	fmt.Printf("  Interrupted pomodoros: %d\n", summary.InterruptedCount)
	fmt.Printf("  Focus minutes:         %d\n", summary.TotalFocusMinutes)

	if c.Logs {
		for _, log := range summary.Logs {
			end := "open"
			if log.EndTime != nil {
				end = log.EndTime.Format(time.RFC3339)
			}
			line := fmt.Sprintf("  %s  %s  %s → %s", log.ID, log.Phase,
				log.StartTime.Format(time.RFC3339), end)
			if log.InterruptionReason != "" {
				line += "  (" + log.InterruptionReason + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}
