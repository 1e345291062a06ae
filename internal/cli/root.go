package cli

import (
	"fmt"
	"time"

	"github.com/colinaird/pomblock/internal/app"
	"github.com/colinaird/pomblock/internal/models"
)

type Context struct {
	App *app.App
	Now func() time.Time
}

func (ctx *Context) now() time.Time {
	if ctx.Now != nil {
		return ctx.Now()
	}
	return time.Now()
}

// resolveDate accepts YYYY-MM-DD, "today" or "tomorrow".
func (ctx *Context) resolveDate(s string) (string, error) {
	switch s {
	case "", "today":
		return ctx.now().Format("2006-01-02"), nil
	case "tomorrow":
		return ctx.now().AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD, 'today' or 'tomorrow': %w", s, err)
	}
	return s, nil
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, use RFC 3339 (e.g. 2026-02-16T09:00:00Z): %w", s, err)
	}
	return ts, nil
}

func parseOptionalTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	ts, err := parseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func printBlocks(blocks []models.Block) {
	for _, b := range blocks {
		printBlock(b)
	}
}

func printBlock(b models.Block) {
	synced := " "
	if b.CalendarEventID != "" {
		synced = "*"
	}
	fmt.Printf("  %s%s  %s–%s  %-8s %-5s %s (cycles %d)\n",
		synced, b.ID,
		b.StartAt.Format("15:04"), b.EndAt.Format("15:04"),
		b.BlockType, b.Firmness, b.InstanceKey, b.PlannedCycles)
	if b.TaskID != "" {
		fmt.Printf("      task: %s\n", b.TaskID)
	}
}

func printSession(s models.PomodoroSession) {
	if s.Phase == models.PhaseIdle {
		fmt.Println("No pomodoro session running")
		return
	}
	fmt.Printf("Phase: %s", s.Phase)
	if s.Phase == models.PhasePaused {
		fmt.Printf(" (was %s)", s.PausedPhase)
	}
	fmt.Printf("  cycle %d/%d  completed %d\n", s.CurrentCycle, s.TotalCycles, s.CompletedCycles)
	fmt.Printf("Block: %s", s.BlockID)
	if s.TaskID != "" {
		fmt.Printf("  task: %s", s.TaskID)
	}
	fmt.Println()
	fmt.Printf("Phase started: %s\n", s.PhaseStarted.Format(time.RFC3339))
}
