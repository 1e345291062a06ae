package cli

import (
	"context"
	"fmt"
)

type SyncCmd struct {
	Account string `help:"Calendar account to sync." default:""`
	From    string `help:"Window start (RFC 3339). Defaults to today."`
	To      string `help:"Window end (RFC 3339). Defaults to 24h after start."`
}

func (c *SyncCmd) Run(ctx *Context) error {
	timeMin, err := parseOptionalTimestamp(c.From)
	if err != nil {
		return err
	}
	timeMax, err := parseOptionalTimestamp(c.To)
	if err != nil {
		return err
	}

	res, err := ctx.App.SyncCalendar(context.Background(), c.Account, timeMin, timeMax)
	if err != nil {
		return err
	}

	fmt.Printf("Synced calendar %s: %d added, %d updated, %d deleted\n",
		res.CalendarID, res.Added, res.Updated, res.Deleted)
	if res.Relocated > 0 {
		fmt.Printf("Relocated %d displaced blocks\n", res.Relocated)
	}
	for _, key := range res.SuppressedKeys {
		fmt.Printf("Suppressed (calendar cancelled): %s\n", key)
	}
	for _, msg := range res.ManualAdjustments {
		fmt.Printf("Manual adjustment required: %s\n", msg)
	}
	if res.NextContinuationToken != "" {
		fmt.Println("More pages remain; run sync again to continue")
	}
	return nil
}

type EventsCmd struct {
	Account string `help:"Calendar account." default:""`
	From    string `help:"Window start (RFC 3339)."`
	To      string `help:"Window end (RFC 3339)."`
}

func (c *EventsCmd) Run(ctx *Context) error {
	timeMin, err := parseOptionalTimestamp(c.From)
	if err != nil {
		return err
	}
	timeMax, err := parseOptionalTimestamp(c.To)
	if err != nil {
		return err
	}

	events := ctx.App.ListSyncedEvents(c.Account, timeMin, timeMax)
	if len(events) == 0 {
		fmt.Println("No synced events")
		return nil
	}
	for _, ev := range events {
		window := "all-day"
		if start, end, ok := ev.Interval(); ok {
			window = fmt.Sprintf("%s–%s", start.Format("15:04"), end.Format("15:04"))
		}
		fmt.Printf("  %s  %-13s %-10s %s\n", ev.NormalizedID(), window, ev.Status, ev.Summary)
	}
	return nil
}

type RelocateCmd struct {
	Block   string `arg:"" help:"Block to relocate around its remote conflicts."`
	Account string `help:"Calendar account." default:""`
}

func (c *RelocateCmd) Run(ctx *Context) error {
	moved, err := ctx.App.RelocateIfNeeded(context.Background(), c.Block, c.Account)
	if err != nil {
		return err
	}
	if moved {
		fmt.Println("Block relocated")
	} else {
		fmt.Println("Block left in place")
	}
	return nil
}
