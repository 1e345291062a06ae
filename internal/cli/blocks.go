package cli

import (
	"context"
	"fmt"

	"github.com/colinaird/pomblock/internal/models"
)

type GenerateCmd struct {
	Date    string `arg:"" help:"Date to fill (YYYY-MM-DD or 'today')." default:"today"`
	Account string `help:"Calendar account for event mirroring." default:""`
	One     bool   `help:"Place a single block in the first opening instead of filling the day."`
}

func (c *GenerateCmd) Run(ctx *Context) error {
	date, err := ctx.resolveDate(c.Date)
	if err != nil {
		return err
	}

	var blocks []models.Block
	if c.One {
		blocks, err = ctx.App.GenerateOneBlock(context.Background(), date, c.Account)
	} else {
		blocks, err = ctx.App.GenerateBlocks(context.Background(), date, c.Account)
	}
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		fmt.Printf("No blocks generated for %s\n", date)
		return nil
	}
	fmt.Printf("Generated %d blocks for %s:\n", len(blocks), date)
	printBlocks(blocks)
	return nil
}

type BlockListCmd struct {
	Date string `arg:"" help:"Date to list (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *BlockListCmd) Run(ctx *Context) error {
	date, err := ctx.resolveDate(c.Date)
	if err != nil {
		return err
	}

	blocks := ctx.App.ListBlocks(date)
	if len(blocks) == 0 {
		fmt.Printf("No blocks for %s\n", date)
		return nil
	}
	fmt.Printf("Blocks for %s (* = synced to calendar):\n", date)
	printBlocks(blocks)
	return nil
}

type ApproveCmd struct {
	Blocks []string `arg:"" help:"Block ids to promote from draft to soft."`
}

func (c *ApproveCmd) Run(ctx *Context) error {
	approved, err := ctx.App.ApproveBlocks(context.Background(), c.Blocks)
	if err != nil {
		return err
	}
	if len(approved) == 0 {
		fmt.Println("No blocks approved")
		return nil
	}
	fmt.Printf("Approved %d blocks:\n", len(approved))
	printBlocks(approved)
	return nil
}

type AdjustCmd struct {
	Block string `arg:"" help:"Block to adjust."`
	Start string `arg:"" help:"New start (RFC 3339)."`
	End   string `arg:"" help:"New end (RFC 3339)."`
}

func (c *AdjustCmd) Run(ctx *Context) error {
	start, err := parseTimestamp(c.Start)
	if err != nil {
		return err
	}
	end, err := parseTimestamp(c.End)
	if err != nil {
		return err
	}

	block, err := ctx.App.AdjustBlockTime(context.Background(), c.Block, start, end)
	if err != nil {
		return err
	}
	fmt.Println("Adjusted:")
	printBlock(block)
	return nil
}

type BlockDeleteCmd struct {
	Block string `arg:"" help:"Block to delete."`
}

func (c *BlockDeleteCmd) Run(ctx *Context) error {
	removed, err := ctx.App.DeleteBlock(context.Background(), c.Block)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No block %s\n", c.Block)
		return nil
	}
	fmt.Printf("Deleted %s; it will not come back on regeneration\n", c.Block)
	return nil
}
