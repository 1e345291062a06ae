package app

import (
	"context"
	"fmt"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/colinaird/pomblock/internal/scheduler"
)

// GenerateBlocks fills the date's free work time with draft blocks and
// mirrors them to the calendar when the account is authenticated.
func (a *App) GenerateBlocks(ctx context.Context, date, accountID string) ([]models.Block, error) {
	return a.generate(ctx, date, accountID, scheduler.ModeBulk, "generate_blocks")
}

// GenerateOneBlock places a single draft block, overlapping busy time if
// nothing else fits.
func (a *App) GenerateOneBlock(ctx context.Context, date, accountID string) ([]models.Block, error) {
	return a.generate(ctx, date, accountID, scheduler.ModeSingle, "generate_one_block")
}

func (a *App) generate(ctx context.Context, date, accountID string, mode scheduler.Mode, command string) ([]models.Block, error) {
	started := a.now()
	accountID = a.account(accountID)

	policy, err := a.cfg.PolicyFor(date)
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}
	templates, err := a.cfg.LoadTemplates()
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}
	routines, err := a.cfg.LoadRoutines()
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}
	suppressions, err := a.store.ListSuppressions()
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}

	res, err := scheduler.Generate(scheduler.GenerateInput{
		Date:         date,
		Policy:       policy,
		Templates:    templates.Templates,
		Routines:     routines.Routines,
		Suppressions: suppressions,
		Events:       a.allEvents(),
		Existing:     a.blocksForDate(date),
		Mode:         mode,
		AccountID:    accountID,
		NewID:        func() string { return a.newID("blk") },
	})
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}
	for _, key := range res.PurgedSuppressions {
		if err := a.store.RemoveSuppression(key); err != nil {
			logger.CommandError(command, err.Error())
			return nil, err
		}
	}
	if len(res.Blocks) == 0 {
		logger.CommandInfo(command, "no blocks to generate for "+date)
		return nil, nil
	}

	// Without a token the blocks stay local; a later sync after
	// authentication can push them out.
	token, ok, err := a.accessToken(ctx, accountID)
	if err != nil {
		logger.CommandError(command, err.Error())
		return nil, err
	}
	if ok {
		calendarID, err := a.ensureCalendar(ctx, accountID, token)
		if err != nil {
			logger.CommandError(command, err.Error())
			return nil, err
		}
		if err := scheduler.Materialize(ctx, a.syncEngine(accountID), token, calendarID, res.Blocks); err != nil {
			// Keep the blocks whose events were created before the failure.
			a.commitBlocks(materializedOnly(res.Blocks))
			logger.CommandError(command, err.Error())
			return nil, err
		}
	}

	a.commitBlocks(res.Blocks)
	scheduler.ReportGenerationTiming(date, len(res.Blocks), a.now().Sub(started))
	logger.CommandInfo(command, fmt.Sprintf("generated %d blocks for %s", len(res.Blocks), date))
	return res.Blocks, nil
}

func materializedOnly(blocks []models.Block) []models.Block {
	var out []models.Block
	for _, block := range blocks {
		if block.CalendarEventID != "" {
			out = append(out, block)
		}
	}
	return out
}

func (a *App) commitBlocks(blocks []models.Block) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, block := range blocks {
		a.state.blocks[block.ID] = block
	}
}

// ApproveBlocks promotes draft blocks to soft and pushes the change to
// their remote twins. Unknown and blank IDs are skipped.
func (a *App) ApproveBlocks(ctx context.Context, blockIDs []string) ([]models.Block, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}

	var approved []models.Block
	a.mu.Lock()
	for _, raw := range blockIDs {
		id, err := requireID(raw, "block_id")
		if err != nil {
			continue
		}
		block, exists := a.state.blocks[id]
		if !exists {
			continue
		}
		block.Firmness = models.FirmnessSoft
		a.state.blocks[id] = block
		approved = append(approved, block)
	}
	a.mu.Unlock()

	if err := a.pushBlockUpdates(ctx, approved, "approve_blocks"); err != nil {
		return nil, err
	}
	logger.CommandInfo("approve_blocks", fmt.Sprintf("approved %d blocks", len(approved)))
	return approved, nil
}

// AdjustBlockTime moves a block to a new interval and updates the remote
// twin.
func (a *App) AdjustBlockTime(ctx context.Context, blockID string, start, end time.Time) (models.Block, error) {
	blockID, err := requireID(blockID, "block_id")
	if err != nil {
		return models.Block{}, err
	}
	if !end.After(start) {
		return models.Block{}, apperrors.New(apperrors.KindInvalidConfig,
			"end_at must be after start_at")
	}

	a.mu.Lock()
	block, exists := a.state.blocks[blockID]
	if exists {
		block.StartAt = start
		block.EndAt = end
		a.state.blocks[blockID] = block
	}
	a.mu.Unlock()
	if !exists {
		return models.Block{}, apperrors.New(apperrors.KindInvalidConfig,
			"block not found: %s", blockID)
	}

	if err := a.pushBlockUpdates(ctx, []models.Block{block}, "adjust_block_time"); err != nil {
		return models.Block{}, err
	}
	logger.CommandInfo("adjust_block_time", fmt.Sprintf("adjusted block_id=%s", blockID))
	return block, nil
}

// DeleteBlock removes a block, records a user-deleted suppression so
// regeneration skips it, and deletes the remote twin when the account is
// authenticated. Without a token the local delete still succeeds.
func (a *App) DeleteBlock(ctx context.Context, blockID string) (bool, error) {
	blockID, err := requireID(blockID, "block_id")
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	block, exists := a.state.blocks[blockID]
	if exists {
		delete(a.state.blocks, blockID)
	}
	a.mu.Unlock()
	if !exists {
		return false, nil
	}

	if err := a.store.AddSuppressions([]models.Suppression{{
		InstanceKey:  block.InstanceKey,
		Reason:       constants.ReasonUserDeleted,
		SuppressedAt: a.now(),
	}}); err != nil {
		logger.CommandError("delete_block", err.Error())
		return false, err
	}

	if block.CalendarEventID != "" {
		token, ok, err := a.accessToken(ctx, a.account(block.AccountID))
		if err != nil {
			logger.CommandError("delete_block", err.Error())
			return false, err
		}
		if ok {
			calendarID, err := a.ensureCalendar(ctx, a.account(block.AccountID), token)
			if err != nil {
				logger.CommandError("delete_block", err.Error())
				return false, err
			}
			if err := a.syncEngine(a.account(block.AccountID)).DeleteEvent(ctx, token, calendarID, block.CalendarEventID); err != nil {
				logger.CommandError("delete_block", err.Error())
				return false, err
			}
		} else {
			logger.Warn("remote twin left in place, account not authenticated",
				"block_id", blockID, "account", block.AccountID)
		}
	}

	logger.CommandInfo("delete_block", "deleted block_id="+blockID)
	return true, nil
}

// ListBlocks returns blocks sorted by start, optionally for one date.
func (a *App) ListBlocks(date string) []models.Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Block
	for _, block := range a.state.blocks {
		if date == "" || block.Date == date {
			out = append(out, block)
		}
	}
	sortBlocks(out)
	return out
}

// pushBlockUpdates mirrors changed blocks to their remote twins. The
// update is skipped silently when the account has no usable token.
func (a *App) pushBlockUpdates(ctx context.Context, blocks []models.Block, command string) error {
	for _, block := range blocks {
		if block.CalendarEventID == "" {
			continue
		}
		token, ok, err := a.accessToken(ctx, a.account(block.AccountID))
		if err != nil {
			logger.CommandError(command, err.Error())
			return err
		}
		if !ok {
			continue
		}
		calendarID, err := a.ensureCalendar(ctx, a.account(block.AccountID), token)
		if err != nil {
			logger.CommandError(command, err.Error())
			return err
		}
		if err := a.syncEngine(a.account(block.AccountID)).UpdateEvent(ctx, token, calendarID, block.CalendarEventID, gateway.EncodeBlockEvent(block)); err != nil {
			logger.CommandError(command, err.Error())
			return err
		}
	}
	return nil
}
