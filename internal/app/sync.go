package app

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/colinaird/pomblock/internal/scheduler"
)

// SyncResponse reports what one calendar sync changed.
type SyncResponse struct {
	Added                 int      `json:"added"`
	Updated               int      `json:"updated"`
	Deleted               int      `json:"deleted"`
	SuppressedKeys        []string `json:"suppressed_instance_keys,omitempty"`
	CalendarID            string   `json:"calendar_id"`
	NextContinuationToken string   `json:"next_continuation_token,omitempty"`
	Relocated             int      `json:"relocated"`
	ManualAdjustments     []string `json:"manual_adjustments,omitempty"`
}

// SyncCalendar pulls the account's calendar into the local mirror and
// then relocates any blocks the changes displaced.
func (a *App) SyncCalendar(ctx context.Context, accountID string, timeMin, timeMax *time.Time) (SyncResponse, error) {
	accountID = a.account(accountID)
	token, ok, err := a.accessToken(ctx, accountID)
	if err != nil {
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}
	if !ok {
		err := apperrors.New(apperrors.KindUnauthenticated,
			"account %s requires authentication", accountID)
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}

	calendarID, err := a.ensureCalendar(ctx, accountID, token)
	if err != nil {
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}

	start, end := a.syncWindow(timeMin, timeMax)
	engine := a.syncEngine(accountID)
	eventCache := a.cacheFor(accountID)

	// Deletions report IDs only; their displaced intervals come from the
	// mirror as it stood before the sync.
	before := make(map[string]models.RemoteEvent)
	for _, event := range eventCache.List() {
		before[event.NormalizedID()] = event
	}

	res, err := engine.Sync(ctx, token, calendarID, start, end)
	if err != nil {
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}
	a.setEvents(accountID, eventCache.List())

	var deleted []models.RemoteEvent
	for _, id := range res.DeletedIDs {
		if event, ok := before[id]; ok {
			deleted = append(deleted, event)
		}
	}
	relocated, manual, err := a.relocateDisplaced(ctx, accountID, token, calendarID,
		scheduler.ChangedIntervals(res.Added, res.Updated, deleted, start, end), nil)
	if err != nil {
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}

	// Relocation moved remote twins; bring the mirror back in line.
	events, err := engine.FetchEvents(ctx, token, calendarID, start, end)
	if err != nil {
		logger.CommandError("sync_calendar", err.Error())
		return SyncResponse{}, err
	}
	a.setEvents(accountID, events)

	response := SyncResponse{
		Added:                 len(res.Added),
		Updated:               len(res.Updated),
		Deleted:               len(res.DeletedIDs),
		SuppressedKeys:        res.SuppressedKeys,
		CalendarID:            calendarID,
		NextContinuationToken: res.NextContinuationToken,
		Relocated:             relocated,
		ManualAdjustments:     manual,
	}
	logger.CommandInfo("sync_calendar", fmt.Sprintf(
		"account=%s added=%d updated=%d deleted=%d relocated=%d",
		accountID, response.Added, response.Updated, response.Deleted, relocated))
	return response, nil
}

// RelocateIfNeeded re-evaluates a single block against the account's
// current events and moves it if a remote event sits on top of it.
func (a *App) RelocateIfNeeded(ctx context.Context, blockID, accountID string) (bool, error) {
	blockID, err := requireID(blockID, "block_id")
	if err != nil {
		return false, err
	}
	accountID = a.account(accountID)

	a.mu.Lock()
	block, exists := a.state.blocks[blockID]
	a.mu.Unlock()
	if !exists {
		return false, apperrors.New(apperrors.KindInvalidConfig,
			"block not found: %s", blockID)
	}

	token, ok, err := a.accessToken(ctx, accountID)
	if err != nil {
		logger.CommandError("relocate_if_needed", err.Error())
		return false, err
	}
	var calendarID string
	if ok {
		if calendarID, err = a.ensureCalendar(ctx, accountID, token); err != nil {
			logger.CommandError("relocate_if_needed", err.Error())
			return false, err
		}
	}

	changed := []scheduler.Interval{{Start: block.StartAt, End: block.EndAt}}
	relocated, manual, err := a.relocateDisplaced(ctx, accountID, token, calendarID, changed, []models.Block{block})
	if err != nil {
		logger.CommandError("relocate_if_needed", err.Error())
		return false, err
	}
	if len(manual) > 0 {
		return false, nil
	}
	logger.CommandInfo("relocate_if_needed", fmt.Sprintf("block=%s relocated=%d", blockID, relocated))
	return relocated > 0, nil
}

// ListSyncedEvents returns the in-memory mirror for an account, optionally
// narrowed to a window.
func (a *App) ListSyncedEvents(accountID string, timeMin, timeMax *time.Time) []models.RemoteEvent {
	accountID = a.account(accountID)
	a.mu.Lock()
	events := make([]models.RemoteEvent, len(a.state.events[accountID]))
	copy(events, a.state.events[accountID])
	a.mu.Unlock()

	if timeMin == nil && timeMax == nil {
		return events
	}
	var out []models.RemoteEvent
	for _, event := range events {
		start, end, ok := event.Interval()
		if !ok {
			continue
		}
		if timeMin != nil && !end.After(*timeMin) {
			continue
		}
		if timeMax != nil && !start.Before(*timeMax) {
			continue
		}
		out = append(out, event)
	}
	return out
}

// relocateDisplaced plans and applies relocations for blocks hit by the
// changed intervals. When only is non-nil the pass is restricted to those
// blocks. Moves mutate the local block first, then the remote twin.
func (a *App) relocateDisplaced(ctx context.Context, accountID, token, calendarID string, changed []scheduler.Interval, only []models.Block) (int, []string, error) {
	if len(changed) == 0 {
		return 0, nil, nil
	}
	policies, err := a.cfg.LoadPolicies()
	if err != nil {
		return 0, nil, err
	}

	blocks := only
	if blocks == nil {
		a.mu.Lock()
		for _, block := range a.state.blocks {
			if block.AccountID == accountID || block.AccountID == "" {
				blocks = append(blocks, block)
			}
		}
		a.mu.Unlock()
	}

	a.mu.Lock()
	events := make([]models.RemoteEvent, len(a.state.events[accountID]))
	copy(events, a.state.events[accountID])
	a.mu.Unlock()

	plan, err := scheduler.PlanRelocations(scheduler.RelocateInput{
		Policy:  policies.Policy,
		Blocks:  blocks,
		Events:  events,
		Changed: changed,
	})
	if err != nil {
		return 0, nil, err
	}

	engine := a.syncEngine(accountID)
	relocated := 0
	for _, move := range plan.Moves {
		a.mu.Lock()
		block, exists := a.state.blocks[move.BlockID]
		if exists {
			block.StartAt = move.Start
			block.EndAt = move.End
			a.state.blocks[move.BlockID] = block
		}
		a.mu.Unlock()
		if !exists {
			continue
		}
		if block.CalendarEventID != "" && token != "" && calendarID != "" {
			if err := engine.UpdateEvent(ctx, token, calendarID, block.CalendarEventID, gateway.EncodeBlockEvent(block)); err != nil {
				return relocated, plan.Manual, err
			}
		}
		relocated++
		logger.Info("relocated block", "block_id", block.ID, "start", move.Start, "end", move.End)
	}
	for _, id := range plan.Manual {
		logger.Warn("manual adjustment required", "block_id", id)
	}
	return relocated, plan.Manual, nil
}

// ensureCalendar resolves the account's blocks calendar, creating or
// linking it on first use, and remembers the result in memory.
func (a *App) ensureCalendar(ctx context.Context, accountID, token string) (string, error) {
	a.mu.Lock()
	if id, ok := a.state.calendarIDs[accountID]; ok {
		a.mu.Unlock()
		return id, nil
	}
	a.mu.Unlock()

	res, err := gateway.EnsureBlocksCalendar(ctx, a.cfg, a.gw, accountID, token)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.state.calendarIDs[accountID] = res.CalendarID
	a.mu.Unlock()
	logger.Info("blocks calendar ready", "account", accountID, "outcome", res.Outcome.String(), "calendar_id", res.CalendarID)
	return res.CalendarID, nil
}

func (a *App) setEvents(accountID string, events []models.RemoteEvent) {
	a.mu.Lock()
	a.state.events[accountID] = events
	a.mu.Unlock()
}

// syncWindow defaults to the UTC day that contains now.
func (a *App) syncWindow(timeMin, timeMax *time.Time) (time.Time, time.Time) {
	var start time.Time
	if timeMin != nil {
		start = *timeMin
	} else {
		now := a.now().UTC()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	end := start.Add(24 * time.Hour)
	if timeMax != nil {
		end = *timeMax
	}
	return start, end
}
