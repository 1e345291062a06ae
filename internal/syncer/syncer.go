// Package syncer pulls remote calendar changes into the local event
// cache and keeps the durable sync state current.
package syncer

import (
	"context"
	"time"

	"github.com/colinaird/pomblock/internal/cache"
	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/colinaird/pomblock/internal/storage"
)

// RetryPolicy bounds retries of the remote listing call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.SyncMaxAttempts,
		BaseDelay:   time.Duration(constants.SyncBaseDelayMs) * time.Millisecond,
	}
}

// Result summarizes one sync pass. SuppressedKeys lists the block
// instances whose remote events were cancelled during the pass.
type Result struct {
	Added                 []models.RemoteEvent
	Updated               []models.RemoteEvent
	DeletedIDs            []string
	SuppressedKeys        []string
	NextContinuationToken string
}

// Engine synchronizes one account's blocks calendar.
type Engine struct {
	gw        gateway.Gateway
	store     storage.Provider
	cache     *cache.EventCache
	accountID string
	retry     RetryPolicy
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

func New(gw gateway.Gateway, store storage.Provider, eventCache *cache.EventCache, accountID string) *Engine {
	return &Engine{
		gw:        gw,
		store:     store,
		cache:     eventCache,
		accountID: accountID,
		retry:     DefaultRetryPolicy(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// WithRetryPolicy overrides the retry policy.
func (e *Engine) WithRetryPolicy(p RetryPolicy) *Engine {
	e.retry = p
	return e
}

// WithNow overrides the clock. Tests only.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithSleep overrides the retry delay. Tests only.
func (e *Engine) WithSleep(sleep func(context.Context, time.Duration) error) *Engine {
	e.sleep = sleep
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sync performs one incremental pull. A stored continuation token is
// preferred over the time window; when the service rejects the token as
// expired, exactly one full refetch over the window runs instead. The
// next token and sync time are persisted only after the events apply.
func (e *Engine) Sync(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) (Result, error) {
	state, _, err := e.store.GetSyncState(e.accountID)
	if err != nil {
		return Result{}, err
	}
	previousToken := state.ContinuationToken

	resp, err := e.listWithRetry(ctx, accessToken, calendarID, gateway.ListEventsRequest{
		ContinuationToken: previousToken,
		TimeMin:           &timeMin,
		TimeMax:           &timeMax,
	})
	if err != nil && apperrors.IsTokenExpired(err) && previousToken != "" {
		logger.Info("Continuation token expired, falling back to full refetch", "account", e.accountID)
		resp, err = e.listWithRetry(ctx, accessToken, calendarID, gateway.ListEventsRequest{
			TimeMin: &timeMin,
			TimeMax: &timeMax,
		})
	}
	if err != nil {
		return Result{}, err
	}

	result, err := e.applyEvents(resp.Events)
	if err != nil {
		return Result{}, err
	}
	result.NextContinuationToken = resp.NextContinuationToken

	if err := e.store.SaveSyncState(e.accountID, models.SyncState{
		ContinuationToken: resp.NextContinuationToken,
		LastSyncTime:      e.now(),
	}); err != nil {
		return Result{}, err
	}
	return result, nil
}

// FetchEvents lists the window without touching sync state or cache.
func (e *Engine) FetchEvents(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]models.RemoteEvent, error) {
	resp, err := e.listWithRetry(ctx, accessToken, calendarID, gateway.ListEventsRequest{
		TimeMin: &timeMin,
		TimeMax: &timeMax,
	})
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// CreateEvent writes through to the service and mirrors the created
// event in the cache.
func (e *Engine) CreateEvent(ctx context.Context, accessToken, calendarID string, event models.RemoteEvent) (models.RemoteEvent, error) {
	created, err := e.gw.CreateEvent(ctx, accessToken, calendarID, event)
	if err != nil {
		return models.RemoteEvent{}, err
	}
	e.cache.Upsert(created)
	return created, nil
}

// UpdateEvent writes through to the service and mirrors the update.
func (e *Engine) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, event models.RemoteEvent) error {
	updated, err := e.gw.UpdateEvent(ctx, accessToken, calendarID, eventID, event)
	if err != nil {
		return err
	}
	if updated.ID == "" {
		updated.ID = eventID
	}
	e.cache.Upsert(updated)
	return nil
}

// DeleteEvent writes through to the service and drops the cached copy.
func (e *Engine) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	if err := e.gw.DeleteEvent(ctx, accessToken, calendarID, eventID); err != nil {
		return err
	}
	e.cache.Remove(eventID)
	return nil
}

func (e *Engine) listWithRetry(ctx context.Context, accessToken, calendarID string, req gateway.ListEventsRequest) (gateway.ListEventsResponse, error) {
	maxAttempts := e.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := e.gw.ListEvents(ctx, accessToken, calendarID, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !apperrors.IsTransient(err) || attempt+1 >= maxAttempts {
			return gateway.ListEventsResponse{}, err
		}

		delay := e.retry.BaseDelay << attempt
		logger.Warn("Transient calendar error, retrying", "account", e.accountID, "attempt", attempt+1, "delay", delay, "error", err)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return gateway.ListEventsResponse{}, sleepErr
		}
	}
	return gateway.ListEventsResponse{}, lastErr
}

// applyEvents reconciles the listing against the cache. Cancelled events
// are removed; when the removed event carried a block instance the
// instance is recorded as a calendar_cancelled suppression so the
// generator will not resurrect it.
func (e *Engine) applyEvents(events []models.RemoteEvent) (Result, error) {
	var result Result
	var sups []models.Suppression

	for _, event := range events {
		id := event.NormalizedID()
		if id == "" {
			continue
		}

		cached, exists := e.cache.Get(id)
		if event.IsCancelled() {
			if !exists {
				continue
			}
			e.cache.Remove(id)
			result.DeletedIDs = append(result.DeletedIDs, id)

			key := gateway.BlockInstanceKey(cached)
			if key == "" {
				key = gateway.BlockInstanceKey(event)
			}
			if key != "" {
				result.SuppressedKeys = append(result.SuppressedKeys, key)
				sups = append(sups, models.Suppression{
					InstanceKey:  key,
					Reason:       constants.ReasonCalendarCancelled,
					SuppressedAt: e.now(),
				})
			}
			continue
		}

		switch {
		case !exists:
			e.cache.Upsert(event)
			result.Added = append(result.Added, event)
		case !cached.Equal(event):
			e.cache.Upsert(event)
			result.Updated = append(result.Updated, event)
		}
	}

	if len(sups) > 0 {
		if err := e.store.AddSuppressions(sups); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}
