package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/colinaird/pomblock/internal/constants"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/models"
)

// EventCreator creates one remote event and returns the stored copy.
// The sync engine satisfies this so creations flow through its cache.
type EventCreator interface {
	CreateEvent(ctx context.Context, accessToken, calendarID string, event models.RemoteEvent) (models.RemoteEvent, error)
}

// Materialize creates a remote event for each generated block, at most
// BlockCreationConcurrency at a time, and records the event ID on the
// block. The first failure aborts the batch; blocks whose creation
// already succeeded keep their event IDs so the caller can persist them.
func Materialize(ctx context.Context, creator EventCreator, accessToken, calendarID string, blocks []models.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(constants.BlockCreationConcurrency)
	for i := range blocks {
		group.Go(func() error {
			created, err := creator.CreateEvent(ctx, accessToken, calendarID, gateway.EncodeBlockEvent(blocks[i]))
			if err != nil {
				return err
			}
			blocks[i].CalendarEventID = created.NormalizedID()
			return nil
		})
	}
	return group.Wait()
}

// ReportGenerationTiming logs the generate path's duration and flags runs
// that blow past the target as degradations.
func ReportGenerationTiming(date string, count int, elapsed time.Duration) {
	elapsedMs := elapsed.Milliseconds()
	logger.Info("generated blocks", "date", date, "count", count, "elapsed_ms", elapsedMs)
	if elapsedMs > constants.BlockGenerationTargetMs {
		logger.Error("block generation exceeded target",
			"date", date,
			"target_ms", constants.BlockGenerationTargetMs,
			"elapsed_ms", elapsedMs)
	}
}
