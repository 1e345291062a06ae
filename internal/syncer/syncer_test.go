package syncer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/colinaird/pomblock/internal/cache"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/colinaird/pomblock/internal/storage/sqlite"
)

const testCalendar = "cal-blocks"

func fixedNow() time.Time {
	return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
}

func window() (time.Time, time.Time) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func newTestEngine(t *testing.T, fake *gateway.Fake) (*Engine, *sqlite.Store, *cache.EventCache) {
	t.Helper()
	store := sqlite.New(filepath.Join(t.TempDir(), "pomblock.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	eventCache := cache.NewEventCache()
	engine := New(fake, store, eventCache, "default").
		WithNow(fixedNow).
		WithSleep(func(context.Context, time.Duration) error { return nil })
	return engine, store, eventCache
}

func blockEvent(id, instance string) models.RemoteEvent {
	return models.RemoteEvent{
		ID:     id,
		Status: "confirmed",
		Start:  models.EventTime{DateTime: "2026-03-09T09:00:00Z"},
		End:    models.EventTime{DateTime: "2026-03-09T10:00:00Z"},
		Private: map[string]string{
			"bs_instance": instance,
		},
	}
}

func TestFirstSyncAddsEventsAndStoresToken(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-meet", Status: "confirmed", Summary: "Standup"})
	engine, store, eventCache := newTestEngine(t, fake)

	timeMin, timeMax := window()
	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(res.Added) != 1 || res.Added[0].ID != "ev-meet" {
		t.Errorf("added = %+v, want ev-meet", res.Added)
	}
	if fake.LastListRequest.ContinuationToken != "" {
		t.Errorf("first sync should not send a continuation token, sent %q", fake.LastListRequest.ContinuationToken)
	}
	if fake.LastListRequest.TimeMin == nil || !fake.LastListRequest.TimeMin.Equal(timeMin) {
		t.Errorf("expected time window on first sync")
	}

	if _, ok := eventCache.Get("ev-meet"); !ok {
		t.Error("expected event cached")
	}

	state, ok, err := store.GetSyncState("default")
	if err != nil || !ok {
		t.Fatalf("sync state missing: ok=%v err=%v", ok, err)
	}
	if state.ContinuationToken != res.NextContinuationToken || state.ContinuationToken == "" {
		t.Errorf("persisted token = %q, result token = %q", state.ContinuationToken, res.NextContinuationToken)
	}
	if !state.LastSyncTime.Equal(fixedNow()) {
		t.Errorf("last sync time = %v", state.LastSyncTime)
	}
}

func TestSecondSyncUsesStoredToken(t *testing.T) {
	fake := gateway.NewFake()
	engine, _, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}

	if fake.LastListRequest.ContinuationToken != "sync-1" {
		t.Errorf("second sync token = %q, want sync-1", fake.LastListRequest.ContinuationToken)
	}
}

func TestSyncDetectsUpdatesAndSkipsUnchanged(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-1", Status: "confirmed", Summary: "Standup"})
	engine, _, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}

	// Unchanged second pass.
	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 0 || len(res.Updated) != 0 {
		t.Errorf("unchanged pass reported added=%d updated=%d", len(res.Added), len(res.Updated))
	}

	// Moved event shows as update.
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-1", Status: "confirmed", Summary: "Standup (moved)"})
	res, err = engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Updated) != 1 || res.Updated[0].Summary != "Standup (moved)" {
		t.Errorf("updated = %+v", res.Updated)
	}
}

func TestCancelledBlockEventRecordsSuppression(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, blockEvent("ev-blk", "tpl:morning:2026-03-09"))
	engine, store, eventCache := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}

	cancelled := blockEvent("ev-blk", "tpl:morning:2026-03-09")
	cancelled.Status = "cancelled"
	fake.SeedEvent(testCalendar, cancelled)

	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.DeletedIDs) != 1 || res.DeletedIDs[0] != "ev-blk" {
		t.Errorf("deleted ids = %v", res.DeletedIDs)
	}
	if len(res.SuppressedKeys) != 1 || res.SuppressedKeys[0] != "tpl:morning:2026-03-09" {
		t.Errorf("suppressed keys = %v", res.SuppressedKeys)
	}
	if _, ok := eventCache.Get("ev-blk"); ok {
		t.Error("expected cancelled event removed from cache")
	}

	sup, ok, err := store.GetSuppression("tpl:morning:2026-03-09")
	if err != nil || !ok {
		t.Fatalf("suppression missing: ok=%v err=%v", ok, err)
	}
	if sup.Reason != "calendar_cancelled" {
		t.Errorf("suppression reason = %q", sup.Reason)
	}
}

func TestCancelledPlainEventIsNotSuppressed(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-plain", Status: "confirmed", Summary: "Dentist"})
	engine, store, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}

	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-plain", Status: "cancelled"})
	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.SuppressedKeys) != 0 {
		t.Errorf("plain event produced suppressions: %v", res.SuppressedKeys)
	}
	sups, _ := store.ListSuppressions()
	if len(sups) != 0 {
		t.Errorf("unexpected stored suppressions: %v", sups)
	}
}

func TestEventsWithoutIDsAreSkipped(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "", Summary: "ghost"})
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-ok", Status: "confirmed"})
	engine, _, eventCache := newTestEngine(t, fake)
	timeMin, timeMax := window()

	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || res.Added[0].ID != "ev-ok" {
		t.Errorf("added = %+v", res.Added)
	}
	if eventCache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", eventCache.Len())
	}
}

func TestTransientErrorsRetryWithBackoff(t *testing.T) {
	fake := gateway.NewFake()
	transient := apperrors.New(apperrors.KindGatewayTransient, "calendar api returned 503")
	fake.ListEventsErrs = []error{transient, transient}

	engine, _, _ := newTestEngine(t, fake)
	var delays []time.Duration
	engine.WithSleep(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	timeMin, timeMax := window()
	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatalf("Sync failed after retries: %v", err)
	}

	if fake.ListEventsCalls != 3 {
		t.Errorf("list calls = %d, want 3", fake.ListEventsCalls)
	}
	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	fake := gateway.NewFake()
	transient := apperrors.New(apperrors.KindGatewayTransient, "calendar api returned 503")
	fake.ListEventsErrs = []error{transient, transient, transient}

	engine, _, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fake.ListEventsCalls != 3 {
		t.Errorf("list calls = %d, want 3", fake.ListEventsCalls)
	}
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	fake := gateway.NewFake()
	fake.ListEventsErrs = []error{apperrors.New(apperrors.KindGatewayPermanent, "calendar api returned 404")}

	engine, _, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err == nil {
		t.Fatal("expected permanent error to surface")
	}
	if fake.ListEventsCalls != 1 {
		t.Errorf("list calls = %d, want 1", fake.ListEventsCalls)
	}
}

func TestExpiredTokenFallsBackToFullRefetch(t *testing.T) {
	fake := gateway.NewFake()
	fake.SeedEvent(testCalendar, models.RemoteEvent{ID: "ev-1", Status: "confirmed"})
	engine, store, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	// Establish a stored token first.
	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err != nil {
		t.Fatal(err)
	}

	fake.ListEventsErrs = []error{apperrors.New(apperrors.KindTokenExpired, "calendar api returned 410")}
	res, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax)
	if err != nil {
		t.Fatalf("Sync failed after token expiry: %v", err)
	}

	if fake.LastListRequest.ContinuationToken != "" {
		t.Errorf("refetch sent token %q, want none", fake.LastListRequest.ContinuationToken)
	}
	if fake.LastListRequest.TimeMin == nil {
		t.Error("refetch missing time window")
	}

	state, _, _ := store.GetSyncState("default")
	if state.ContinuationToken != res.NextContinuationToken || state.ContinuationToken == "" {
		t.Errorf("expected fresh token persisted, got %q", state.ContinuationToken)
	}
}

func TestExpiredTokenWithoutStoredTokenSurfaces(t *testing.T) {
	fake := gateway.NewFake()
	fake.ListEventsErrs = []error{apperrors.New(apperrors.KindTokenExpired, "calendar api returned 410")}
	engine, _, _ := newTestEngine(t, fake)
	timeMin, timeMax := window()

	if _, err := engine.Sync(context.Background(), "token", testCalendar, timeMin, timeMax); err == nil {
		t.Fatal("expected token-expired error without a stored token")
	}
	if fake.ListEventsCalls != 1 {
		t.Errorf("list calls = %d, want 1", fake.ListEventsCalls)
	}
}

func TestWriteThroughOperations(t *testing.T) {
	fake := gateway.NewFake()
	engine, _, eventCache := newTestEngine(t, fake)
	ctx := context.Background()

	created, err := engine.CreateEvent(ctx, "token", testCalendar, blockEvent("", "tpl:x:2026-03-09"))
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned event id")
	}
	if _, ok := eventCache.Get(created.ID); !ok {
		t.Error("created event not cached")
	}

	updated := created
	updated.Summary = "moved"
	if err := engine.UpdateEvent(ctx, "token", testCalendar, created.ID, updated); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	got, _ := eventCache.Get(created.ID)
	if got.Summary != "moved" {
		t.Errorf("cached summary = %q", got.Summary)
	}

	if err := engine.DeleteEvent(ctx, "token", testCalendar, created.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if _, ok := eventCache.Get(created.ID); ok {
		t.Error("deleted event still cached")
	}
}
