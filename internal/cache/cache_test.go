package cache

import (
	"testing"

	"github.com/colinaird/pomblock/internal/models"
)

func TestUpsertAndGet(t *testing.T) {
	c := NewEventCache()

	if ok := c.Upsert(models.RemoteEvent{ID: "ev-1", Summary: "Standup"}); !ok {
		t.Fatal("expected upsert to store event")
	}
	ev, ok := c.Get("ev-1")
	if !ok || ev.Summary != "Standup" {
		t.Errorf("Get(ev-1) = (%+v, %v)", ev, ok)
	}

	c.Upsert(models.RemoteEvent{ID: "ev-1", Summary: "Standup (moved)"})
	ev, _ = c.Get("ev-1")
	if ev.Summary != "Standup (moved)" {
		t.Errorf("expected updated summary, got %q", ev.Summary)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestUpsertSkipsEmptyID(t *testing.T) {
	c := NewEventCache()
	if ok := c.Upsert(models.RemoteEvent{ID: "   "}); ok {
		t.Error("expected whitespace id to be rejected")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestRemove(t *testing.T) {
	c := NewEventCache()
	c.Upsert(models.RemoteEvent{ID: "ev-1"})

	if !c.Remove("ev-1") {
		t.Error("expected Remove to report presence")
	}
	if c.Remove("ev-1") {
		t.Error("expected second Remove to report absence")
	}
}

func TestListIsOrdered(t *testing.T) {
	c := NewEventCache()
	c.Upsert(models.RemoteEvent{ID: "ev-b"})
	c.Upsert(models.RemoteEvent{ID: "ev-a"})
	c.Upsert(models.RemoteEvent{ID: "ev-c"})

	got := c.List()
	if len(got) != 3 {
		t.Fatalf("List() returned %d events", len(got))
	}
	if got[0].ID != "ev-a" || got[2].ID != "ev-c" {
		t.Errorf("unexpected order: %v, %v, %v", got[0].ID, got[1].ID, got[2].ID)
	}
}
