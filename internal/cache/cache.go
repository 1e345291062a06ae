// Package cache holds the last-observed remote event state per account.
package cache

import (
	"sort"
	"sync"

	"github.com/colinaird/pomblock/internal/models"
)

// EventCache mirrors the remote calendar's events keyed by normalized
// event id. Events without a usable id are never stored.
type EventCache struct {
	mu     sync.Mutex
	events map[string]models.RemoteEvent
}

func NewEventCache() *EventCache {
	return &EventCache{events: make(map[string]models.RemoteEvent)}
}

// Get returns the cached event for id, if any.
func (c *EventCache) Get(id string) (models.RemoteEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[id]
	return ev, ok
}

// Upsert stores the event under its normalized id. Events with an empty
// id are ignored and reported as not stored.
func (c *EventCache) Upsert(event models.RemoteEvent) bool {
	id := event.NormalizedID()
	if id == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[id] = event
	return true
}

// Remove deletes the event and reports whether it was present.
func (c *EventCache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.events[id]
	delete(c.events, id)
	return ok
}

// List returns all cached events ordered by id for stable output.
func (c *EventCache) List() []models.RemoteEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.RemoteEvent, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of cached events.
func (c *EventCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Clear drops every cached event.
func (c *EventCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = make(map[string]models.RemoteEvent)
}
