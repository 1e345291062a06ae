package models

import (
	"maps"
	"strings"
	"time"
)

// EventTime is the wire representation of an event boundary.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// RemoteEvent is the last-observed payload for a remote calendar event.
// Private round-trips block fields through the calendar service.
type RemoteEvent struct {
	ID          string            `json:"id,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status,omitempty"`
	Updated     string            `json:"updated,omitempty"`
	Etag        string            `json:"etag,omitempty"`
	Start       EventTime         `json:"start"`
	End         EventTime         `json:"end"`
	Private     map[string]string `json:"private,omitempty"`
}

// NormalizedID returns the trimmed event id, or "" when unusable
func (e RemoteEvent) NormalizedID() string {
	return strings.TrimSpace(e.ID)
}

// IsCancelled reports whether the remote service marked the event cancelled
func (e RemoteEvent) IsCancelled() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "cancelled")
}

// IsConfirmed reports whether the event counts toward busy time
func (e RemoteEvent) IsConfirmed() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "confirmed")
}

// Equal compares every observable field, including private metadata
func (e RemoteEvent) Equal(other RemoteEvent) bool {
	return e.ID == other.ID &&
		e.Summary == other.Summary &&
		e.Description == other.Description &&
		e.Status == other.Status &&
		e.Updated == other.Updated &&
		e.Etag == other.Etag &&
		e.Start == other.Start &&
		e.End == other.End &&
		maps.Equal(e.Private, other.Private)
}

// Interval parses the event boundaries, returning ok=false for malformed
// or empty ranges.
func (e RemoteEvent) Interval() (start, end time.Time, ok bool) {
	start, err := time.Parse(time.RFC3339, e.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(time.RFC3339, e.End.DateTime)
	if err != nil || !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start.UTC(), end.UTC(), true
}

// SyncState is the durable continuation record for one account.
type SyncState struct {
	ContinuationToken string    `json:"continuation_token,omitempty"`
	LastSyncTime      time.Time `json:"last_sync_time"`
}

// Suppression is the authoritative "do not regenerate this" record.
type Suppression struct {
	InstanceKey  string    `json:"instance"`
	Reason       string    `json:"reason,omitempty"`
	SuppressedAt time.Time `json:"suppressed_at"`
}
