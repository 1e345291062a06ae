// Package gateway talks to the remote calendar service and translates
// between blocks and calendar events.
package gateway

import (
	"context"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

// CalendarSummary identifies one remote calendar.
type CalendarSummary struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// ListEventsRequest scopes an event listing. When ContinuationToken is
// set the time window is ignored; the service resumes from the token.
type ListEventsRequest struct {
	ContinuationToken string
	TimeMin           *time.Time
	TimeMax           *time.Time
}

// ListEventsResponse carries a full listing plus the token to resume
// from next time.
type ListEventsResponse struct {
	Events                []models.RemoteEvent
	NextContinuationToken string
}

// Gateway is the remote calendar surface the sync and scheduling engines
// depend on. Implementations return kinded errors so callers can
// classify transient failures and expired continuation tokens.
type Gateway interface {
	ListCalendars(ctx context.Context, accessToken string) ([]CalendarSummary, error)
	CreateCalendar(ctx context.Context, accessToken, summary, timezone string) (CalendarSummary, error)
	ListEvents(ctx context.Context, accessToken, calendarID string, req ListEventsRequest) (ListEventsResponse, error)
	CreateEvent(ctx context.Context, accessToken, calendarID string, event models.RemoteEvent) (models.RemoteEvent, error)
	UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, event models.RemoteEvent) (models.RemoteEvent, error)
	DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error
}
