package gateway

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

// Fake is an in-memory Gateway for tests. Error queues are consumed one
// entry per call, letting tests script transient failures ahead of a
// success.
type Fake struct {
	mu sync.Mutex

	Calendars []CalendarSummary
	events    map[string]map[string]models.RemoteEvent

	nextEventID int
	nextToken   int

	ListCalendarsErrs []error
	CreateCalendarErr error
	ListEventsErrs    []error
	CreateEventErrs   []error
	UpdateEventErrs   []error
	DeleteEventErrs   []error

	ListCalendarsCalls int
	ListEventsCalls    int
	CreateEventCalls   int
	UpdateEventCalls   int
	DeleteEventCalls   int

	// LastListRequest records the most recent ListEvents request.
	LastListRequest ListEventsRequest
}

func NewFake() *Fake {
	return &Fake{events: make(map[string]map[string]models.RemoteEvent)}
}

func popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

// SeedEvent places an event directly in the fake's remote state.
func (f *Fake) SeedEvent(calendarID string, event models.RemoteEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events[calendarID] == nil {
		f.events[calendarID] = make(map[string]models.RemoteEvent)
	}
	f.events[calendarID][event.ID] = event
}

// RemoteEvents returns a snapshot of the fake's events for a calendar.
func (f *Fake) RemoteEvents(calendarID string) []models.RemoteEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RemoteEvent
	for _, ev := range f.events[calendarID] {
		out = append(out, ev)
	}
	return out
}

func (f *Fake) ListCalendars(_ context.Context, _ string) ([]CalendarSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalendarsCalls++
	if err := popErr(&f.ListCalendarsErrs); err != nil {
		return nil, err
	}
	return append([]CalendarSummary(nil), f.Calendars...), nil
}

func (f *Fake) CreateCalendar(_ context.Context, _ string, summary, _ string) (CalendarSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateCalendarErr != nil {
		return CalendarSummary{}, f.CreateCalendarErr
	}
	cal := CalendarSummary{ID: fmt.Sprintf("cal-%d", len(f.Calendars)+1), Summary: summary}
	f.Calendars = append(f.Calendars, cal)
	return cal, nil
}

func (f *Fake) ListEvents(_ context.Context, _ string, calendarID string, req ListEventsRequest) (ListEventsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListEventsCalls++
	f.LastListRequest = req
	if err := popErr(&f.ListEventsErrs); err != nil {
		return ListEventsResponse{}, err
	}
	f.nextToken++
	resp := ListEventsResponse{NextContinuationToken: fmt.Sprintf("sync-%d", f.nextToken)}
	for _, ev := range f.events[calendarID] {
		resp.Events = append(resp.Events, ev)
	}
	return resp, nil
}

func (f *Fake) CreateEvent(_ context.Context, _ string, calendarID string, event models.RemoteEvent) (models.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateEventCalls++
	if err := popErr(&f.CreateEventErrs); err != nil {
		return models.RemoteEvent{}, err
	}
	f.nextEventID++
	event.ID = fmt.Sprintf("ev-%d", f.nextEventID)
	if f.events[calendarID] == nil {
		f.events[calendarID] = make(map[string]models.RemoteEvent)
	}
	f.events[calendarID][event.ID] = event
	return event, nil
}

func (f *Fake) UpdateEvent(_ context.Context, _ string, calendarID, eventID string, event models.RemoteEvent) (models.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateEventCalls++
	if err := popErr(&f.UpdateEventErrs); err != nil {
		return models.RemoteEvent{}, err
	}
	if f.events[calendarID] == nil || !f.hasEventLocked(calendarID, eventID) {
		return models.RemoteEvent{}, apperrors.New(apperrors.KindGatewayPermanent, "event %s not found", eventID)
	}
	event.ID = eventID
	f.events[calendarID][eventID] = event
	return event, nil
}

func (f *Fake) DeleteEvent(_ context.Context, _ string, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteEventCalls++
	if err := popErr(&f.DeleteEventErrs); err != nil {
		return err
	}
	delete(f.events[calendarID], eventID)
	return nil
}

func (f *Fake) hasEventLocked(calendarID, eventID string) bool {
	_, ok := f.events[calendarID][eventID]
	return ok
}
