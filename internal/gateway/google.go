package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

const calendarAPIBase = "https://www.googleapis.com/calendar/v3"

// GoogleGateway is the production Gateway over the Google Calendar v3
// REST API.
type GoogleGateway struct {
	client  *http.Client
	baseURL string
}

func NewGoogleGateway() *GoogleGateway {
	return &GoogleGateway{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: calendarAPIBase,
	}
}

// WithBaseURL points the gateway at a different API root. Tests only.
func (g *GoogleGateway) WithBaseURL(base string) *GoogleGateway {
	g.baseURL = strings.TrimRight(base, "/")
	return g
}

// wireEventTime matches the API's event boundary shape.
type wireEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type wireExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
}

// wireEvent is the API representation of an event.
type wireEvent struct {
	ID                 string                  `json:"id,omitempty"`
	Summary            string                  `json:"summary,omitempty"`
	Description        string                  `json:"description,omitempty"`
	Status             string                  `json:"status,omitempty"`
	Updated            string                  `json:"updated,omitempty"`
	Etag               string                  `json:"etag,omitempty"`
	Start              *wireEventTime          `json:"start,omitempty"`
	End                *wireEventTime          `json:"end,omitempty"`
	ExtendedProperties *wireExtendedProperties `json:"extendedProperties,omitempty"`
}

func toWireEvent(e models.RemoteEvent) wireEvent {
	w := wireEvent{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Status:      e.Status,
		Start:       &wireEventTime{DateTime: e.Start.DateTime, TimeZone: e.Start.TimeZone},
		End:         &wireEventTime{DateTime: e.End.DateTime, TimeZone: e.End.TimeZone},
	}
	if len(e.Private) > 0 {
		w.ExtendedProperties = &wireExtendedProperties{Private: e.Private}
	}
	return w
}

func fromWireEvent(w wireEvent) models.RemoteEvent {
	e := models.RemoteEvent{
		ID:          w.ID,
		Summary:     w.Summary,
		Description: w.Description,
		Status:      w.Status,
		Updated:     w.Updated,
		Etag:        w.Etag,
	}
	if w.Start != nil {
		e.Start = models.EventTime{DateTime: w.Start.DateTime, TimeZone: w.Start.TimeZone}
	}
	if w.End != nil {
		e.End = models.EventTime{DateTime: w.End.DateTime, TimeZone: w.End.TimeZone}
	}
	if w.ExtendedProperties != nil {
		e.Private = w.ExtendedProperties.Private
	}
	return e
}

// classifyStatus maps an API response code to an error kind. 410 means
// the continuation token is no longer honored; 429 and 5xx are worth
// retrying; everything else in 4xx is permanent.
func classifyStatus(status int) apperrors.Kind {
	switch {
	case status == http.StatusGone:
		return apperrors.KindTokenExpired
	case status == http.StatusUnauthorized:
		return apperrors.KindUnauthenticated
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.KindGatewayTransient
	default:
		return apperrors.KindGatewayPermanent
	}
}

func (g *GoogleGateway) do(ctx context.Context, method, rawURL, accessToken string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.KindSerialization, err, "failed to serialize request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindGatewayPermanent, err, "failed to build calendar api request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindGatewayTransient, err, "calendar api request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, apperrors.Wrap(apperrors.KindGatewayTransient, err, "failed to read calendar api response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, apperrors.New(classifyStatus(resp.StatusCode), "calendar api returned %d for %s %s", resp.StatusCode, method, req.URL.Path)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, apperrors.Wrap(apperrors.KindSerialization, err, "failed to parse calendar api response")
		}
	}
	return resp.StatusCode, nil
}

func (g *GoogleGateway) eventsURL(calendarID string) string {
	return g.baseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (g *GoogleGateway) eventURL(calendarID, eventID string) string {
	return g.eventsURL(calendarID) + "/" + url.PathEscape(eventID)
}

func requireNonEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.New(apperrors.KindGatewayPermanent, "%s must not be empty", field)
	}
	return nil
}

type calendarListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

func (g *GoogleGateway) ListCalendars(ctx context.Context, accessToken string) ([]CalendarSummary, error) {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return nil, err
	}

	var calendars []CalendarSummary
	pageToken := ""
	for {
		u := g.baseURL + "/users/me/calendarList?maxResults=250"
		if pageToken != "" {
			u += "&pageToken=" + url.QueryEscape(pageToken)
		}
		var page calendarListResponse
		if _, err := g.do(ctx, http.MethodGet, u, accessToken, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			calendars = append(calendars, CalendarSummary{ID: item.ID, Summary: item.Summary})
		}
		if page.NextPageToken == "" {
			return calendars, nil
		}
		pageToken = page.NextPageToken
	}
}

func (g *GoogleGateway) CreateCalendar(ctx context.Context, accessToken, summary, timezone string) (CalendarSummary, error) {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return CalendarSummary{}, err
	}
	if err := requireNonEmpty(summary, "calendar summary"); err != nil {
		return CalendarSummary{}, err
	}

	payload := map[string]string{"summary": summary}
	if timezone != "" {
		payload["timeZone"] = timezone
	}
	var created struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	}
	if _, err := g.do(ctx, http.MethodPost, g.baseURL+"/calendars", accessToken, payload, &created); err != nil {
		return CalendarSummary{}, err
	}
	if created.ID == "" {
		return CalendarSummary{}, apperrors.New(apperrors.KindGatewayPermanent, "calendar create response missing id")
	}
	if created.Summary == "" {
		created.Summary = summary
	}
	return CalendarSummary{ID: created.ID, Summary: created.Summary}, nil
}

type eventsPageResponse struct {
	Items         []wireEvent `json:"items"`
	NextPageToken string      `json:"nextPageToken"`
	NextSyncToken string      `json:"nextSyncToken"`
}

// ListEvents walks every page of the listing. A continuation token
// replaces the time window; a 410 from the service surfaces as
// KindTokenExpired so the caller can fall back to a full refetch.
func (g *GoogleGateway) ListEvents(ctx context.Context, accessToken, calendarID string, req ListEventsRequest) (ListEventsResponse, error) {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return ListEventsResponse{}, err
	}
	if err := requireNonEmpty(calendarID, "calendar id"); err != nil {
		return ListEventsResponse{}, err
	}

	var out ListEventsResponse
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("showDeleted", "true")
		q.Set("maxResults", "2500")
		if req.ContinuationToken != "" {
			q.Set("syncToken", req.ContinuationToken)
		} else {
			if req.TimeMin != nil {
				q.Set("timeMin", req.TimeMin.Format(time.RFC3339))
			}
			if req.TimeMax != nil {
				q.Set("timeMax", req.TimeMax.Format(time.RFC3339))
			}
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page eventsPageResponse
		if _, err := g.do(ctx, http.MethodGet, g.eventsURL(calendarID)+"?"+q.Encode(), accessToken, nil, &page); err != nil {
			return ListEventsResponse{}, err
		}
		for _, item := range page.Items {
			out.Events = append(out.Events, fromWireEvent(item))
		}
		if page.NextSyncToken != "" {
			out.NextContinuationToken = page.NextSyncToken
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, accessToken, calendarID string, event models.RemoteEvent) (models.RemoteEvent, error) {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return models.RemoteEvent{}, err
	}
	if err := requireNonEmpty(calendarID, "calendar id"); err != nil {
		return models.RemoteEvent{}, err
	}

	var created wireEvent
	if _, err := g.do(ctx, http.MethodPost, g.eventsURL(calendarID), accessToken, toWireEvent(event), &created); err != nil {
		return models.RemoteEvent{}, err
	}
	return fromWireEvent(created), nil
}

func (g *GoogleGateway) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, event models.RemoteEvent) (models.RemoteEvent, error) {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return models.RemoteEvent{}, err
	}
	if err := requireNonEmpty(calendarID, "calendar id"); err != nil {
		return models.RemoteEvent{}, err
	}
	if err := requireNonEmpty(eventID, "event id"); err != nil {
		return models.RemoteEvent{}, err
	}

	var updated wireEvent
	if _, err := g.do(ctx, http.MethodPut, g.eventURL(calendarID, eventID), accessToken, toWireEvent(event), &updated); err != nil {
		return models.RemoteEvent{}, err
	}
	return fromWireEvent(updated), nil
}

func (g *GoogleGateway) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	if err := requireNonEmpty(accessToken, "access token"); err != nil {
		return err
	}
	if err := requireNonEmpty(calendarID, "calendar id"); err != nil {
		return err
	}
	if err := requireNonEmpty(eventID, "event id"); err != nil {
		return err
	}
	// 404 and 410 after a delete both mean the event is already gone.
	status, err := g.do(ctx, http.MethodDelete, g.eventURL(calendarID, eventID), accessToken, nil, nil)
	if err != nil && (status == http.StatusNotFound || status == http.StatusGone) {
		return nil
	}
	return err
}
