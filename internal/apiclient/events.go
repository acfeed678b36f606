package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aura-events/dashboard/internal/models"
)

// ListEvents returns the publicly listed (approved) events.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrganizerEvents returns the events visible to the logged-in organizer.
func (c *Client) ListOrganizerEvents(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/organize_events", authed: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllEvents returns every event regardless of status (admin).
func (c *Client) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/all_events", authed: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEvent submits an event for approval.
func (c *Client) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.CreateEventResponse, error) {
	var out models.CreateEventResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/events/create", body: req, authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEventStatus moves an event to approved or rejected.
func (c *Client) SetEventStatus(ctx context.Context, id string, status models.Status) (*models.Event, error) {
	if !status.Terminal() {
		return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("invalid event status %q", status)}
	}
	var out models.Event
	path := "/events/" + pathEscape(id) + "/" + string(status)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Book books a seat on an event for the given attendee.
func (c *Client) Book(ctx context.Context, b models.Booking) (*models.BookingResult, error) {
	var out models.BookingResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/bookings/book", body: b, authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pathEscape(s string) string { return url.PathEscape(s) }
