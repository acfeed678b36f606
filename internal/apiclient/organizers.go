package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aura-events/dashboard/internal/models"
)

// ListOrganizers returns organizer accounts, optionally filtered by status.
func (c *Client) ListOrganizers(ctx context.Context, status models.Status) ([]models.Organizer, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var out []models.Organizer
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/organizers", query: q, authed: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrganizerStatus records a moderation decision on an organizer.
func (c *Client) UpdateOrganizerStatus(ctx context.Context, id string, upd models.OrganizerUpdate) (*models.UserPublic, error) {
	var out models.UserPublic
	if err := c.do(ctx, request{method: http.MethodPut, path: "/admin/organizers/" + pathEscape(id), body: upd, authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOrganizer removes an organizer account.
func (c *Client) DeleteOrganizer(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/admin/organizers/" + pathEscape(id), authed: true}, nil)
}
