package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/auth"
	"github.com/aura-events/dashboard/internal/fakeapi"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
)

func newApp(t *testing.T) (*app, *fakeapi.Server, *bytes.Buffer) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	api := fakeapi.New()
	t.Cleanup(api.Close)
	store := session.NewMemoryStore()
	client, err := apiclient.New(apiclient.Options{BaseURL: api.URL, Tokens: apiclient.StoreTokens{Store: store}, Logger: logger})
	require.NoError(t, err)
	authClient := auth.NewClient(client, store, logger)
	out := &bytes.Buffer{}
	return &app{
		api:        client,
		auth:       authClient,
		organizers: moderation.NewOrganizerBoard(client, authClient, nil, logger),
		events:     moderation.NewEventBoard(client, authClient, nil, logger),
		out:        out,
		in:         strings.NewReader("pw\n"),
		password:   promptPassword,
	}, api, out
}

func TestLoginWhoamiLogout(t *testing.T) {
	a, api, out := newApp(t)
	api.AddUser("org@example.com", "pw", "Grace", models.RoleOrganizer, models.StatusApproved)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"login", "-email", "org@example.com"}))
	assert.Contains(t, out.String(), "logged in as org@example.com (organizer); home is /event")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"whoami", "-refresh"}))
	assert.Contains(t, out.String(), "Grace")
	assert.Contains(t, out.String(), "approved")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"logout"}))
	require.NoError(t, a.run(ctx, []string{"whoami"}))
	assert.Contains(t, out.String(), "not logged in")
}

func TestLoginWrongPassword(t *testing.T) {
	a, api, _ := newApp(t)
	api.AddUser("a@example.com", "secret", "A", models.RoleAttendee, "")

	err := a.run(context.Background(), []string{"login", "-email", "a@example.com", "-password", "bad"})
	assert.ErrorIs(t, err, apiclient.ErrAuth)
	assert.Equal(t, "Invalid email or password", describe(err))
}

func TestOrganizerCreateAndAdminApprove(t *testing.T) {
	a, api, out := newApp(t)
	api.AddUser("org@example.com", "pw", "Org", models.RoleOrganizer, models.StatusApproved)
	api.AddUser("admin@example.com", "pw", "Admin", models.RoleAdmin, "")
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"login", "-email", "org@example.com", "-password", "pw"}))
	require.NoError(t, a.run(ctx, []string{"create", "-title", "GopherCon", "-date", "2030-05-01T09:00:00Z", "-seats", "5"}))
	require.NoError(t, a.run(ctx, []string{"events", "-mine"}))
	assert.Contains(t, out.String(), "GopherCon")
	assert.Contains(t, out.String(), "pending")

	list, err := a.api.ListOrganizerEvents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	err = a.run(ctx, []string{"approve", "event", id})
	var denied *rolegate.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "You do not have permission to perform this action.", describe(err))

	require.NoError(t, a.run(ctx, []string{"login", "-email", "admin@example.com", "-password", "pw"}))
	out.Reset()
	require.NoError(t, a.run(ctx, []string{"approve", "event", id}))
	assert.Equal(t, "event "+id+" approved\n", out.String())

	ev, _ := api.Event(id)
	assert.Equal(t, models.StatusApproved, ev.Status)
}

func TestOrganizerModeration(t *testing.T) {
	a, api, out := newApp(t)
	api.AddUser("admin@example.com", "pw", "Admin", models.RoleAdmin, "")
	orgID := api.AddUser("org@example.com", "pw", "Org", models.RoleOrganizer, models.StatusPending)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"login", "-email", "admin@example.com", "-password", "pw"}))

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"organizers", "-status", "pending"}))
	assert.Contains(t, out.String(), "org@example.com")

	require.NoError(t, a.run(ctx, []string{"reject", "organizer", orgID}))
	u, _ := api.User(orgID)
	assert.Equal(t, models.StatusRejected, u.Status)

	require.NoError(t, a.run(ctx, []string{"delete-organizer", orgID}))
	_, exists := api.User(orgID)
	assert.False(t, exists)
}

func TestBookRequiresAttendeeOrAdmin(t *testing.T) {
	a, api, _ := newApp(t)
	api.AddUser("guest@example.com", "pw", "Guest", models.RoleAttendee, "")
	id := api.AddEvent(models.Event{Title: "Meetup", Status: models.StatusApproved, TotalSeats: 1, AvailableSeats: 1})
	ctx := context.Background()

	err := a.run(ctx, []string{"book", "-event", id})
	assert.Equal(t, "Please log in to continue.", describe(err))

	require.NoError(t, a.run(ctx, []string{"login", "-email", "guest@example.com", "-password", "pw"}))
	require.NoError(t, a.run(ctx, []string{"book", "-event", id}))
	assert.Len(t, api.Bookings("guest@example.com"), 1)
}

func TestUsageErrors(t *testing.T) {
	a, _, _ := newApp(t)
	ctx := context.Background()
	for _, args := range [][]string{nil, {"frobnicate"}, {"login"}, {"approve", "webinar", "x"}, {"export", "a", "b"}} {
		assert.ErrorIs(t, a.run(ctx, args), errUsage, "%v", args)
	}
	assert.ErrorContains(t, a.run(ctx, []string{"export", "events"}), "EXPORT_BUCKET")
}

func TestPromptPassword_FromPipe(t *testing.T) {
	pw, err := promptPassword(strings.NewReader("hunter2\r\n"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	pw, err = promptPassword(strings.NewReader("no-newline"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}

func TestDescribe_Fallback(t *testing.T) {
	assert.Equal(t, "boom", describe(errors.New("boom")))
	err := &apiclient.Error{Kind: apiclient.KindValidation, Message: "bad event", Fields: []apiclient.FieldError{{Field: "title", Message: "required"}}}
	assert.Equal(t, "bad event\n  title: required", describe(err))
}
