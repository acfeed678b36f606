package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/auth"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/internal/rolegate"
)

const usage = `usage: eventctl <command> [flags]

  login -email E [-password P]       log in and store the session
  logout                             forget the session
  whoami [-refresh]                  show the current session
  register -email E -name N [-role R] [-password P]
  events [-mine] [-all]              list events (approved / own / every event)
  create -title T -date RFC3339 -seats N [-location L] [-price P] [-description D]
  book -event ID                     book a seat for the logged-in user
  organizers [-status S]             list organizer accounts
  approve organizer|event ID
  reject organizer|event ID
  delete-organizer ID
  export organizers|events           upload a board snapshot to S3
`

var errUsage = errors.New("usage")

// PasswordFunc reads a password without echoing it.
type PasswordFunc func(in io.Reader, out io.Writer) (string, error)

type app struct {
	api        *apiclient.Client
	auth       *auth.Client
	organizers *moderation.OrganizerBoard
	events     *moderation.EventBoard
	exporter   moderation.Exporter
	out        io.Writer
	in         io.Reader
	password   PasswordFunc
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "events":
		return a.listEvents(ctx, rest)
	case "create":
		return a.createEvent(ctx, rest)
	case "book":
		return a.book(ctx, rest)
	case "organizers":
		return a.listOrganizers(ctx, rest)
	case "approve":
		return a.decide(ctx, rest, models.StatusApproved)
	case "reject":
		return a.decide(ctx, rest, models.StatusRejected)
	case "delete-organizer":
		return a.deleteOrganizer(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	return errUsage
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

func (a *app) readPassword(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	return a.password(a.in, a.out)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return errUsage
	}
	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	sess, err := a.auth.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s); home is %s\n", sess.User.Email, sess.User.Role, rolegate.LandingRouteFor(&sess.User))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context, args []string) error {
	fs := newFlags("whoami")
	refresh := fs.Bool("refresh", false, "fetch the profile from the API")
	if err := parse(fs, args); err != nil {
		return err
	}
	sess := a.auth.Current(ctx)
	if *refresh && sess != nil {
		var err error
		if sess, err = a.auth.RefreshProfile(ctx); err != nil {
			return err
		}
	}
	if !rolegate.IsAuthenticated(sess) {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	u := sess.User
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "email\t%s\n", u.Email)
	if u.FullName != "" {
		fmt.Fprintf(w, "name\t%s\n", u.FullName)
	}
	fmt.Fprintf(w, "role\t%s\n", u.Role)
	if s := u.EffectiveStatus(); s != "" {
		fmt.Fprintf(w, "status\t%s\n", s)
	}
	fmt.Fprintf(w, "home\t%s\n", rolegate.LandingRouteFor(&u))
	return w.Flush()
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "full name")
	role := fs.String("role", string(models.RoleAttendee), "attendee or organizer")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return errUsage
	}
	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	out, err := a.auth.Register(ctx, apiclient.RegisterRequest{Email: *email, FullName: *name, Password: pw, Role: models.Role(*role)})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (id %s)", *email, out.UserID)
	if out.Status == models.StatusPending {
		fmt.Fprint(a.out, "; awaiting admin approval")
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) listEvents(ctx context.Context, args []string) error {
	fs := newFlags("events")
	mine := fs.Bool("mine", false, "events you organize")
	all := fs.Bool("all", false, "every event, any status (admin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	var (
		list []models.Event
		err  error
	)
	switch {
	case *all:
		if err = a.events.Refresh(ctx); err == nil {
			list = a.events.Items()
		}
	case *mine:
		if err = rolegate.Require(a.auth.Current(ctx), rolegate.ActionCreateEvent); err == nil {
			list, err = a.api.ListOrganizerEvents(ctx)
		}
	default:
		list, err = a.api.ListEvents(ctx)
	}
	if err != nil {
		return err
	}
	printEvents(a.out, list)
	return nil
}

func printEvents(out io.Writer, list []models.Event) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDATE\tSEATS\tSTATUS")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", e.ID, e.Title, e.Date.Format("2006-01-02 15:04"), e.AvailableSeats, e.TotalSeats, e.Status)
	}
	_ = w.Flush()
}

func (a *app) createEvent(ctx context.Context, args []string) error {
	fs := newFlags("create")
	title := fs.String("title", "", "event title")
	date := fs.String("date", "", "start time, RFC3339")
	seats := fs.Int("seats", 0, "total seats")
	location := fs.String("location", "", "venue")
	price := fs.Float64("price", 0, "ticket price")
	description := fs.String("description", "", "description")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *title == "" || *date == "" || *seats <= 0 {
		return errUsage
	}
	when, err := models.ParseTime(*date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}
	sess := a.auth.Current(ctx)
	if err := rolegate.Require(sess, rolegate.ActionCreateEvent); err != nil {
		return err
	}
	out, err := a.api.CreateEvent(ctx, models.CreateEventRequest{
		Title:          *title,
		Description:    *description,
		Date:           models.NewTime(when),
		Location:       *location,
		Price:          *price,
		OrganizerEmail: sess.User.Email,
		TotalSeats:     *seats,
		AvailableSeats: *seats,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "event %s submitted for approval\n", out.EventID)
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := newFlags("book")
	eventID := fs.String("event", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *eventID == "" {
		return errUsage
	}
	sess := a.auth.Current(ctx)
	if err := rolegate.Require(sess, rolegate.ActionBookEvent); err != nil {
		return err
	}
	if _, err := a.api.Book(ctx, models.Booking{UserEmail: sess.User.Email, EventID: *eventID}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "booked %s for %s\n", *eventID, sess.User.Email)
	return nil
}

func (a *app) listOrganizers(ctx context.Context, args []string) error {
	fs := newFlags("organizers")
	status := fs.String("status", "", "pending, approved or rejected")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.organizers.Refresh(ctx); err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSTATUS")
	for _, o := range a.organizers.Items() {
		if *status != "" && string(o.Status) != *status {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.Email, o.FullName, o.Status)
	}
	return w.Flush()
}

func (a *app) decide(ctx context.Context, args []string, status models.Status) error {
	if len(args) != 2 {
		return errUsage
	}
	kind, id := args[0], args[1]
	var err error
	switch kind {
	case "organizer":
		if err = a.organizers.Refresh(ctx); err == nil {
			if status == models.StatusApproved {
				err = a.organizers.Approve(ctx, id)
			} else {
				err = a.organizers.Reject(ctx, id)
			}
		}
	case "event":
		if err = a.events.Refresh(ctx); err == nil {
			if status == models.StatusApproved {
				err = a.events.Approve(ctx, id)
			} else {
				err = a.events.Reject(ctx, id)
			}
		}
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s %s\n", kind, id, status)
	return nil
}

func (a *app) deleteOrganizer(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.organizers.Refresh(ctx); err != nil {
		return err
	}
	if err := a.organizers.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "organizer %s deleted\n", args[0])
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if a.exporter == nil || !a.exporter.Enabled() {
		return errors.New("export is not configured (set EXPORT_BUCKET)")
	}
	board := args[0]
	var items any
	var count int
	switch board {
	case moderation.BoardOrganizers:
		if err := a.organizers.Refresh(ctx); err != nil {
			return err
		}
		list := a.organizers.Items()
		items, count = list, len(list)
	case moderation.BoardEvents:
		if err := a.events.Refresh(ctx); err != nil {
			return err
		}
		list := a.events.Items()
		items, count = list, len(list)
	default:
		return errUsage
	}
	by := ""
	if s := a.auth.Current(ctx); s != nil {
		by = s.User.Email
	}
	exp, err := a.exporter.Export(ctx, board, by, items, count)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d %s to s3://%s/%s\n", count, board, exp.Bucket, exp.Key)
	if exp.DownloadURL != "" {
		fmt.Fprintln(a.out, exp.DownloadURL)
	}
	return nil
}

// promptPassword reads a password from the terminal without echo, or a
// line from in when it is not a terminal.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns an error into the line printed to the user.
func describe(err error) string {
	var denied *rolegate.DeniedError
	if errors.As(err, &denied) {
		return denied.Decision.Message()
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		msg := apiclient.UserMessage(err)
		for _, f := range apiErr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
		}
		return msg
	}
	return err.Error()
}
