// Package moderation runs the admin approval boards for organizers and events.
package moderation

import (
	"context"
	"time"

	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
)

// Board names used for change notifications.
const (
	BoardOrganizers = "organizers"
	BoardEvents     = "events"
)

// Sessions yields the current session; *auth.Client satisfies it.
type Sessions interface {
	Current(ctx context.Context) *session.Session
}

// Notifier receives board changes, e.g. to push them to connected browsers.
type Notifier interface {
	Publish(board, event string, payload any)
}

// BoardChange is the payload published for every change of a board.
type BoardChange struct {
	ID     string        `json:"id,omitempty"`
	Status models.Status `json:"status,omitempty"`
	Items  any           `json:"items"`
	At     time.Time     `json:"at"`
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, string, any) {}

func observe[T listmut.Entity[T]](n Notifier, board string) func(listmut.Change[T]) {
	return func(ch listmut.Change[T]) {
		n.Publish(board, string(ch.Kind), BoardChange{ID: ch.ID, Status: ch.Status, Items: ch.Items, At: time.Now().UTC()})
	}
}

func requireAdmin(ctx context.Context, sessions Sessions) error {
	return rolegate.Require(sessions.Current(ctx), rolegate.ActionApproveEntity)
}

func pendingGuard[T listmut.Entity[T]](to models.Status) listmut.Guard[T] {
	return func(cur T) error {
		return rolegate.CheckTransition(cur.EntityStatus(), to)
	}
}
