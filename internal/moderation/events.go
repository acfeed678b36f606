package moderation

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/models"
)

// EventBoard lists every event and records admin approvals.
type EventBoard struct {
	api      *apiclient.Client
	sessions Sessions
	list     *listmut.Collection[models.Event]
	logger   *zap.Logger
}

// NewEventBoard creates an event board. notifier may be nil.
func NewEventBoard(api *apiclient.Client, sessions Sessions, notifier Notifier, logger *zap.Logger) *EventBoard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	b := &EventBoard{api: api, sessions: sessions, logger: logger}
	b.list = listmut.NewCollection(api.ListAllEvents, logger.With(zap.String("board", BoardEvents)))
	b.list.SetObserver(observe[models.Event](notifier, BoardEvents))
	return b
}

// Refresh reloads the event list from the API.
func (b *EventBoard) Refresh(ctx context.Context) error {
	if err := requireAdmin(ctx, b.sessions); err != nil {
		return err
	}
	return b.list.Refresh(ctx)
}

// Items returns the events currently displayed.
func (b *EventBoard) Items() []models.Event { return b.list.Items() }

// Pending splits the events into awaiting approval and processed.
func (b *EventBoard) Pending() (pending, processed []models.Event) {
	return listmut.Partition(b.list.Items())
}

// Approve approves a pending event.
func (b *EventBoard) Approve(ctx context.Context, id string) error {
	return b.decide(ctx, id, models.StatusApproved)
}

// Reject rejects a pending event.
func (b *EventBoard) Reject(ctx context.Context, id string) error {
	return b.decide(ctx, id, models.StatusRejected)
}

func (b *EventBoard) decide(ctx context.Context, id string, status models.Status) error {
	if err := requireAdmin(ctx, b.sessions); err != nil {
		return err
	}
	err := b.list.Transition(ctx, id, status, pendingGuard[models.Event](status), func(ctx context.Context) error {
		_, err := b.api.SetEventStatus(ctx, id, status)
		return err
	})
	if err != nil {
		b.logger.Info("event decision failed", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	b.logger.Info("event decided", zap.String("id", id), zap.String("status", string(status)))
	return nil
}

// Close detaches the board; late completions no longer touch it.
func (b *EventBoard) Close() { b.list.Close() }
