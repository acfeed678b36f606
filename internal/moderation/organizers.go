package moderation

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/models"
)

// OrganizerBoard lists organizer accounts and records admin decisions.
type OrganizerBoard struct {
	api      *apiclient.Client
	sessions Sessions
	list     *listmut.Collection[models.Organizer]
	logger   *zap.Logger
}

// NewOrganizerBoard creates an organizer board. notifier may be nil.
func NewOrganizerBoard(api *apiclient.Client, sessions Sessions, notifier Notifier, logger *zap.Logger) *OrganizerBoard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	b := &OrganizerBoard{api: api, sessions: sessions, logger: logger}
	b.list = listmut.NewCollection(func(ctx context.Context) ([]models.Organizer, error) {
		return api.ListOrganizers(ctx, "")
	}, logger.With(zap.String("board", BoardOrganizers)))
	b.list.SetObserver(observe[models.Organizer](notifier, BoardOrganizers))
	return b
}

// Refresh reloads the organizer list from the API.
func (b *OrganizerBoard) Refresh(ctx context.Context) error {
	if err := requireAdmin(ctx, b.sessions); err != nil {
		return err
	}
	return b.list.Refresh(ctx)
}

// Items returns the organizers currently displayed.
func (b *OrganizerBoard) Items() []models.Organizer { return b.list.Items() }

// Pending returns organizers awaiting a decision, then the processed ones.
func (b *OrganizerBoard) Pending() (pending, processed []models.Organizer) {
	return listmut.Partition(b.list.Items())
}

// Approve approves a pending organizer.
func (b *OrganizerBoard) Approve(ctx context.Context, id string) error {
	return b.decide(ctx, id, models.StatusApproved)
}

// Reject rejects a pending organizer.
func (b *OrganizerBoard) Reject(ctx context.Context, id string) error {
	return b.decide(ctx, id, models.StatusRejected)
}

func (b *OrganizerBoard) decide(ctx context.Context, id string, status models.Status) error {
	if err := requireAdmin(ctx, b.sessions); err != nil {
		return err
	}
	err := b.list.Transition(ctx, id, status, pendingGuard[models.Organizer](status), func(ctx context.Context) error {
		_, err := b.api.UpdateOrganizerStatus(ctx, id, models.OrganizerUpdate{
			Status: status,
			Reason: models.ModerationReason(status),
		})
		return err
	})
	if err != nil {
		b.logger.Info("organizer decision failed", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	b.logger.Info("organizer decided", zap.String("id", id), zap.String("status", string(status)))
	return nil
}

// Delete removes an organizer account.
func (b *OrganizerBoard) Delete(ctx context.Context, id string) error {
	if err := requireAdmin(ctx, b.sessions); err != nil {
		return err
	}
	err := b.list.Remove(ctx, id, func(ctx context.Context) error {
		return b.api.DeleteOrganizer(ctx, id)
	})
	if err != nil {
		b.logger.Info("organizer delete failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Close detaches the board; late completions no longer touch it.
func (b *OrganizerBoard) Close() { b.list.Close() }
