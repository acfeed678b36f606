package listmut

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/models"
)

// ErrNotFound is returned when the target id is not in the collection.
var ErrNotFound = errors.New("listmut: record not in collection")

// ErrClosed is returned by operations on a closed collection.
var ErrClosed = errors.New("listmut: collection closed")

// FetchFunc loads the authoritative list from the server.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// CommitFunc performs the server request confirming a local change.
type CommitFunc func(ctx context.Context) error

// Guard vets a change against the current record before anything is applied.
type Guard[T any] func(current T) error

// ChangeKind says what happened to a record.
type ChangeKind string

const (
	ChangeStatus   ChangeKind = "status_changed"
	ChangeRemoved  ChangeKind = "removed"
	ChangeReverted ChangeKind = "reverted"
	ChangeReloaded ChangeKind = "reloaded"
)

// Change is passed to the observer after the collection moved.
type Change[T any] struct {
	Kind   ChangeKind
	ID     string
	Status models.Status
	Items  []T
}

// committed is a change the server confirmed, kept while a fetch that may
// predate it is in flight.
type committed struct {
	gen     uint64
	id      string
	status  models.Status
	at      time.Time
	removed bool
}

// Collection is a displayed list kept responsive with optimistic updates.
// Every change runs in two phases: apply locally, then commit to the server.
// A failed commit discards the local change and re-fetches the list.
// A fetch that started before a commit succeeded has that commit replayed
// on top of its result.
type Collection[T Entity[T]] struct {
	fetch  FetchFunc[T]
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	items    []T
	closed   bool
	observer func(Change[T])

	gen      uint64
	fetching int
	log      []committed
}

// NewCollection creates an empty collection loading from fetch.
func NewCollection[T Entity[T]](fetch FetchFunc[T], logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{fetch: fetch, logger: logger, now: time.Now}
}

// SetObserver sets the callback invoked after each change. It runs without
// the collection lock held.
func (c *Collection[T]) SetObserver(fn func(Change[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// Items returns a copy of the current list.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Close stops the collection; in-flight operations complete without
// touching its state afterwards.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Refresh replaces the list with the server's.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	start := c.gen
	c.fetching++
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	c.fetching--
	if err != nil {
		c.pruneLocked()
		c.mu.Unlock()
		return err
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	items = append([]T(nil), items...)
	for _, ch := range c.log {
		if ch.gen > start {
			items = replay(items, ch)
		}
	}
	c.items = items
	c.pruneLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(Change[T]{Kind: ChangeReloaded, Items: snapshot})
	return nil
}

// Transition moves the record with id to status. guard sees the current
// record first and may veto the change; no request is made then.
func (c *Collection[T]) Transition(ctx context.Context, id string, status models.Status, guard Guard[T], commit CommitFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev, ok := Find(c.items, id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if guard != nil {
		if err := guard(prev); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.items = ApplyStatusChange(c.items, id, status, c.now())
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(Change[T]{Kind: ChangeStatus, ID: id, Status: status, Items: snapshot})

	if err := commit(ctx); err != nil {
		c.rollback(ctx, id, func(items []T) []T { return replace(items, prev) })
		return err
	}
	c.confirm(committed{id: id, status: status, at: c.now()})
	return nil
}

// Remove drops the record with id locally and commits the deletion.
func (c *Collection[T]) Remove(ctx context.Context, id string, commit CommitFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, ok := Find(c.items, id); !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.items = RemoveByID(c.items, id)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(Change[T]{Kind: ChangeRemoved, ID: id, Items: snapshot})

	if err := commit(ctx); err != nil {
		// The removed record comes back through the re-fetch, not locally.
		c.rollback(ctx, id, nil)
		return err
	}
	c.confirm(committed{id: id, removed: true})
	return nil
}

// confirm records a server-accepted change. A fetch that overwrote the
// optimistic state in the meantime is corrected here; one still in flight
// replays it when it lands.
func (c *Collection[T]) confirm(ch committed) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	ch.gen = c.gen
	if c.fetching > 0 {
		c.log = append(c.log, ch)
	}
	before := c.items
	c.items = replay(c.items, ch)
	moved := len(before) != len(c.items)
	if !moved && !ch.removed {
		if cur, ok := Find(before, ch.id); ok && cur.EntityStatus() != ch.status {
			moved = true
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	if !moved {
		return
	}
	kind := ChangeStatus
	if ch.removed {
		kind = ChangeRemoved
	}
	c.emit(Change[T]{Kind: kind, ID: ch.id, Status: ch.status, Items: snapshot})
}

func (c *Collection[T]) pruneLocked() {
	if c.fetching == 0 {
		c.log = nil
	}
}

// replay applies a confirmed change to items. A record that is no longer
// listed stays absent.
func replay[T Entity[T]](items []T, ch committed) []T {
	if ch.removed {
		return RemoveByID(items, ch.id)
	}
	cur, ok := Find(items, ch.id)
	if !ok || cur.EntityStatus() == ch.status {
		return items
	}
	return ApplyStatusChange(items, ch.id, ch.status, ch.at)
}

// rollback discards a failed optimistic change and resynchronises. The
// re-fetch is best effort: its failure is logged, never returned.
func (c *Collection[T]) rollback(ctx context.Context, id string, revert func([]T) []T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if revert != nil {
		c.items = revert(c.items)
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(Change[T]{Kind: ChangeReverted, ID: id, Items: snapshot})

	if err := c.Refresh(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrClosed) {
		c.logger.Warn("resync after failed change", zap.String("id", id), zap.Error(err))
	}
}

func (c *Collection[T]) snapshotLocked() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) emit(ch Change[T]) {
	c.mu.Lock()
	fn := c.observer
	c.mu.Unlock()
	if fn != nil {
		fn(ch)
	}
}
