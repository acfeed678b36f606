package listmut

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/dashboard/internal/models"
)

// fakeServer holds the authoritative list behind a FetchFunc.
type fakeServer struct {
	mu       sync.Mutex
	items    []models.Event
	fetches  atomic.Int32
	fetchErr error
	// afterRead runs once the list has been read, before it is returned.
	afterRead func()
}

func (s *fakeServer) fetch(context.Context) ([]models.Event, error) {
	s.fetches.Add(1)
	s.mu.Lock()
	if s.fetchErr != nil {
		s.mu.Unlock()
		return nil, s.fetchErr
	}
	out := append([]models.Event(nil), s.items...)
	hook := s.afterRead
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *fakeServer) status(id string) models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := Find(s.items, id)
	return e.Status
}

func (s *fakeServer) set(id string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = ApplyStatusChange(s.items, id, status, s.items[0].UpdatedAt.Time)
}

func newLoaded(t *testing.T) (*Collection[models.Event], *fakeServer) {
	t.Helper()
	srv := &fakeServer{items: sampleEvents()}
	c := NewCollection(srv.fetch, zaptest.NewLogger(t))
	require.NoError(t, c.Refresh(context.Background()))
	return c, srv
}

func pendingOnly(e models.Event) error {
	if e.Status != models.StatusPending {
		return errors.New("not pending")
	}
	return nil
}

func TestTransition_Success(t *testing.T) {
	c, srv := newLoaded(t)
	before := srv.fetches.Load()

	err := c.Transition(context.Background(), "e1", models.StatusApproved, pendingOnly, func(context.Context) error {
		srv.set("e1", models.StatusApproved)
		return nil
	})
	require.NoError(t, err)

	e, ok := Find(c.Items(), "e1")
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, e.Status)
	assert.Len(t, c.Items(), 3)
	assert.Equal(t, before, srv.fetches.Load(), "success needs no re-fetch")
}

func TestTransition_AppliedBeforeCommit(t *testing.T) {
	c, _ := newLoaded(t)
	err := c.Transition(context.Background(), "e1", models.StatusRejected, nil, func(context.Context) error {
		e, _ := Find(c.Items(), "e1")
		assert.Equal(t, models.StatusRejected, e.Status, "local change is visible while the request is in flight")
		return nil
	})
	require.NoError(t, err)
}

func TestTransition_FailureRevertsAndRefetches(t *testing.T) {
	c, srv := newLoaded(t)
	before := srv.fetches.Load()
	boom := errors.New("boom")

	var kinds []ChangeKind
	c.SetObserver(func(ch Change[models.Event]) { kinds = append(kinds, ch.Kind) })

	err := c.Transition(context.Background(), "e1", models.StatusApproved, pendingOnly, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	e, _ := Find(c.Items(), "e1")
	assert.Equal(t, models.StatusPending, e.Status)
	assert.Equal(t, before+1, srv.fetches.Load())
	assert.Equal(t, []ChangeKind{ChangeStatus, ChangeReverted, ChangeReloaded}, kinds)
}

func TestTransition_FailedRefetchStillDiscardsLocalChange(t *testing.T) {
	c, srv := newLoaded(t)
	srv.fetchErr = errors.New("still down")

	err := c.Transition(context.Background(), "e3", models.StatusApproved, nil, func(context.Context) error { return errors.New("boom") })
	assert.Error(t, err)
	e, _ := Find(c.Items(), "e3")
	assert.Equal(t, models.StatusPending, e.Status)
}

func TestTransition_GuardVetoSkipsRequest(t *testing.T) {
	c, _ := newLoaded(t)
	called := false
	err := c.Transition(context.Background(), "e2", models.StatusRejected, pendingOnly, func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
	e, _ := Find(c.Items(), "e2")
	assert.Equal(t, models.StatusApproved, e.Status)
}

func TestTransition_UnknownID(t *testing.T) {
	c, _ := newLoaded(t)
	err := c.Transition(context.Background(), "nope", models.StatusApproved, nil, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, c.Items(), 3)
}

func TestRemove(t *testing.T) {
	c, srv := newLoaded(t)
	require.NoError(t, c.Remove(context.Background(), "e2", func(context.Context) error { return nil }))
	assert.Len(t, c.Items(), 2)

	before := srv.fetches.Load()
	err := c.Remove(context.Background(), "e1", func(context.Context) error { return errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, before+1, srv.fetches.Load())
	assert.Len(t, c.Items(), 3, "re-fetch restores the authoritative list")

	err = c.Remove(context.Background(), "missing", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentTransitionsOnDifferentIDs(t *testing.T) {
	c, _ := newLoaded(t)
	release := make(chan struct{})
	var wg sync.WaitGroup
	for _, id := range []string{"e1", "e3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := c.Transition(context.Background(), id, models.StatusApproved, pendingOnly, func(context.Context) error {
				<-release
				return nil
			})
			assert.NoError(t, err)
		}(id)
	}
	close(release)
	wg.Wait()

	items := c.Items()
	assert.Len(t, items, 3)
	seen := map[string]int{}
	for _, e := range items {
		seen[e.ID]++
		assert.Equal(t, models.StatusApproved, e.Status)
	}
	assert.Equal(t, map[string]int{"e1": 1, "e2": 1, "e3": 1}, seen)
}

func TestCompletionAfterRemovalDoesNotReinsert(t *testing.T) {
	c, srv := newLoaded(t)
	srv.fetchErr = errors.New("offline")
	inFlight := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- c.Transition(context.Background(), "e1", models.StatusApproved, nil, func(context.Context) error {
			close(inFlight)
			<-release
			return errors.New("rejected")
		})
	}()
	<-inFlight
	require.NoError(t, c.Remove(context.Background(), "e1", func(context.Context) error { return nil }))
	close(release)
	assert.Error(t, <-done)

	_, found := Find(c.Items(), "e1")
	assert.False(t, found)
	assert.Len(t, c.Items(), 2)
}

func TestClose_InFlightCompletionLeavesStateAlone(t *testing.T) {
	c, srv := newLoaded(t)
	before := srv.fetches.Load()
	err := c.Transition(context.Background(), "e1", models.StatusApproved, nil, func(context.Context) error {
		c.Close()
		return errors.New("late failure")
	})
	assert.Error(t, err)
	assert.Equal(t, before, srv.fetches.Load())

	err = c.Transition(context.Background(), "e3", models.StatusApproved, nil, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
}

func TestStaleRefetchKeepsConcurrentCommit(t *testing.T) {
	c, srv := newLoaded(t)
	read := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv.afterRead = func() {
		once.Do(func() {
			close(read)
			<-release
		})
	}

	failed := make(chan error)
	go func() {
		failed <- c.Transition(context.Background(), "e1", models.StatusApproved, pendingOnly, func(context.Context) error {
			return errors.New("rejected upstream")
		})
	}()
	<-read

	err := c.Transition(context.Background(), "e3", models.StatusApproved, pendingOnly, func(context.Context) error {
		srv.set("e3", models.StatusApproved)
		return nil
	})
	require.NoError(t, err)
	close(release)
	assert.Error(t, <-failed)

	assert.Equal(t, models.StatusApproved, srv.status("e3"))
	e3, _ := Find(c.Items(), "e3")
	assert.Equal(t, models.StatusApproved, e3.Status)
	e1, _ := Find(c.Items(), "e1")
	assert.Equal(t, models.StatusPending, e1.Status)
}

func TestRefetchLandingBeforeCommitIsCorrected(t *testing.T) {
	c, srv := newLoaded(t)
	inFlight := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- c.Transition(context.Background(), "e3", models.StatusRejected, pendingOnly, func(context.Context) error {
			close(inFlight)
			<-release
			srv.set("e3", models.StatusRejected)
			return nil
		})
	}()
	<-inFlight
	require.NoError(t, c.Refresh(context.Background()))
	e3, _ := Find(c.Items(), "e3")
	require.Equal(t, models.StatusPending, e3.Status, "server has not seen the change yet")

	close(release)
	require.NoError(t, <-done)
	e3, _ = Find(c.Items(), "e3")
	assert.Equal(t, models.StatusRejected, e3.Status)
}

func TestStaleRefetchDoesNotRestoreRemovedRecord(t *testing.T) {
	c, srv := newLoaded(t)
	read := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv.afterRead = func() {
		once.Do(func() {
			close(read)
			<-release
		})
	}

	refreshed := make(chan error)
	go func() { refreshed <- c.Refresh(context.Background()) }()
	<-read

	require.NoError(t, c.Remove(context.Background(), "e2", func(context.Context) error {
		srv.mu.Lock()
		srv.items = RemoveByID(srv.items, "e2")
		srv.mu.Unlock()
		return nil
	}))
	close(release)
	require.NoError(t, <-refreshed)

	_, found := Find(c.Items(), "e2")
	assert.False(t, found)
	assert.Len(t, c.Items(), 2)
}
