package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	calls    atomic.Int32
	err      error
	listings []domain.Listing
}

func (c *fakeCatalog) Fetch(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func (c *fakeCatalog) Listings() []domain.Listing { return c.listings }

type recorder struct {
	mu       sync.Mutex
	mirrored int
	actions  []string
	errors   []string
}

func (r *recorder) ReplaceListings(ctx context.Context, listings []domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirrored = len(listings)
	return nil
}

func (r *recorder) LogActivity(ctx context.Context, log *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, log.Action)
	return nil
}

func (r *recorder) NotifyError(ctx context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceMirrorsAndLogs(t *testing.T) {
	cat := &fakeCatalog{listings: testutil.FiveListings()}
	rec := &recorder{}
	s := NewScheduler(cat, rec, rec, rec, 0, discard())

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, 5, rec.mirrored)
	assert.Equal(t, []string{domain.ActionCatalogLoaded}, rec.actions)
	last, err := s.LastRun()
	assert.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestRunOnceFailureSkipsMirror(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("upstream 503")}
	rec := &recorder{}
	s := NewScheduler(cat, rec, rec, rec, 0, discard())

	require.Error(t, s.RunOnce(context.Background()))
	assert.Zero(t, rec.mirrored)
	assert.Equal(t, []string{domain.ActionFetchFailed}, rec.actions)
	_, err := s.LastRun()
	assert.Error(t, err)
}

func TestStartRefreshesImmediatelyAndNotifiesFailures(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("timeout")}
	rec := &recorder{}
	s := NewScheduler(cat, nil, nil, rec, 0, discard())

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return cat.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "timeout")
}

func TestTickerRefreshesRepeatedly(t *testing.T) {
	cat := &fakeCatalog{}
	s := NewScheduler(cat, nil, nil, nil, 10*time.Millisecond, discard())

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return cat.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	// Stop is idempotent
	s.Stop()
}

func TestStopOnContextCancel(t *testing.T) {
	cat := &fakeCatalog{}
	s := NewScheduler(cat, nil, nil, nil, time.Hour, discard())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestStartAfterRunOnceSkipsImmediateRefresh(t *testing.T) {
	cat := &fakeCatalog{}
	s := NewScheduler(cat, nil, nil, nil, time.Hour, discard())

	require.NoError(t, s.RunOnce(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), cat.calls.Load())
}
