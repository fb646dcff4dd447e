package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianbeese/estates/internal/catalog"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/filter"
	"github.com/julianbeese/estates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(repo catalog.Repository) *State {
	return NewState(repo, filter.NewEngine(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

// stubRepo counts calls and can be switched into failure mode
type stubRepo struct {
	mu       sync.Mutex
	listings []domain.Listing
	err      error
	allCalls atomic.Int32
	byCalls  atomic.Int32
	gate     chan struct{}
}

func (r *stubRepo) All(ctx context.Context) ([]domain.Listing, error) {
	r.allCalls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Listing(nil), r.listings...), nil
}

func (r *stubRepo) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.byCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, l := range r.listings {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func TestReplaceListingsRecomputes(t *testing.T) {
	s := newState(&stubRepo{})
	s.UpdateFilters(domain.CriteriaPatch{City: domain.SetTo("London")})
	assert.Empty(t, s.Filtered())

	s.ReplaceListings(testutil.FiveListings())
	assert.Equal(t, []string{"1", "3", "4"}, ids(s.Filtered()))

	s.ReplaceListings(testutil.FiveListings()[:2])
	assert.Equal(t, []string{"1"}, ids(s.Filtered()))
	assert.Equal(t, 2, s.Len())
}

func TestUpdateFiltersMerges(t *testing.T) {
	s := newState(&stubRepo{})
	s.ReplaceListings(testutil.FiveListings())

	s.UpdateFilters(domain.CriteriaPatch{City: domain.SetTo("London")})
	got := s.UpdateFilters(domain.CriteriaPatch{
		PriceMin: domain.SetTo(100000.0),
		PriceMax: domain.SetTo(200000.0),
	})

	assert.Equal(t, "London", got.City)
	assert.Equal(t, []string{"1", "4"}, ids(s.Filtered()))
}

func TestFilteredIsSubsetInOrder(t *testing.T) {
	s := newState(&stubRepo{})
	all := testutil.FiveListings()
	s.ReplaceListings(all)
	s.UpdateFilters(domain.CriteriaPatch{RoomsMin: domain.SetTo(2)})

	pos := map[string]int{}
	for i, l := range all {
		pos[l.ID] = i
	}
	last := -1
	for _, l := range s.Filtered() {
		p, ok := pos[l.ID]
		require.True(t, ok)
		assert.Greater(t, p, last)
		last = p
	}
}

func TestResetFiltersRestoresFullSet(t *testing.T) {
	s := newState(&stubRepo{})
	s.ReplaceListings(testutil.FiveListings())
	s.UpdateFilters(domain.CriteriaPatch{Search: domain.SetTo("garden"), RoomsMax: domain.SetTo(1)})
	require.Empty(t, s.Filtered())

	s.ResetFilters()

	assert.Equal(t, ids(s.Listings()), ids(s.Filtered()))
	assert.True(t, s.Criteria().IsEmpty())
}

func TestSelectFromHeldSet(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)
	s.ReplaceListings(testutil.FiveListings())

	l, err := s.Select(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "3", l.ID)
	assert.Equal(t, "3", s.Selected().ID)
	assert.Zero(t, repo.byCalls.Load())
}

func TestSelectFallsBackToRepository(t *testing.T) {
	extra := testutil.Listing("99", testutil.City("York"))
	repo := &stubRepo{listings: append(testutil.FiveListings(), extra)}
	s := newState(repo)
	s.ReplaceListings(testutil.FiveListings())

	l, err := s.Select(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, "York", l.Address.City)
	assert.Equal(t, int32(1), repo.byCalls.Load())
	// held set was not empty, no prefetch
	assert.Zero(t, repo.allCalls.Load())
	assert.Equal(t, 5, s.Len())
}

func TestSelectDeepLinkPrefetches(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)

	l, err := s.Select(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "2", l.ID)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, int32(1), repo.allCalls.Load())
}

func TestSelectNotFoundClearsSelection(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)
	s.ReplaceListings(testutil.FiveListings())
	_, err := s.Select(context.Background(), "1")
	require.NoError(t, err)

	_, err = s.Select(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, s.Selected())
}

func TestSelectRepositoryFailureIsReported(t *testing.T) {
	repo := &stubRepo{}
	repo.fail(errors.New("connection refused"))
	s := newState(repo)

	_, err := s.Select(context.Background(), "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, s.Selected())
}

func TestFetchPopulatesAndClearsFlags(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)
	s.SetError("stale")

	require.NoError(t, s.Fetch(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, 5, snap.Total)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Filtered, 5)
}

func TestFetchFailureKeepsLastKnownGood(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)
	require.NoError(t, s.Fetch(context.Background()))

	repo.fail(errors.New("upstream unavailable"))
	err := s.Fetch(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Equal(t, 5, s.Len())
	assert.Contains(t, s.Err(), "upstream unavailable")
	assert.False(t, s.IsLoading())
}

func TestLoadingFlagDuringFetch(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings(), gate: make(chan struct{})}
	s := newState(repo)

	done := make(chan error, 1)
	go func() { done <- s.Fetch(context.Background()) }()

	assert.Eventually(t, s.IsLoading, time.Second, time.Millisecond)
	close(repo.gate)
	require.NoError(t, <-done)
	assert.False(t, s.IsLoading())
}

func TestConcurrentFetchesAreCollapsed(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings(), gate: make(chan struct{})}
	s := newState(repo)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Fetch(context.Background()))
		}()
	}
	assert.Eventually(t, func() bool { return repo.allCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	// callers that arrived while the first fetch was blocked joined it
	assert.Less(t, repo.allCalls.Load(), int32(5))
	assert.Equal(t, 5, s.Len())
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings(), gate: make(chan struct{})}
	s := newState(repo)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- s.Fetch(ctx) }()
	require.Eventually(t, func() bool { return repo.allCalls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- s.Fetch(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(repo.gate)
	require.NoError(t, <-second)
	assert.Equal(t, int32(1), repo.allCalls.Load())
	assert.Equal(t, 5, s.Len())
	assert.Empty(t, s.Err())
	assert.False(t, s.IsLoading())
}

func TestFilteredOutReasonsLoggedAtDebug(t *testing.T) {
	var buf syncBuffer
	s := NewState(&stubRepo{}, filter.NewEngine(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s.ReplaceListings(testutil.FiveListings())
	s.UpdateFilters(domain.CriteriaPatch{City: domain.SetTo("Leeds")})

	out := buf.String()
	assert.Contains(t, out, "listing filtered out")
	assert.Contains(t, out, "id=1")
}

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func TestEnsureLoadedOnlyWhenEmpty(t *testing.T) {
	repo := &stubRepo{listings: testutil.FiveListings()}
	s := newState(repo)

	require.NoError(t, s.EnsureLoaded(context.Background()))
	require.NoError(t, s.EnsureLoaded(context.Background()))
	assert.Equal(t, int32(1), repo.allCalls.Load())
}

func TestCitiesAndPriceRange(t *testing.T) {
	s := newState(&stubRepo{})
	_, _, ok := s.PriceRange()
	assert.False(t, ok)

	s.ReplaceListings(testutil.FiveListings())
	assert.Equal(t, []string{"Leeds", "London", "Manchester"}, s.Cities())

	lo, hi, ok := s.PriceRange()
	require.True(t, ok)
	assert.Equal(t, 120000.0, lo)
	assert.Equal(t, 900000.0, hi)
}

func TestResolveKeepsIDOrder(t *testing.T) {
	s := newState(&stubRepo{})
	s.ReplaceListings(testutil.FiveListings())

	got := s.Resolve([]string{"4", "missing", "1"})
	assert.Equal(t, []string{"4", "1"}, ids(got))
}

func TestTryUpdateFiltersRejectsWithoutChange(t *testing.T) {
	s := newState(&stubRepo{})
	s.ReplaceListings(testutil.FiveListings())
	s.UpdateFilters(domain.CriteriaPatch{City: domain.SetTo("London")})

	reject := func(c domain.Criteria) error {
		if c.PriceMin != nil && c.PriceMax != nil && *c.PriceMin > *c.PriceMax {
			return errors.New("min above max")
		}
		return nil
	}

	_, err := s.TryUpdateFilters(domain.CriteriaPatch{
		PriceMin: domain.SetTo(500000.0),
		PriceMax: domain.SetTo(100000.0),
	}, reject)
	require.Error(t, err)
	assert.Nil(t, s.Criteria().PriceMin)
	assert.Equal(t, []string{"1", "3", "4"}, ids(s.Filtered()))

	got, err := s.TryUpdateFilters(domain.CriteriaPatch{PriceMax: domain.SetTo(200000.0)}, reject)
	require.NoError(t, err)
	assert.Equal(t, "London", got.City)
	assert.Equal(t, []string{"1", "4"}, ids(s.Filtered()))
}
