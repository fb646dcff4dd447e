// Package selection owns the browsing state: the authoritative listing set,
// the active criteria, the derived filtered subset, and the currently viewed
// listing. The filtered subset is recomputed synchronously inside every
// mutation of the set or the criteria.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/julianbeese/estates/internal/catalog"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/filter"
	"golang.org/x/sync/singleflight"
)

// Snapshot is a consistent copy of the state at one point in time
type Snapshot struct {
	Listings  []domain.Listing `json:"-"`
	Filtered  []domain.Listing `json:"listings"`
	Criteria  domain.Criteria  `json:"filters"`
	Selected  *domain.Listing  `json:"selected,omitempty"`
	IsLoading bool             `json:"isLoading"`
	Error     string           `json:"error,omitempty"`
	Total     int              `json:"total"`
}

// FetchObserver is told about every fetch outcome
type FetchObserver interface {
	FetchCompleted(count int)
	FetchFailed(err error)
}

// State is the listing selection state. It is safe for concurrent use.
type State struct {
	repo     catalog.Repository
	engine   *filter.Engine
	logger   *slog.Logger
	observer FetchObserver

	fetches singleflight.Group

	mu        sync.RWMutex
	listings  []domain.Listing
	criteria  domain.Criteria
	filtered  []domain.Listing
	selected  *domain.Listing
	isLoading bool
	lastError string
}

// NewState creates an empty selection state reading from repo
func NewState(repo catalog.Repository, engine *filter.Engine, logger *slog.Logger) *State {
	return &State{
		repo:     repo,
		engine:   engine,
		logger:   logger,
		criteria: domain.DefaultCriteria(),
		filtered: []domain.Listing{},
	}
}

// SetObserver registers a fetch observer (metrics)
func (s *State) SetObserver(o FetchObserver) {
	s.observer = o
}

// ReplaceListings overwrites the authoritative set and recomputes
func (s *State) ReplaceListings(listings []domain.Listing) {
	cp := make([]domain.Listing, len(listings))
	copy(cp, listings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = cp
	s.recompute()
}

// UpdateFilters merges patch into the current criteria and recomputes.
// It returns the resulting criteria.
func (s *State) UpdateFilters(patch domain.CriteriaPatch) domain.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = patch.Apply(s.criteria)
	s.recompute()
	return s.criteria
}

// TryUpdateFilters is UpdateFilters with a check of the merged criteria.
// When check fails nothing changes and its error is returned.
func (s *State) TryUpdateFilters(patch domain.CriteriaPatch, check func(domain.Criteria) error) (domain.Criteria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := patch.Apply(s.criteria)
	if check != nil {
		if err := check(next); err != nil {
			return s.criteria, err
		}
	}
	s.criteria = next
	s.recompute()
	return s.criteria, nil
}

// ResetFilters restores the default criteria and recomputes
func (s *State) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = domain.DefaultCriteria()
	s.recompute()
}

// recompute derives the filtered subset; callers hold s.mu
func (s *State) recompute() {
	s.filtered = s.engine.FilterListings(s.listings, &s.criteria)
	s.logger.Debug("filters applied", "total", len(s.listings), "matched", len(s.filtered))

	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for i := range s.listings {
		if res := s.engine.Explain(&s.listings[i], &s.criteria); !res.Passed {
			s.logger.Debug("listing filtered out", "id", s.listings[i].ID, "reasons", res.Reasons)
		}
	}
}

// SetLoading sets the fetch-in-progress flag
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	s.isLoading = loading
	s.mu.Unlock()
}

// SetError records the last error message; "" clears it
func (s *State) SetError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// ClearError removes the last error message
func (s *State) ClearError() {
	s.SetError("")
}

// Fetch loads the full collection from the repository. On failure the held
// listings are kept and the error message is recorded. Concurrent calls share
// one repository round trip; a caller whose ctx ends stops waiting for it but
// the round trip runs on for the others.
func (s *State) Fetch(ctx context.Context) error {
	ch := s.fetches.DoChan("all", func() (interface{}, error) {
		return nil, s.fetch(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *State) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.lastError = ""
	s.mu.Unlock()

	defer s.SetLoading(false)

	listings, err := s.repo.All(ctx)
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("fetch listings abandoned", "error", err)
		return err
	}
	if err != nil {
		s.logger.Error("fetch listings failed", "error", err)
		s.SetError(err.Error())
		if s.observer != nil {
			s.observer.FetchFailed(err)
		}
		if errors.Is(err, domain.ErrFetchFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	s.ReplaceListings(listings)
	s.logger.Info("listings fetched", "count", len(listings))
	if s.observer != nil {
		s.observer.FetchCompleted(len(listings))
	}
	return nil
}

// EnsureLoaded fetches only when the authoritative set is empty
func (s *State) EnsureLoaded(ctx context.Context) error {
	if s.Len() > 0 {
		return nil
	}
	return s.Fetch(ctx)
}

// Select makes the listing with id the currently viewed one. The held set is
// consulted first, then the repository. When neither knows the id the
// selection is cleared and domain.ErrNotFound is returned.
//
// A miss on an empty held set also triggers a full fetch so that deep links
// leave the state populated; the selection result does not depend on it.
func (s *State) Select(ctx context.Context, id string) (*domain.Listing, error) {
	if l, ok := s.lookup(id); ok {
		s.setSelected(&l)
		return &l, nil
	}

	wasEmpty := s.Len() == 0

	l, err := s.repo.ByID(ctx, id)
	if wasEmpty {
		if ferr := s.Fetch(ctx); ferr != nil {
			s.logger.Warn("prefetch after deep link failed", "id", id, "error", ferr)
		}
	}

	if err != nil {
		s.setSelected(nil)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", id, err)
	}
	if l == nil {
		s.setSelected(nil)
		return nil, domain.ErrNotFound
	}

	s.setSelected(l)
	cp := *l
	return &cp, nil
}

func (s *State) setSelected(l *domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		s.selected = nil
		return
	}
	cp := *l
	s.selected = &cp
}

func (s *State) lookup(id string) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.listings {
		if s.listings[i].ID == id {
			return s.listings[i], true
		}
	}
	return domain.Listing{}, false
}

// Lookup returns a held listing without touching the selection
func (s *State) Lookup(id string) (*domain.Listing, bool) {
	l, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return &l, true
}

// Resolve maps ids to held listings in id order, skipping unknown ids
func (s *State) Resolve(ids []string) []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]int, len(s.listings))
	for i := range s.listings {
		byID[s.listings[i].ID] = i
	}
	out := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			out = append(out, s.listings[i])
		}
	}
	return out
}

// Len returns the size of the authoritative set
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// Listings returns a copy of the authoritative set
func (s *State) Listings() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyListings(s.listings)
}

// Filtered returns a copy of the derived subset
func (s *State) Filtered() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyListings(s.filtered)
}

// Criteria returns the active criteria
func (s *State) Criteria() domain.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// Selected returns the currently viewed listing, or nil
func (s *State) Selected() *domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// IsLoading reports whether a fetch is in progress
func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Err returns the last error message
func (s *State) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Snapshot returns a consistent copy of the whole state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Listings:  copyListings(s.listings),
		Filtered:  copyListings(s.filtered),
		Criteria:  s.criteria,
		IsLoading: s.isLoading,
		Error:     s.lastError,
		Total:     len(s.listings),
	}
	if s.selected != nil {
		cp := *s.selected
		snap.Selected = &cp
	}
	return snap
}

// Cities returns the sorted unique cities of the authoritative set
func (s *State) Cities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	cities := []string{}
	for _, l := range s.listings {
		if l.Address.City == "" || seen[l.Address.City] {
			continue
		}
		seen[l.Address.City] = true
		cities = append(cities, l.Address.City)
	}
	sort.Strings(cities)
	return cities
}

// PriceRange returns the lowest and highest price held; ok is false when
// the set is empty
func (s *State) PriceRange() (lo, hi float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, l := range s.listings {
		if i == 0 || l.Price < lo {
			lo = l.Price
		}
		if i == 0 || l.Price > hi {
			hi = l.Price
		}
	}
	return lo, hi, len(s.listings) > 0
}

func copyListings(in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, len(in))
	copy(out, in)
	return out
}
