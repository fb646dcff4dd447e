// Package catalog provides the read-only listing sources the browsing state
// pulls from: a static dataset, a remote JSON endpoint, and wrappers that
// add simulated latency or fall back to a second source.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/latency"
)

// Repository is a read-only listing source. ByID returns domain.ErrNotFound
// when the listing does not exist.
type Repository interface {
	All(ctx context.Context) ([]domain.Listing, error)
	ByID(ctx context.Context, id string) (*domain.Listing, error)
}

// Static serves listings from memory
type Static struct {
	mu       sync.RWMutex
	listings []domain.Listing
}

// NewStatic creates a static catalog holding a copy of listings
func NewStatic(listings []domain.Listing) *Static {
	s := &Static{}
	s.Replace(listings)
	return s
}

// Replace swaps the held dataset
func (s *Static) Replace(listings []domain.Listing) {
	cp := make([]domain.Listing, len(listings))
	copy(cp, listings)

	s.mu.Lock()
	s.listings = cp
	s.mu.Unlock()
}

// All returns a copy of every listing
func (s *Static) All(ctx context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Listing, len(s.listings))
	copy(out, s.listings)
	return out, nil
}

// ByID returns a single listing
func (s *Static) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			l := s.listings[i]
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Delayed wraps a repository with simulated network latency
type Delayed struct {
	next    Repository
	latency *latency.Simulator
}

// NewDelayed creates a delayed repository
func NewDelayed(next Repository, sim *latency.Simulator) *Delayed {
	return &Delayed{next: next, latency: sim}
}

func (d *Delayed) All(ctx context.Context) ([]domain.Listing, error) {
	if err := d.latency.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.All(ctx)
}

func (d *Delayed) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	if err := d.latency.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.ByID(ctx, id)
}

// Fallback serves from primary and switches to secondary when primary fails.
// A not-found answer from primary is authoritative and is not retried.
type Fallback struct {
	primary   Repository
	secondary Repository
	logger    *slog.Logger
}

// NewFallback creates a fallback repository
func NewFallback(primary, secondary Repository, logger *slog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) All(ctx context.Context) ([]domain.Listing, error) {
	listings, err := f.primary.All(ctx)
	if err == nil {
		return listings, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.logger.Warn("primary catalog failed, using fallback", "error", err)
	listings, ferr := f.secondary.All(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}
	return listings, nil
}

func (f *Fallback) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := f.primary.ByID(ctx, id)
	if err == nil || isNotFound(err) || ctx.Err() != nil {
		return l, err
	}

	f.logger.Warn("primary catalog lookup failed, using fallback", "id", id, "error", err)
	return f.secondary.ByID(ctx, id)
}
