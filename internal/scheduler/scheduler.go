package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/julianbeese/estates/internal/domain"
)

// Catalog is the state refreshed on every tick
type Catalog interface {
	Fetch(ctx context.Context) error
	Listings() []domain.Listing
}

// Mirror receives a copy of every successfully fetched catalog
type Mirror interface {
	ReplaceListings(ctx context.Context, listings []domain.Listing) error
}

// ActivityLogger records refresh outcomes
type ActivityLogger interface {
	LogActivity(ctx context.Context, log *domain.ActivityLog) error
}

// ErrorNotifier is told about failed refreshes
type ErrorNotifier interface {
	NotifyError(ctx context.Context, errMsg string) error
}

// Scheduler refreshes the listing catalog periodically
type Scheduler struct {
	catalog  Catalog
	mirror   Mirror
	activity ActivityLogger
	notifier ErrorNotifier
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a new scheduler. mirror, activity and notifier may
// be nil. An interval of 0 refreshes only once on Start.
func NewScheduler(catalog Catalog, mirror Mirror, activity ActivityLogger, notifier ErrorNotifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		catalog:  catalog,
		mirror:   mirror,
		activity: activity,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the refresh loop. The first refresh happens right away
// unless a previous one is younger than the interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh
}

// RunOnce performs a single refresh
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.refresh(ctx)
}

// LastRun returns when the last refresh finished and how it ended
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// Run immediately unless RunOnce just did
	if s.due() {
		s.tick(ctx)
	}

	if s.interval <= 0 {
		select {
		case <-s.stopCh:
		case <-ctx.Done():
		}
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun.IsZero() {
		return true
	}
	return s.interval > 0 && time.Since(s.lastRun) >= s.interval
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
		s.notifyError(ctx, err)
	}
}

func (s *Scheduler) refresh(ctx context.Context) error {
	s.logger.Debug("starting catalog refresh")

	err := s.catalog.Fetch(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logActivity(ctx, &domain.ActivityLog{
			Action:     domain.ActionFetchFailed,
			EntityType: "catalog",
			ErrorMsg:   err.Error(),
		})
		return err
	}

	listings := s.catalog.Listings()
	if s.mirror != nil {
		if err := s.mirror.ReplaceListings(ctx, listings); err != nil {
			// the held state is already updated; only the mirror is stale
			s.logger.Warn("catalog mirror update failed", "error", err)
		}
	}

	s.logActivity(ctx, &domain.ActivityLog{
		Action:     domain.ActionCatalogLoaded,
		EntityType: "catalog",
		Details:    fmt.Sprintf("%d listings", len(listings)),
	})
	s.logger.Info("catalog refreshed", "count", len(listings))
	return nil
}

func (s *Scheduler) logActivity(ctx context.Context, entry *domain.ActivityLog) {
	if s.activity == nil {
		return
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity log failed", "action", entry.Action, "error", err)
	}
}

func (s *Scheduler) notifyError(ctx context.Context, err error) {
	if s.notifier != nil {
		if nerr := s.notifier.NotifyError(ctx, "Catalog refresh failed: "+err.Error()); nerr != nil {
			s.logger.Warn("error notification failed", "error", nerr)
		}
	}
}
