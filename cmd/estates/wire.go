package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/julianbeese/estates/internal/catalog"
	"github.com/julianbeese/estates/internal/config"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/idset"
	"github.com/julianbeese/estates/internal/latency"
	"github.com/julianbeese/estates/internal/repository/badger"
	"github.com/julianbeese/estates/internal/repository/redis"
	"github.com/julianbeese/estates/internal/repository/sqlite"
	"github.com/lmittmann/tint"
)

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// catalogSource is the repository the state fetches from, plus the hooks
// the rest of main needs for it
type catalogSource struct {
	repo catalog.Repository
	// mirror receives refreshed catalogs; nil when the source is the mirror
	mirror *sqlite.Repository
	// onReload applies a changed dataset file; nil disables watching
	onReload func(ctx context.Context, listings []domain.Listing) error
}

func buildCatalog(ctx context.Context, cfg config.CatalogConfig, db *sqlite.Repository, logger *slog.Logger) (*catalogSource, error) {
	sim := latency.NewSimulator(cfg.MinDelay, cfg.MaxDelay)

	switch cfg.Source {
	case "static":
		listings, err := catalog.LoadDataset(cfg.DatasetPath)
		if err != nil {
			return nil, err
		}
		static := catalog.NewStatic(listings)
		return &catalogSource{
			repo:   catalog.NewDelayed(static, sim),
			mirror: db,
			onReload: func(ctx context.Context, listings []domain.Listing) error {
				static.Replace(listings)
				return db.ReplaceListings(ctx, listings)
			},
		}, nil

	case "sqlite":
		if err := seed(ctx, db, cfg.DatasetPath, logger); err != nil {
			return nil, err
		}
		return &catalogSource{
			repo:     catalog.NewDelayed(db, sim),
			onReload: db.ReplaceListings,
		}, nil

	case "remote":
		// the stored copy answers while the remote is down
		if err := seed(ctx, db, cfg.DatasetPath, logger); err != nil {
			logger.Warn("fallback catalog not seeded", "error", err)
		}
		remote := catalog.NewRemote(cfg.RemoteURL, cfg.AccessKey, cfg.Timeout)
		return &catalogSource{
			repo:   catalog.NewFallback(remote, db, logger),
			mirror: db,
		}, nil
	}

	return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
}

// seed fills an empty listings table from the dataset file
func seed(ctx context.Context, db *sqlite.Repository, path string, logger *slog.Logger) error {
	n, err := db.CountListings(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	listings, err := catalog.LoadDataset(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no dataset to seed from", "path", path)
			return nil
		}
		return err
	}
	if err := db.ReplaceListings(ctx, listings); err != nil {
		return fmt.Errorf("seed listings: %w", err)
	}
	logger.Info("listings seeded", "count", len(listings), "path", path)
	return nil
}

type savedSets struct {
	favorites *idset.Favorites
	compare   *idset.Compare
	recent    *idset.Recent
	close     func() error
}

func openSets(ctx context.Context, cfg config.StorageConfig, db *sqlite.Repository, logger *slog.Logger) (*savedSets, error) {
	var (
		storage idset.Storage
		closer  = func() error { return nil }
	)

	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		storage = db
	case "badger":
		store, err := badger.Open(badger.Config{
			Path:       cfg.BadgerPath,
			SyncWrites: true,
			GCInterval: 10 * time.Minute,
			Logger:     logger.With("component", "badger"),
		})
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		storage, closer = store, store.Close
	case "redis":
		client, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		store := redis.NewStore(client)
		storage, closer = store, store.Close
	case "memory":
		storage = idset.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	favKey, cmpKey, recentKey := cfg.Keys()
	sets := &savedSets{close: closer}

	var err error
	if sets.favorites, err = idset.OpenFavorites(ctx, storage, favKey); err != nil {
		closer()
		return nil, fmt.Errorf("open favorites: %w", err)
	}
	if sets.compare, err = idset.OpenCompare(ctx, storage, cmpKey); err != nil {
		closer()
		return nil, fmt.Errorf("open compare list: %w", err)
	}
	if sets.recent, err = idset.OpenRecent(ctx, storage, recentKey); err != nil {
		closer()
		return nil, fmt.Errorf("open recently viewed: %w", err)
	}
	return sets, nil
}
