package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julianbeese/estates/internal/catalog"
	"github.com/julianbeese/estates/internal/config"
	"github.com/julianbeese/estates/internal/contact"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/filter"
	"github.com/julianbeese/estates/internal/httpapi"
	"github.com/julianbeese/estates/internal/messenger"
	"github.com/julianbeese/estates/internal/metrics"
	"github.com/julianbeese/estates/internal/notifier/telegram"
	"github.com/julianbeese/estates/internal/repository/sqlite"
	"github.com/julianbeese/estates/internal/scheduler"
	"github.com/julianbeese/estates/internal/selection"
)

func main() {
	// Load .env file if present (ignores error if not found)
	_ = godotenv.Load()
	_ = godotenv.Load("deployments/.env")

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	runOnce := flag.Bool("once", false, "Refresh the catalog once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		newLogger("info", "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"catalog_source", cfg.Catalog.Source,
		"storage_driver", cfg.Storage.Driver,
		"refresh_interval", cfg.RefreshInterval,
		"telegram_enabled", cfg.Telegram.Enabled,
	)

	if err := run(cfg, *runOnce, logger); err != nil {
		logger.Error("estates stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, once bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database initialized", "path", cfg.DatabasePath)

	source, err := buildCatalog(ctx, cfg.Catalog, db, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	m := metrics.New()
	state := selection.NewState(source.repo, filter.NewEngine(), logger.With("component", "selection"))
	state.SetObserver(m)

	botController, err := telegram.NewBotController(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Enabled)
	if err != nil {
		return fmt.Errorf("initialize Telegram bot controller: %w", err)
	}
	notifier := telegram.NewNotifierFromController(botController)

	var mirror scheduler.Mirror
	if source.mirror != nil {
		mirror = source.mirror
	}
	sched := scheduler.NewScheduler(state, mirror, db, notifier, cfg.RefreshInterval, logger.With("component", "scheduler"))

	if once {
		logger.Info("running single catalog refresh")
		if err := sched.RunOnce(ctx); err != nil {
			return fmt.Errorf("catalog refresh: %w", err)
		}
		logger.Info("catalog refresh complete", "count", state.Len())
		return nil
	}

	sets, err := openSets(ctx, cfg.Storage, db, logger)
	if err != nil {
		return err
	}
	defer sets.close()

	generator, err := messenger.NewGenerator(cfg.Message.TemplatePath)
	if err != nil {
		return fmt.Errorf("initialize message generator: %w", err)
	}

	contacts := contact.NewService(source.repo, db, notifier, logger.With("component", "contact"))

	botController.SetCallbacks(
		func() string { return statusReport(state, sched) },
		func() string { return statsReport(db) },
		func(ctx context.Context) string {
			if err := sched.RunOnce(ctx); err != nil {
				return "❌ Reload failed: " + err.Error()
			}
			return fmt.Sprintf("✅ Catalog reloaded: %d listings", state.Len())
		},
	)

	if source.onReload != nil && cfg.Catalog.Watch {
		if err := startWatcher(ctx, cfg.Catalog.DatasetPath, source.onReload, state, logger); err != nil {
			logger.Warn("dataset watcher not started", "error", err)
		}
	}

	// first load happens before serving; the scheduler then skips its own
	if err := sched.RunOnce(ctx); err != nil {
		logger.Warn("initial catalog load failed", "error", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	if botController.IsEnabled() {
		botController.StartCommandListener(ctx)
		logger.Info("Telegram command listener started")
	}
	if err := notifier.NotifyStartup(ctx, state.Len()); err != nil {
		logger.Warn("startup notification failed", "error", err)
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		State:        state,
		Favorites:    sets.favorites,
		Compare:      sets.compare,
		Recent:       sets.recent,
		Contact:      contacts,
		Messages:     generator,
		Metrics:      m,
		MapPrecision: cfg.Map.GeohashPrecision,
	})
	server := httpapi.NewServer(httpapi.Options{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
	}, handler, logger.With("component", "rest_server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func startWatcher(ctx context.Context, path string, apply func(context.Context, []domain.Listing) error, state *selection.State, logger *slog.Logger) error {
	w, err := catalog.NewWatcher(path, func(listings []domain.Listing) {
		if err := apply(ctx, listings); err != nil {
			logger.Error("apply reloaded dataset failed", "error", err)
			return
		}
		state.ReplaceListings(listings)
	}, logger.With("component", "watcher"))
	if err != nil {
		return err
	}
	go w.Run(ctx)
	logger.Info("watching dataset for changes", "path", path)
	return nil
}

func statusReport(state *selection.State, sched *scheduler.Scheduler) string {
	last, lastErr := sched.LastRun()
	refreshed := "never"
	if !last.IsZero() {
		refreshed = last.Format(time.DateTime)
	}
	outcome := "ok"
	if lastErr != nil {
		outcome = lastErr.Error()
	}
	return fmt.Sprintf(`<b>Listings:</b> %d
<b>Matching filters:</b> %d
<b>Last refresh:</b> %s (%s)`, state.Len(), len(state.Filtered()), refreshed, outcome)
}

func statsReport(db *sqlite.Repository) string {
	stats, err := db.GetStats(context.Background())
	if err != nil {
		return "Statistics not available: " + err.Error()
	}
	lastLoad := "never"
	if stats.LastCatalogLoad != nil {
		lastLoad = stats.LastCatalogLoad.Format(time.DateTime)
	}
	return fmt.Sprintf(`📊 <b>Statistics</b>

<b>Stored listings:</b> %d
<b>Inquiries sent:</b> %d
<b>Inquiries failed:</b> %d
<b>Failed fetches:</b> %d
<b>Last catalog load:</b> %s`, stats.Listings, stats.InquiriesSent, stats.InquiriesFailed, stats.FetchFailures, lastLoad)
}
