package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/attendboard/internal/adapters/http/api"
	"github.com/okian/attendboard/internal/adapters/http/site"
	"github.com/okian/attendboard/internal/adapters/http/swagger"
	"github.com/okian/attendboard/internal/adapters/repository"
	"github.com/okian/attendboard/internal/adapters/sheet"
	app "github.com/okian/attendboard/internal/app"
	"github.com/okian/attendboard/internal/config"
	"github.com/okian/attendboard/internal/domain/leaderboard"
	"github.com/okian/attendboard/internal/domain/ranking"
	"github.com/okian/attendboard/internal/domain/scoring"
	"github.com/okian/attendboard/pkg/logger"
	"github.com/okian/attendboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService wires the sheet client, roster cache and ranking pipeline from cfg.
func newService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	tag, err := cfg.Language()
	if err != nil {
		return nil, err
	}

	client := sheet.New(cfg.SheetID,
		sheet.WithGID(cfg.GID),
		sheet.WithTimeout(cfg.FetchTimeout()),
		sheet.WithRateLimit(cfg.FetchRatePerSec, cfg.FetchBurst),
		sheet.WithLogger(logger.Named("sheet")),
	)
	labels := cfg.Labels()
	scorer := scoring.New(scoring.WithLabels(labels.Attendance, labels.Events))
	board := leaderboard.New(
		leaderboard.WithScorer(scorer),
		leaderboard.WithRanker(ranking.New(ranking.WithLocale(tag), ranking.WithScorer(scorer))),
		leaderboard.WithThreshold(cfg.Threshold),
	)

	opts := []app.Option{
		app.WithSource(client),
		app.WithStore(repository.NewTermStore(repository.WithMaxTerms(cfg.CacheTerms))),
		app.WithBoard(board),
		app.WithLabels(labels),
		app.WithTitle(cfg.Title),
		app.WithTermStartYear(cfg.TermStartYear),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithLogger(logger.Named("service")),
	}
	if err := cfg.CheckSource(ctx); err != nil {
		opts = append(opts, app.WithSetupError(err))
	}
	return app.New(opts...), nil
}

// newMux registers every HTTP surface on one mux.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine())
}
