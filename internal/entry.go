// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/timelog/internal/api"
	"github.com/starford/timelog/internal/mcpserver"
	"github.com/starford/timelog/internal/recordservice"
	"github.com/starford/timelog/internal/repository"
	"github.com/starford/timelog/internal/sse"
	"github.com/starford/timelog/internal/store"
	pkgconfig "github.com/starford/timelog/pkg/config"
)

// runtime holds the components shared by the HTTP and MCP entry points.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	level  *slog.LevelVar
	db     *store.DB
	repo   *repository.Repository
	svc    *recordservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.registry == nil {
		app.registry = prometheus.NewRegistry()
	}
	return app, nil
}

// start opens the store and builds the cache and state holder over it.
func start(ctx context.Context, app *application) (*runtime, error) {
	cfg := app.config

	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_driver", cfg.SQLite.Driver),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("cache_ttl", cfg.Cache.TTL),
		slog.String("week_start", cfg.Stats.Weekday().String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(ctx, cfg.SQLite.Driver, cfg.SQLite.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	repo := repository.New(db,
		repository.WithTTL(cfg.Cache.TTL),
		repository.WithLogger(logger),
		repository.WithRegisterer(app.registry),
	)
	svc := recordservice.New(repo,
		recordservice.WithLogger(logger),
		recordservice.WithWeekStart(cfg.Stats.Weekday()),
	)

	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	return &runtime{cfg: cfg, logger: logger, level: level, db: db, repo: repo, svc: svc}, nil
}

// reload applies the settings that can change without a restart.
func (rt *runtime) reload(next *Config) {
	if next.App.LogLevel != rt.level.Level() {
		rt.logger.Info("log level changed",
			slog.String("from", rt.level.Level().String()),
			slog.String("to", next.App.LogLevel.String()))
		rt.level.Set(next.App.LogLevel)
	}
	if next.Cache.TTL != rt.repo.TTL() {
		rt.repo.SetTTL(next.Cache.TTL)
	}
	if next.SQLite != rt.cfg.SQLite || next.App.HTTP != rt.cfg.App.HTTP ||
		next.Stats != rt.cfg.Stats || next.Events != rt.cfg.Events {
		rt.logger.Warn("config change requires a restart to take effect")
	}
}

// shutdown abandons running timers and closes the store.
func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.svc.Close(ctx); err != nil {
		rt.logger.Error("abandon timers failed", slog.String("error", err.Error()))
	}
	if err := rt.db.Close(); err != nil {
		rt.logger.Error("store close failed", slog.String("error", err.Error()))
	}
}

func (rt *runtime) watchConfig(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		rt.logger.Info("config file not found, reload disabled", slog.String("path", path))
		return nil
	}
	return pkgconfig.Watch(ctx, path, NewDefaultConfig, rt.logger, rt.reload)
}

func (rt *runtime) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := rt.db.Ping(ctx); err != nil {
		rt.logger.Warn("readiness check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := start(ctx, app)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	cfg, logger := rt.cfg, rt.logger

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// SSE broker fed from the state holder.
	broker := sse.NewBroker(cfg.Events.StatsThrottle, logger)
	unsubscribe := rt.svc.Subscribe(sse.Forward(broker))
	defer unsubscribe()

	apiRouter := api.NewRouter(rt.svc, broker, logger, cfg.Stats.HeatmapWeeks)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", rt.ready)
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watchConfig(gCtx, app.configPath)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the event streams first so Shutdown is not held open by them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the remaining run loop goroutines once the server stops.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr so they do not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := start(ctx, app)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := rt.watchConfig(watchCtx, app.configPath); err != nil {
			rt.logger.Warn("config watcher failed", slog.String("error", err.Error()))
		}
	}()

	srv := mcpserver.New(rt.svc, app.version, rt.cfg.Stats.HeatmapWeeks)
	rt.logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
