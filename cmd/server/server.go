package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-cz/devslog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"rangestream/internal/api"
	"rangestream/internal/config"
	"rangestream/internal/media"
	"rangestream/internal/middleware"
)

type App struct {
	logger  *slog.Logger
	api     *api.Handler
	cfg     *config.Config
	monitor *shutdownMonitor
	limiter *middleware.RateLimiter // nil when rate limiting is off
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	library := media.NewLibrary(cfg.Media.Root, media.NewIOLimiter(cfg.Media.MaxIO))
	logger.Info("library mounted", "root", cfg.Media.Root, "max_io", cfg.Media.MaxIO)

	apiCfg := api.Config{
		MaxRegionSize: int64(cfg.Media.MaxRegionSize),
		ReadChunkSize: int(cfg.Media.ReadChunkSize),
		TrustedProxy:  cfg.HTTP.TrustedProxy,
	}

	apiHandler, err := api.NewHandler(library, apiCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	app := &App{
		logger:  logger,
		api:     apiHandler,
		cfg:     cfg,
		monitor: NewShutdownMonitor(cfg.ShutdownTimers, logger),
	}

	if cfg.RateLimit.RPS > 0 {
		app.limiter = middleware.NewRateLimiter(logger, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.HTTP.TrustedProxy)
	}

	return app, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var handler slog.Handler

	switch cfg.Format {
	case "dev":
		handler = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions:    &slog.HandlerOptions{Level: cfg.Level},
			MaxSlicePrintSize: 4,
			SortKeys:          true,
			TimeFormat:        "[15:04:05]",
			NewLineAfterLog:   true,
			DebugColor:        devslog.Magenta,
			StringerFormatter: true,
		})
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	}

	return slog.New(handler).With("app", "rangestream")
}

func main() {
	stderr := os.Stderr

	cfg, err := config.Load(os.Args[1:], stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logger, stderr)

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// Handler builds the router: /metrics bare, everything else behind the middleware stack.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// no middlewares for metrics!
	mux.Handle("GET /metrics", promhttp.Handler())

	stack := []middleware.Middleware{
		middleware.WithRequestID(),
		middleware.WithObservability(),
		middleware.WithLogging(a.logger, a.monitor),
	}

	if a.limiter != nil {
		stack = append(stack, a.limiter.Middleware)
	}

	a.api.Routes(mux, stack...)
	return mux
}

func (a *App) Run(rootCtx context.Context) error {
	// create ctx watching ctrl+c
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:      a.Handler(),
		Addr:         a.cfg.HTTP.Addr,
		ReadTimeout:  a.cfg.HTTP.Timeouts.Read,
		IdleTimeout:  a.cfg.HTTP.Timeouts.Idle,
		WriteTimeout: a.cfg.HTTP.Timeouts.Write,
		ErrorLog:     slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting", "addr", a.cfg.HTTP.Addr, "root", a.cfg.Media.Root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server closed unexpectedly: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.monitor.Run(ctx)
	})

	if a.limiter != nil {
		g.Go(func() error {
			return a.limiter.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down gracefully...", "delay", a.cfg.HTTP.Timeouts.Shutdown, "reason", context.Cause(ctx))

		// new context to give the shutdown process time to complete gracefully
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.Timeouts.Shutdown)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, ErrShutdownTimeout) {
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
