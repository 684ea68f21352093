package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/hackathon-backend/internal/config"
	"github.com/sandeepkv93/hackathon-backend/internal/health"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
)

// BackgroundTask runs until its context is cancelled.
type BackgroundTask interface {
	Run(ctx context.Context) error
}

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Reaper        BackgroundTask
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	mu   sync.Mutex
	stop context.CancelFunc
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	reaper BackgroundTask,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		Reaper:                       reaper,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
	}
}

// Run serves HTTP and runs the background reaper until ctx is cancelled or
// either of them fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.Reaper != nil {
		bgCtx, cancel := context.WithCancel(gctx)
		a.mu.Lock()
		a.stop = cancel
		a.mu.Unlock()
		g.Go(func() error {
			if err := a.Reaper.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("ledger reaper: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})
	return g.Wait()
}

// StopBackgroundTasks cancels the reaper started by Run. Safe to call more
// than once.
func (a *App) StopBackgroundTasks() {
	a.mu.Lock()
	stop := a.stop
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	total := a.ShutdownTimeout
	if total <= 0 {
		total = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	a.StopBackgroundTasks()

	var errs []error
	drainCtx, drainCancel := boundedContext(ctx, a.ShutdownHTTPDrainTimeout)
	if err := a.Server.Shutdown(drainCtx); err != nil {
		a.Logger.Error("http drain failed", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	drainCancel()

	obsCtx, obsCancel := boundedContext(ctx, a.ShutdownObservabilityTimeout)
	if err := a.Observability.Shutdown(obsCtx); err != nil {
		a.Logger.Error("observability shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("observability shutdown: %w", err))
	}
	obsCancel()

	a.Logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func boundedContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
