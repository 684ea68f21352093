package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/hackathon-backend/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the OpenTelemetry providers for one process.
type Runtime struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
}

// InitRuntime installs the meter and tracer providers. lp is the logger
// provider created with the process logger and may be nil.
func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*Runtime, error) {
	rt := &Runtime{LoggerProvider: lp}
	var err error
	if rt.MeterProvider, err = InitMetrics(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if rt.TracerProvider, err = InitTracing(ctx, cfg, logger); err != nil {
		_ = rt.MeterProvider.Shutdown(ctx)
		return nil, err
	}
	logger.Debug("observability runtime ready",
		"metrics", cfg.OTELMetricsEnabled,
		"tracing", cfg.OTELTracingEnabled,
		"otel_logs", lp != nil,
	)
	return rt, nil
}

// Shutdown flushes and stops every provider, metrics first so the last
// request counters are exported. Errors name the provider that failed.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	type stopper struct {
		name string
		stop func(context.Context) error
	}
	var stoppers []stopper
	if r.MeterProvider != nil {
		stoppers = append(stoppers, stopper{"metrics", r.MeterProvider.Shutdown})
	}
	if r.TracerProvider != nil {
		stoppers = append(stoppers, stopper{"tracing", r.TracerProvider.Shutdown})
	}
	if r.LoggerProvider != nil {
		stoppers = append(stoppers, stopper{"logs", r.LoggerProvider.Shutdown})
	}
	var errs []error
	for _, s := range stoppers {
		if err := s.stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s provider: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
