package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/observability"
)

// LedgerReaper periodically prunes ledger entries whose tokens can no longer
// verify. The cutoff is now minus the token lifetime.
type LedgerReaper struct {
	ledger   RevocationLedger
	backend  string
	interval time.Duration
	lifetime time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewLedgerReaper(ledger RevocationLedger, backend string, interval, lifetime time.Duration, logger *slog.Logger) *LedgerReaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerReaper{
		ledger:   ledger,
		backend:  backend,
		interval: interval,
		lifetime: lifetime,
		logger:   logger.With("component", "ledger_reaper"),
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. Cancellation is a clean stop.
func (r *LedgerReaper) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting ledger reaper", "interval", r.interval, "backend", r.backend)
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.ErrorContext(ctx, "ledger prune failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "ledger reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "ledger prune failed", "error", err)
			}
		}
	}
}

func (r *LedgerReaper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.lifetime)
	n, err := r.ledger.Prune(ctx, cutoff)
	if err != nil {
		return n, err
	}
	observability.RecordLedgerPruned(ctx, r.backend, n)
	if n > 0 {
		r.logger.DebugContext(ctx, "ledger entries pruned", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (r *LedgerReaper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)))
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
