package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

// PrincipalLookup resolves token subjects to principals and remembers
// misses for a short TTL so tokens of deleted accounts do not hit the
// database on every request.
type PrincipalLookup struct {
	repo   repository.PrincipalRepository
	misses MissCache
	ttl    time.Duration
}

// NewPrincipalLookup disables miss caching when misses is nil.
func NewPrincipalLookup(repo repository.PrincipalRepository, misses MissCache, ttl time.Duration) *PrincipalLookup {
	if misses == nil {
		misses = noMissCache{}
	}
	return &PrincipalLookup{repo: repo, misses: misses, ttl: ttl}
}

// Find returns repository.ErrPrincipalNotFound for unknown usernames. Cache
// failures fall through to the repository.
func (l *PrincipalLookup) Find(ctx context.Context, username string) (*domain.Principal, error) {
	seen, err := l.misses.Seen(ctx, username)
	if err != nil {
		slog.WarnContext(ctx, "principal miss cache read failed", "error", err)
	} else if seen {
		return nil, repository.ErrPrincipalNotFound
	}
	p, err := l.repo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrPrincipalNotFound) {
		if rerr := l.misses.Remember(ctx, username, l.ttl); rerr != nil {
			slog.WarnContext(ctx, "principal miss cache write failed", "error", rerr)
		}
	}
	return p, err
}

// Forget drops a cached miss for username. Called after registration so the
// new account resolves at once.
func (l *PrincipalLookup) Forget(ctx context.Context, username string) {
	if err := l.misses.Forget(ctx, username); err != nil {
		slog.WarnContext(ctx, "principal miss cache delete failed", "error", err)
	}
}
