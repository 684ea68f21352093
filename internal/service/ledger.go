package service

import (
	"context"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

var (
	ErrTokenIDConflict     = repository.ErrTokenIDConflict
	ErrTokenRecordNotFound = repository.ErrTokenRecordNotFound
)

// RevocationLedger is an allow-list of issued session tokens. A token is
// accepted only while its entry exists and is not flagged revoked.
type RevocationLedger interface {
	// Record fails with ErrTokenIDConflict when tokenID is already present.
	Record(ctx context.Context, tokenID, owner string) error
	// IsActive reports false, without error, for missing or revoked entries.
	IsActive(ctx context.Context, tokenID string) (bool, error)
	Find(ctx context.Context, tokenID string) (*domain.TokenRecord, error)
	Revoke(ctx context.Context, tokenID string) error
	// RevokeAll deletes every entry owned by owner.
	RevokeAll(ctx context.Context, owner string) (int64, error)
	// Prune deletes entries created at or before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ RevocationLedger = (*repository.GormTokenLedgerRepository)(nil)
