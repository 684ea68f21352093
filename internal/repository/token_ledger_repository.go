package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrTokenRecordNotFound = errors.New("token record not found")
	ErrTokenIDConflict     = errors.New("token id already recorded")
)

// TokenLedgerRepository persists issued token ids. Uniqueness of token_id is
// enforced by the table's unique index.
type TokenLedgerRepository interface {
	Record(ctx context.Context, tokenID, owner string) error
	IsActive(ctx context.Context, tokenID string) (bool, error)
	Find(ctx context.Context, tokenID string) (*domain.TokenRecord, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAll(ctx context.Context, owner string) (int64, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormTokenLedgerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTokenLedgerRepository(db *gorm.DB) *GormTokenLedgerRepository {
	return &GormTokenLedgerRepository{db: db, now: time.Now}
}

// WithClock overrides the timestamp source for created_at.
func (r *GormTokenLedgerRepository) WithClock(now func() time.Time) *GormTokenLedgerRepository {
	if now != nil {
		r.now = now
	}
	return r
}

func (r *GormTokenLedgerRepository) Record(ctx context.Context, tokenID, owner string) error {
	rec := &domain.TokenRecord{
		TokenID:   tokenID,
		Owner:     owner,
		CreatedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "token_ledger", "record", "conflict")
			return ErrTokenIDConflict
		}
		observability.RecordRepositoryOperation(ctx, "token_ledger", "record", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "record", "success")
	return nil
}

func (r *GormTokenLedgerRepository) IsActive(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TokenRecord{}).
		Where("token_id = ? AND revoked = ?", tokenID, false).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "token_ledger", "is_active", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "is_active", "success")
	return count > 0, nil
}

func (r *GormTokenLedgerRepository) Find(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "token_ledger", "find", "not_found")
			return nil, ErrTokenRecordNotFound
		}
		observability.RecordRepositoryOperation(ctx, "token_ledger", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "find", "success")
	return &rec, nil
}

// Revoke flags one entry. Revoking a missing or already revoked entry is not
// an error.
func (r *GormTokenLedgerRepository) Revoke(ctx context.Context, tokenID string) error {
	err := r.db.WithContext(ctx).Model(&domain.TokenRecord{}).
		Where("token_id = ? AND revoked = ?", tokenID, false).
		Update("revoked", true).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "token_ledger", "revoke", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "revoke", "success")
	return nil
}

func (r *GormTokenLedgerRepository) RevokeAll(ctx context.Context, owner string) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner = ?", owner).Delete(&domain.TokenRecord{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "token_ledger", "revoke_all", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "revoke_all", "success")
	return res.RowsAffected, nil
}

func (r *GormTokenLedgerRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at <= ?", cutoff.UTC()).Delete(&domain.TokenRecord{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "token_ledger", "prune", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "token_ledger", "prune", "success")
	return res.RowsAffected, nil
}
