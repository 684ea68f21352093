package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrPrincipalExists   = errors.New("principal already exists")
)

type PrincipalRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
	Create(ctx context.Context, p *domain.Principal) error
	UpdateScopes(ctx context.Context, username string, scopes domain.Scope) error
	DeleteByUsername(ctx context.Context, username string) error
}

type GormPrincipalRepository struct{ db *gorm.DB }

func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &GormPrincipalRepository{db: db}
}

func (r *GormPrincipalRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	var p domain.Principal
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "principal", "find_by_username", "not_found")
			return nil, ErrPrincipalNotFound
		}
		observability.RecordRepositoryOperation(ctx, "principal", "find_by_username", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "principal", "find_by_username", "success")
	return &p, nil
}

func (r *GormPrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "principal", "create", "conflict")
			return ErrPrincipalExists
		}
		observability.RecordRepositoryOperation(ctx, "principal", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "principal", "create", "success")
	return nil
}

func (r *GormPrincipalRepository) UpdateScopes(ctx context.Context, username string, scopes domain.Scope) error {
	res := r.db.WithContext(ctx).Model(&domain.Principal{}).
		Where("username = ?", username).
		Update("scopes", scopes)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "principal", "update_scopes", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "principal", "update_scopes", "not_found")
		return ErrPrincipalNotFound
	}
	observability.RecordRepositoryOperation(ctx, "principal", "update_scopes", "success")
	return nil
}

func (r *GormPrincipalRepository) DeleteByUsername(ctx context.Context, username string) error {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&domain.Principal{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "principal", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "principal", "delete", "not_found")
		return ErrPrincipalNotFound
	}
	observability.RecordRepositoryOperation(ctx, "principal", "delete", "success")
	return nil
}

// isUniqueViolation recognizes duplicate-key errors from the translated gorm
// error as well as raw sqlite and postgres driver messages.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
