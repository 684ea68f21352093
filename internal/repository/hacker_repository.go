package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrHackerNotFound = errors.New("hacker not found")
	ErrHackerExists   = errors.New("hacker username or email already exists")
)

type HackerRepository interface {
	Create(ctx context.Context, h *domain.Hacker) error
	FindByUsername(ctx context.Context, username string) (*domain.Hacker, error)
	// Accept marks the hacker accepted; accepting twice is not an error.
	Accept(ctx context.Context, username string) (*domain.Hacker, error)
	ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Hacker], error)
}

type GormHackerRepository struct{ db *gorm.DB }

func NewHackerRepository(db *gorm.DB) HackerRepository { return &GormHackerRepository{db: db} }

func (r *GormHackerRepository) Create(ctx context.Context, h *domain.Hacker) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "hacker", "create", "conflict")
			return ErrHackerExists
		}
		observability.RecordRepositoryOperation(ctx, "hacker", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "hacker", "create", "success")
	return nil
}

func (r *GormHackerRepository) FindByUsername(ctx context.Context, username string) (*domain.Hacker, error) {
	var h domain.Hacker
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "hacker", "find_by_username", "not_found")
			return nil, ErrHackerNotFound
		}
		observability.RecordRepositoryOperation(ctx, "hacker", "find_by_username", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "hacker", "find_by_username", "success")
	return &h, nil
}

func (r *GormHackerRepository) Accept(ctx context.Context, username string) (*domain.Hacker, error) {
	res := r.db.WithContext(ctx).Model(&domain.Hacker{}).
		Where("username = ?", username).
		Update("is_accepted", true)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "hacker", "accept", "error")
		return nil, res.Error
	}
	h, err := r.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrHackerNotFound) {
			observability.RecordRepositoryOperation(ctx, "hacker", "accept", "not_found")
		}
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "hacker", "accept", "success")
	return h, nil
}

// ListPaged orders hackers by application time, oldest first.
func (r *GormHackerRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Hacker], error) {
	normalized := req.Normalized()
	result := newPageResult[domain.Hacker](normalized)
	base := r.db.WithContext(ctx).Model(&domain.Hacker{})
	if err := base.Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "hacker", "list_paged", "error")
		return PageResult[domain.Hacker]{}, err
	}
	err := base.Order("hackers.created_at ASC").Order("hackers.id ASC").
		Offset(normalized.Offset()).Limit(normalized.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "hacker", "list_paged", "error")
		return PageResult[domain.Hacker]{}, err
	}
	result.finish()
	observability.RecordRepositoryOperation(ctx, "hacker", "list_paged", "success")
	return result, nil
}
