package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventExists   = errors.New("event already exists")
)

type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	FindByName(ctx context.Context, name string) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
	ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Event], error)
}

type GormEventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository { return &GormEventRepository{db: db} }

func (r *GormEventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "event", "create", "conflict")
			return ErrEventExists
		}
		observability.RecordRepositoryOperation(ctx, "event", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "event", "create", "success")
	return nil
}

func (r *GormEventRepository) FindByName(ctx context.Context, name string) (*domain.Event, error) {
	var e domain.Event
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "event", "find_by_name", "not_found")
			return nil, ErrEventNotFound
		}
		observability.RecordRepositoryOperation(ctx, "event", "find_by_name", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "event", "find_by_name", "success")
	return &e, nil
}

func (r *GormEventRepository) Update(ctx context.Context, e *domain.Event) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "event", "update", "conflict")
			return ErrEventExists
		}
		observability.RecordRepositoryOperation(ctx, "event", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "event", "update", "success")
	return nil
}

// ListPaged orders events by start time, soonest first.
func (r *GormEventRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Event], error) {
	normalized := req.Normalized()
	result := newPageResult[domain.Event](normalized)
	base := r.db.WithContext(ctx).Model(&domain.Event{})
	if err := base.Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "event", "list_paged", "error")
		return PageResult[domain.Event]{}, err
	}
	err := base.Order("events.starts_at ASC").Order("events.id ASC").
		Offset(normalized.Offset()).Limit(normalized.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "event", "list_paged", "error")
		return PageResult[domain.Event]{}, err
	}
	result.finish()
	observability.RecordRepositoryOperation(ctx, "event", "list_paged", "success")
	return result, nil
}
