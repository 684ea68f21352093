package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var ErrSponsorExists = errors.New("sponsor already exists")

type SponsorRepository interface {
	Create(ctx context.Context, s *domain.Sponsor) error
	List(ctx context.Context) ([]domain.Sponsor, error)
}

type GormSponsorRepository struct{ db *gorm.DB }

func NewSponsorRepository(db *gorm.DB) SponsorRepository { return &GormSponsorRepository{db: db} }

func (r *GormSponsorRepository) Create(ctx context.Context, s *domain.Sponsor) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "sponsor", "create", "conflict")
			return ErrSponsorExists
		}
		observability.RecordRepositoryOperation(ctx, "sponsor", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "sponsor", "create", "success")
	return nil
}

func (r *GormSponsorRepository) List(ctx context.Context) ([]domain.Sponsor, error) {
	sponsors := []domain.Sponsor{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&sponsors).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "sponsor", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "sponsor", "list", "success")
	return sponsors, nil
}
