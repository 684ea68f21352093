package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamExists         = errors.New("team already exists")
	ErrTeamMemberNotFound = errors.New("team member not found")
)

type TeamRepository interface {
	Create(ctx context.Context, t *domain.Team) error
	FindByName(ctx context.Context, name string) (*domain.Team, error)
	RemoveMember(ctx context.Context, teamID uint, username string) error
	RemoveMemberships(ctx context.Context, username string) (int64, error)
}

type GormTeamRepository struct{ db *gorm.DB }

func NewTeamRepository(db *gorm.DB) TeamRepository { return &GormTeamRepository{db: db} }

// Create inserts the team and its initial members in one transaction.
func (r *GormTeamRepository) Create(ctx context.Context, t *domain.Team) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(t).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(ctx, "team", "create", "conflict")
			return ErrTeamExists
		}
		observability.RecordRepositoryOperation(ctx, "team", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "team", "create", "success")
	return nil
}

func (r *GormTeamRepository) FindByName(ctx context.Context, name string) (*domain.Team, error) {
	var t domain.Team
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("team_members.id ASC") }).
		Where("name = ?", name).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "team", "find_by_name", "not_found")
			return nil, ErrTeamNotFound
		}
		observability.RecordRepositoryOperation(ctx, "team", "find_by_name", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "team", "find_by_name", "success")
	return &t, nil
}

func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID uint, username string) error {
	res := r.db.WithContext(ctx).
		Where("team_id = ? AND username = ?", teamID, username).
		Delete(&domain.TeamMember{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "team", "remove_member", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "team", "remove_member", "not_found")
		return ErrTeamMemberNotFound
	}
	observability.RecordRepositoryOperation(ctx, "team", "remove_member", "success")
	return nil
}

// RemoveMemberships drops username from every team, used when the principal
// is deleted.
func (r *GormTeamRepository) RemoveMemberships(ctx context.Context, username string) (int64, error) {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&domain.TeamMember{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "team", "remove_memberships", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "team", "remove_memberships", "success")
	return res.RowsAffected, nil
}
