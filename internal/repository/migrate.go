package repository

import (
	"fmt"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Principal{},
		&domain.TokenRecord{},
		&domain.Event{},
		&domain.Sponsor{},
		&domain.Team{},
		&domain.TeamMember{},
		&domain.Hacker{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
