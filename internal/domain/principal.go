package domain

import "time"

// Principal is a user-like identity. Username is the identity key carried in
// the token subject.
type Principal struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Scopes       Scope     `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenRecord is the ledger entry for one issued session token. An entry
// exists only while its token may still be used.
type TokenRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TokenID   string    `gorm:"size:64;uniqueIndex;not null" json:"token_id"`
	Owner     string    `gorm:"size:128;index;not null" json:"owner"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

func (TokenRecord) TableName() string {
	return "token_ledger"
}
