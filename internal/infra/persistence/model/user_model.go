package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Password and refresh-token digests live on the same row as in the original
// schema; the repository layer controls which columns each read path selects.
type UserModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name             string    `gorm:"type:varchar(100);not null"`
	Email            string    `gorm:"type:varchar(255);unique;not null"`
	Phone            string    `gorm:"type:varchar(15);unique;not null"`
	PasswordHash     string    `gorm:"type:varchar(255);not null"`
	Role             string    `gorm:"type:varchar(20);not null;default:user"`
	RefreshTokenHash *string   `gorm:"type:varchar(64)"`
	ProfileImage     string    `gorm:"type:varchar(255)"`
	Address          string    `gorm:"type:varchar(150)"`
	State            string    `gorm:"type:varchar(100);not null"`
	City             string    `gorm:"type:varchar(100);not null"`
	Country          string    `gorm:"type:varchar(100);not null"`
	Pincode          string    `gorm:"type:varchar(10);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
