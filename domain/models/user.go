package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a dashboard operator account.
type User struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Username string    `gorm:"uniqueIndex;not null"`
	Email    string    `gorm:"uniqueIndex;not null"`
	Password string    `gorm:"not null"` // bcrypt hash

	Role      string `gorm:"default:'operator'"` // operator, admin
	IsActive  bool   `gorm:"default:true"`
	LastLogin *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
