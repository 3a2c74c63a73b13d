package models

import (
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	StatusPresent PresenceStatus = "present"
	StatusAbsent  PresenceStatus = "absent"
	StatusManual  PresenceStatus = "manual"
)

// PresenceRecord is the single daily attendance state for one identity.
// The composite unique index enforces at most one row per identity per day.
type PresenceRecord struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	IdentityCode string    `gorm:"not null;uniqueIndex:idx_presence_identity_day;index"`
	Day          string    `gorm:"type:date;not null;uniqueIndex:idx_presence_identity_day;index"`

	FirstSeen      time.Time      `gorm:"not null"`
	LastSeen       time.Time      `gorm:"not null"`
	Status         PresenceStatus `gorm:"type:varchar(20);default:'present'"`
	Location       string
	LastConfidence float64
	Note           string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PresenceRecord) TableName() string {
	return "presence_records"
}
