package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a registered person the recognition engine can report.
// Identities are never deleted; deactivate instead so historical presence
// records keep a valid owner.
type Identity struct {
	ID   uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code string    `gorm:"uniqueIndex;not null"` // external identity code, FK target for presence/sessions

	Name       string `gorm:"not null"`
	Department string `gorm:"index"`

	// RecognitionEnabled is flipped on when face training completes
	RecognitionEnabled bool `gorm:"default:false"`
	Active             bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	PresenceRecords   []PresenceRecord   `gorm:"foreignKey:IdentityCode;references:Code"`
	DetectionSessions []DetectionSession `gorm:"foreignKey:IdentityCode;references:Code"`
}

func (Identity) TableName() string {
	return "identities"
}
