package models

import (
	"time"

	"github.com/google/uuid"
)

// DetectionSession is one append-only audit row per raw detection event that
// cleared the confidence threshold, whether it was accepted or suppressed by
// the cooldown. Rows are never mutated; old rows are removed only by the
// retention job.
type DetectionSession struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	IdentityCode string    `gorm:"not null;index"`

	DetectedAt      time.Time `gorm:"not null;index"`
	Confidence      float64
	Location        string
	SourceSessionID string `gorm:"index"`
	Accepted        bool   `gorm:"default:false"` // false = cooldown-suppressed

	CreatedAt time.Time
}

func (DetectionSession) TableName() string {
	return "detection_sessions"
}
