package repositories

import (
	"context"
	"time"

	"safesight/domain/models"
)

type DetectionSessionRepository interface {
	// Append inserts one audit row; sessions are append-only
	Append(ctx context.Context, session *models.DetectionSession) error

	// GetRecent returns the newest sessions, newest first
	GetRecent(ctx context.Context, limit int) ([]models.DetectionSession, error)

	// CountByIdentitySince counts sessions for an identity observed at or
	// after the given instant; callers resolve day boundaries to a timestamp
	// in the deployment timezone
	CountByIdentitySince(ctx context.Context, identityCode string, since time.Time) (int64, error)

	// DeleteOlderThan removes sessions past the retention window
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
