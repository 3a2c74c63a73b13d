package repositories

import (
	"context"
	"time"

	"safesight/domain/models"
)

// PresenceUpsert carries one conditional upsert for the (identity, day) key.
// When no row exists the insert sets FirstSeen = LastSeen; when a row exists
// only LastSeen/Confidence/Location are touched and LastSeen never moves
// backwards.
type PresenceUpsert struct {
	IdentityCode string
	Day          string // local calendar day, YYYY-MM-DD
	SeenAt       time.Time
	Confidence   float64
	Location     string
}

type PresenceRepository interface {
	// Upsert atomically creates or updates the day's record for the identity
	Upsert(ctx context.Context, up PresenceUpsert) error

	// Get returns the record for one identity+day, nil if absent
	Get(ctx context.Context, identityCode, day string) (*models.PresenceRecord, error)

	// QueryDaily returns all presence records for a day
	QueryDaily(ctx context.Context, day string) ([]models.PresenceRecord, error)

	// QueryIdentityHistory returns records for an identity since a day (inclusive)
	QueryIdentityHistory(ctx context.Context, identityCode, sinceDay string) ([]models.PresenceRecord, error)

	// QueryRange returns records in [startDay, endDay] sorted by day then
	// identity code, optionally restricted to one department
	QueryRange(ctx context.Context, startDay, endDay, department string) ([]models.PresenceRecord, error)

	// DeleteByDay removes all presence records for a day (admin reset only;
	// detection sessions are untouched)
	DeleteByDay(ctx context.Context, day string) (int64, error)
}
